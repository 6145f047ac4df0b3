package engine

import "context"

// mockEngine produces silence with a deterministic length proportional to
// the input text, at roughly 100 characters per second of speech. Exact
// sample counts make it suitable for pipeline assertions.
type mockEngine struct {
	sampleRate int
}

const mockCharsPerSecond = 100

func NewMockEngine(sampleRate int) Engine {
	return &mockEngine{sampleRate: sampleRate}
}

func (m *mockEngine) Synthesize(ctx context.Context, text, voiceID string, speed float64) (Audio, error) {
	if err := ctx.Err(); err != nil {
		return Audio{}, err
	}
	if speed <= 0 {
		speed = 1.0
	}
	n := int(float64(len(text)*m.sampleRate) / (mockCharsPerSecond * speed))
	if n < 1 {
		n = 1
	}
	return Audio{
		Samples:    make([]float32, n),
		SampleRate: m.sampleRate,
	}, nil
}
