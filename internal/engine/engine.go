package engine

import "context"

// Audio holds raw model output for one synthesis call.
type Audio struct {
	Samples    []float32
	SampleRate int
}

// Engine is the contract for the acoustic model. Implementations are not
// assumed safe for concurrent calls; callers issue one request at a time
// or rely on the implementation's own serialization.
type Engine interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) (Audio, error)
}
