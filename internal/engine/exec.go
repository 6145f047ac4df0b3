package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execEngine shells out to an external model runner. The runner reads one
// JSON request on stdin and writes one JSON response on stdout, with the
// samples as base64 little-endian float32 PCM. A single model process is
// not assumed safe for concurrent invocations, so calls are serialized.
type execEngine struct {
	cmd        []string
	sampleRate int
	mu         sync.Mutex
}

type execRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`
}

type execResponse struct {
	SamplesBase64 string `json:"samples_base64"`
	SampleRate    int    `json:"sample_rate"`
}

func NewExecEngine(command string, sampleRate int) (Engine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command empty")
	}
	return &execEngine{cmd: args, sampleRate: sampleRate}, nil
}

func (e *execEngine) Synthesize(ctx context.Context, text, voiceID string, speed float64) (Audio, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		Text:       text,
		Voice:      voiceID,
		Speed:      speed,
		SampleRate: e.sampleRate,
	})
	if err != nil {
		return Audio{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Audio{}, fmt.Errorf("engine command failed: %w: %s", err, stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Audio{}, fmt.Errorf("decode engine response: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.SamplesBase64)
	if err != nil {
		return Audio{}, fmt.Errorf("decode engine samples: %w", err)
	}
	if len(raw)%4 != 0 {
		return Audio{}, fmt.Errorf("engine samples not float32 aligned")
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	rate := resp.SampleRate
	if rate == 0 {
		rate = e.sampleRate
	}
	return Audio{Samples: samples, SampleRate: rate}, nil
}
