package protocol

import "time"

// SynthesisCompleted announces a finished synthesis request.
type SynthesisCompleted struct {
	RequestID  string    `json:"request_id"`
	Voice      string    `json:"voice"`
	Format     string    `json:"format"`
	CharCount  int       `json:"char_count"`
	ChunkCount int       `json:"chunk_count"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// SynthesisFailed announces an aborted synthesis request.
type SynthesisFailed struct {
	RequestID string    `json:"request_id"`
	Voice     string    `json:"voice"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSynthesisCompleted = "tts.synthesis.completed"
	SubjectSynthesisFailed    = "tts.synthesis.failed"
)
