package pipeline

import (
	"errors"
	"fmt"
)

// Speed bounds accepted for a synthesis request.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// ErrEmptyInput reports input text that is empty after trimming.
var ErrEmptyInput = errors.New("input text is empty")

// TextTooLargeError reports input exceeding the total character limit.
type TextTooLargeError struct {
	Length int
	Max    int
}

func (e *TextTooLargeError) Error() string {
	return fmt.Sprintf("input text too long: %d characters, maximum is %d", e.Length, e.Max)
}

// InvalidSpeedError reports a speed outside the accepted range.
type InvalidSpeedError struct {
	Speed float64
}

func (e *InvalidSpeedError) Error() string {
	return fmt.Sprintf("speed %.2f outside range [%.2f, %.2f]", e.Speed, MinSpeed, MaxSpeed)
}

// ChunkSynthesisError reports an engine failure on a specific chunk. The
// whole request is aborted; no partial audio is returned.
type ChunkSynthesisError struct {
	Index int
	Err   error
}

func (e *ChunkSynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed on chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkSynthesisError) Unwrap() error { return e.Err }

// InconsistentAudioFormatError reports chunks with differing sample rates,
// a contract violation of the synthesis engine.
type InconsistentAudioFormatError struct {
	Index int
	Got   int
	Want  int
}

func (e *InconsistentAudioFormatError) Error() string {
	return fmt.Sprintf("chunk %d reported sample rate %d, expected %d", e.Index, e.Got, e.Want)
}
