package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"
)

// Format is the output container format.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// UnsupportedFormatError reports a requested container format with no
// available encoder capability.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format %q", e.Format)
}

// ParseFormat validates a requested container format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWAV, FormatMP3:
		return Format(s), nil
	default:
		return "", &UnsupportedFormatError{Format: s}
	}
}

// ContentType returns the media type for a container format.
func (f Format) ContentType() string {
	if f == FormatMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// Encoder converts assembled PCM into a container payload. WAV is always
// available; MP3 requires an external encoder command (stdin WAV, stdout
// MP3) configured at construction.
type Encoder struct {
	mp3Cmd []string
}

func NewEncoder(mp3Command string) (*Encoder, error) {
	enc := &Encoder{}
	if mp3Command != "" {
		parser := shellwords.NewParser()
		args, err := parser.Parse(mp3Command)
		if err != nil {
			return nil, fmt.Errorf("parse mp3 encoder command: %w", err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("mp3 encoder command empty")
		}
		enc.mp3Cmd = args
	}
	return enc, nil
}

// Encode wraps the PCM stream in the requested container and returns the
// payload bytes. Failing capability checks never fall back to another
// format.
func (e *Encoder) Encode(ctx context.Context, samples []float32, sampleRate int, format Format) ([]byte, error) {
	switch format {
	case FormatWAV:
		return encodeWAV(samples, sampleRate)
	case FormatMP3:
		if len(e.mp3Cmd) == 0 {
			return nil, &UnsupportedFormatError{Format: string(format)}
		}
		wavBytes, err := encodeWAV(samples, sampleRate)
		if err != nil {
			return nil, err
		}
		return e.encodeMP3(ctx, wavBytes)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// encodeWAV writes 16-bit mono PCM. The wav encoder needs a seekable
// target to patch the header, so it goes through a temp file.
func encodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	file, err := os.CreateTemp("", "purr_audio_*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	name := file.Name()
	defer os.Remove(name)

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		buf.Data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close wav file: %w", err)
	}
	return os.ReadFile(name)
}

func (e *Encoder) encodeMP3(ctx context.Context, wavBytes []byte) ([]byte, error) {
	base := e.mp3Cmd[0]
	args := append([]string{}, e.mp3Cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(wavBytes)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("mp3 encoder failed: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
