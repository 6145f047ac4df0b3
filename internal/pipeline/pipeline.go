package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/purrlabs/purr-server/internal/audio"
	"github.com/purrlabs/purr-server/internal/config"
	"github.com/purrlabs/purr-server/internal/engine"
	"github.com/purrlabs/purr-server/internal/voices"
)

// Request carries one synthesis request into the pipeline.
type Request struct {
	Text   string
	Voice  string
	Speed  float64
	Format audio.Format
}

// Result is the terminal artifact of a pipeline run.
type Result struct {
	Payload     []byte
	ContentType string
	ChunkCount  int
	CharCount   int
}

type synthesizedChunk struct {
	index   int
	samples []float32
	rate    int
}

// Pipeline drives segmentation, sequential chunk synthesis, assembly and
// encoding for one request at a time. All state lives in the arguments of
// a Run call; a Pipeline value is safe to share across requests.
type Pipeline struct {
	cfg     config.PipelineConfig
	engine  engine.Engine
	voices  *voices.Registry
	encoder *audio.Encoder
	logger  *slog.Logger
	tracer  trace.Tracer

	requestsTotal metric.Int64Counter
	chunksTotal   metric.Int64Counter
	failuresTotal metric.Int64Counter
	audioSeconds  metric.Float64Counter
}

func New(cfg config.PipelineConfig, eng engine.Engine, reg *voices.Registry, enc *audio.Encoder, log *slog.Logger) (*Pipeline, error) {
	meter := otel.Meter("github.com/purrlabs/purr-server/internal/pipeline")

	requestsTotal, err := meter.Int64Counter("purr_synthesis_requests_total",
		metric.WithDescription("Completed synthesis requests"))
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	chunksTotal, err := meter.Int64Counter("purr_synthesis_chunks_total",
		metric.WithDescription("Chunks handed to the synthesis engine"))
	if err != nil {
		return nil, fmt.Errorf("create chunks counter: %w", err)
	}
	failuresTotal, err := meter.Int64Counter("purr_synthesis_failures_total",
		metric.WithDescription("Aborted synthesis requests"))
	if err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	audioSeconds, err := meter.Float64Counter("purr_synthesis_audio_seconds_total",
		metric.WithDescription("Seconds of audio produced"))
	if err != nil {
		return nil, fmt.Errorf("create audio seconds counter: %w", err)
	}

	return &Pipeline{
		cfg:           cfg,
		engine:        eng,
		voices:        reg,
		encoder:       enc,
		logger:        log.With(slog.String("component", "pipeline")),
		tracer:        otel.Tracer("github.com/purrlabs/purr-server/internal/pipeline"),
		requestsTotal: requestsTotal,
		chunksTotal:   chunksTotal,
		failuresTotal: failuresTotal,
		audioSeconds:  audioSeconds,
	}, nil
}

// Run executes the full pipeline: validate, segment, synthesize chunk by
// chunk, assemble, encode. Validation failures surface before any engine
// call; mid-pipeline failures abort the request with no partial payload.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("tts.voice", req.Voice),
			attribute.String("tts.format", string(req.Format)),
		))
	defer span.End()

	started := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if len(text) > p.cfg.MaxTotalChars {
		return nil, &TextTooLargeError{Length: len(text), Max: p.cfg.MaxTotalChars}
	}
	if req.Speed < MinSpeed || req.Speed > MaxSpeed {
		return nil, &InvalidSpeedError{Speed: req.Speed}
	}
	voiceID, err := p.voices.Resolve(req.Voice)
	if err != nil {
		return nil, err
	}

	chunks := Segment(text, p.cfg.MaxCharsPerChunk, p.cfg.ChunkingEnabled)
	span.SetAttributes(attribute.Int("tts.chunks", len(chunks)))

	synthesized, err := p.synthesizeAll(ctx, chunks, voiceID, req.Speed)
	if err != nil {
		p.failuresTotal.Add(ctx, 1)
		return nil, err
	}

	segments := make([][]float32, len(synthesized))
	for _, c := range synthesized {
		segments[c.index] = c.samples
	}
	rate := synthesized[0].rate
	samples := audio.Assemble(segments, rate, p.cfg.SilenceGapMS)

	payload, err := p.encoder.Encode(ctx, samples, rate, req.Format)
	if err != nil {
		p.failuresTotal.Add(ctx, 1)
		return nil, err
	}

	p.requestsTotal.Add(ctx, 1)
	p.audioSeconds.Add(ctx, float64(len(samples))/float64(rate))
	p.logger.Info("synthesis complete",
		slog.Int("chars", len(text)),
		slog.Int("chunks", len(chunks)),
		slog.Int("samples", len(samples)),
		slog.Duration("elapsed", time.Since(started)))

	return &Result{
		Payload:     payload,
		ContentType: req.Format.ContentType(),
		ChunkCount:  len(chunks),
		CharCount:   len(text),
	}, nil
}

// synthesizeAll invokes the engine once per chunk, strictly in index
// order. The first failure aborts with the failing chunk's index; chunks
// past it are never synthesized. Cancellation is observed between chunks
// only, so an in-flight engine call always runs to completion.
func (p *Pipeline) synthesizeAll(ctx context.Context, chunks []Chunk, voiceID string, speed float64) ([]synthesizedChunk, error) {
	out := make([]synthesizedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, &ChunkSynthesisError{Index: chunk.Index, Err: err}
		}

		chunkCtx, span := p.tracer.Start(ctx, "pipeline.synthesize_chunk",
			trace.WithAttributes(attribute.Int("tts.chunk_index", chunk.Index)))
		result, err := p.engine.Synthesize(context.WithoutCancel(chunkCtx), chunk.Content, voiceID, speed)
		span.End()
		if err != nil {
			return nil, &ChunkSynthesisError{Index: chunk.Index, Err: err}
		}
		p.chunksTotal.Add(chunkCtx, 1)

		if len(out) > 0 && result.SampleRate != out[0].rate {
			return nil, &InconsistentAudioFormatError{
				Index: chunk.Index,
				Got:   result.SampleRate,
				Want:  out[0].rate,
			}
		}
		out = append(out, synthesizedChunk{
			index:   chunk.Index,
			samples: result.Samples,
			rate:    result.SampleRate,
		})
	}
	return out, nil
}
