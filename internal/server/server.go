package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/purrlabs/purr-server/internal/audio"
	"github.com/purrlabs/purr-server/internal/history"
	"github.com/purrlabs/purr-server/internal/notify"
	"github.com/purrlabs/purr-server/internal/pipeline"
	"github.com/purrlabs/purr-server/internal/protocol"
	"github.com/purrlabs/purr-server/internal/voices"
)

// Server exposes the synthesis pipeline over an OpenAI-compatible HTTP
// surface.
type Server struct {
	pipeline     *pipeline.Pipeline
	voices       *voices.Registry
	store        *history.Store
	notifier     *notify.Notifier
	defaultVoice string
	logger       *slog.Logger
}

func New(p *pipeline.Pipeline, reg *voices.Registry, store *history.Store, notifier *notify.Notifier, defaultVoice string, log *slog.Logger) *Server {
	return &Server{
		pipeline:     p,
		voices:       reg,
		store:        store,
		notifier:     notifier,
		defaultVoice: defaultVoice,
		logger:       log.With(slog.String("component", "server")),
	}
}

// Register installs the API routes on a mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/audio/speech", s.handleSpeech)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /v1/audio/voices", s.handleVoices)
	mux.HandleFunc("GET /v1/audio/history", s.handleHistory)
}

type speechRequest struct {
	Model          string   `json:"model"`
	Input          string   `json:"input"`
	Voice          string   `json:"voice"`
	ResponseFormat string   `json:"response_format"`
	Speed          *float64 `json:"speed"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	started := time.Now()

	var req speechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Voice == "" {
		req.Voice = s.defaultVoice
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = "wav"
	}
	// Only an absent speed gets the default; an explicit 0 must fail
	// validation downstream.
	speed := 1.0
	if req.Speed != nil {
		speed = *req.Speed
	}

	format, err := audio.ParseFormat(req.ResponseFormat)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.Run(r.Context(), pipeline.Request{
		Text:   req.Input,
		Voice:  req.Voice,
		Speed:  speed,
		Format: format,
	})
	if err != nil {
		status := statusForError(err)
		s.logger.Warn("synthesis request failed",
			slog.String("request_id", requestID),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		s.recordFailure(r, requestID, req, err)
		s.writeError(w, status, err.Error())
		return
	}

	elapsed := time.Since(started)
	s.recordSuccess(r, requestID, req, result, elapsed)

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Payload)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=speech.%s", format))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Chunks-Processed", strconv.Itoa(result.ChunkCount))
	w.Header().Set("X-Text-Length", strconv.Itoa(result.CharCount))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Payload)
}

func statusForError(err error) int {
	var (
		tooLarge     *pipeline.TextTooLargeError
		badSpeed     *pipeline.InvalidSpeedError
		unknownVoice *voices.UnknownVoiceError
		unsupported  *audio.UnsupportedFormatError
	)
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput),
		errors.As(err, &tooLarge),
		errors.As(err, &badSpeed),
		errors.As(err, &unknownVoice):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) recordSuccess(r *http.Request, requestID string, req speechRequest, result *pipeline.Result, elapsed time.Duration) {
	if s.store != nil {
		err := s.store.Append(r.Context(), history.Record{
			ID:         requestID,
			Voice:      req.Voice,
			Format:     req.ResponseFormat,
			CharCount:  result.CharCount,
			ChunkCount: result.ChunkCount,
			DurationMS: elapsed.Milliseconds(),
			Status:     "ok",
		})
		if err != nil {
			s.logger.Warn("failed to record request", slog.String("error", err.Error()))
		}
	}
	s.notifier.Completed(protocol.SynthesisCompleted{
		RequestID:  requestID,
		Voice:      req.Voice,
		Format:     req.ResponseFormat,
		CharCount:  result.CharCount,
		ChunkCount: result.ChunkCount,
		DurationMS: elapsed.Milliseconds(),
	})
}

func (s *Server) recordFailure(r *http.Request, requestID string, req speechRequest, cause error) {
	if s.store != nil {
		err := s.store.Append(r.Context(), history.Record{
			ID:     requestID,
			Voice:  req.Voice,
			Format: req.ResponseFormat,
			Status: "error",
			Error:  cause.Error(),
		})
		if err != nil {
			s.logger.Warn("failed to record request", slog.String("error", err.Error()))
		}
	}
	s.notifier.Failed(protocol.SynthesisFailed{
		RequestID: requestID,
		Voice:     req.Voice,
		Reason:    cause.Error(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type model struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Created int64  `json:"created"`
		OwnedBy string `json:"owned_by"`
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []model{
			{ID: "tts-1", Object: "model", Created: 1677610602, OwnedBy: "purrlabs"},
			{ID: "tts-1-hd", Object: "model", Created: 1677610602, OwnedBy: "purrlabs"},
		},
	})
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	names := s.voices.Names()
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": map[string]any{
			"voices":        names,
			"voice_mapping": s.voices.Mapping(),
			"total_voices":  len(names),
		},
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	var records []history.Record
	var err error
	if s.store != nil {
		records, err = s.store.List(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list history: %v", err))
		return
	}
	type entry struct {
		ID         string    `json:"id"`
		Voice      string    `json:"voice"`
		Format     string    `json:"format"`
		CharCount  int       `json:"char_count"`
		ChunkCount int       `json:"chunk_count"`
		DurationMS int64     `json:"duration_ms"`
		Status     string    `json:"status"`
		Error      string    `json:"error,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}
	entries := make([]entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, entry{
			ID: rec.ID, Voice: rec.Voice, Format: rec.Format,
			CharCount: rec.CharCount, ChunkCount: rec.ChunkCount,
			DurationMS: rec.DurationMS, Status: rec.Status, Error: rec.Error,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   entries,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
