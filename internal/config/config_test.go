package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8001 {
		t.Fatalf("expected default port 8001, got %d", cfg.HTTP.Port)
	}
	if cfg.Pipeline.MaxCharsPerChunk != 1200 {
		t.Fatalf("expected default chunk size 1200, got %d", cfg.Pipeline.MaxCharsPerChunk)
	}
	if !cfg.Pipeline.ChunkingEnabled {
		t.Fatal("expected chunking enabled by default")
	}
	if cfg.Engine.Mode != "mock" {
		t.Fatalf("expected default engine mode mock, got %q", cfg.Engine.Mode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PURR_HTTP_PORT", "9001")
	t.Setenv("PURR_ENGINE_MODE", "exec")
	t.Setenv("PURR_ENGINE_COMMAND", "purr-model --stream")
	t.Setenv("PURR_ENGINE_SAMPLE_RATE", "24000")
	t.Setenv("PURR_PIPELINE_MAX_TOTAL_CHARS", "8000")
	t.Setenv("PURR_PIPELINE_MAX_CHARS_PER_CHUNK", "900")
	t.Setenv("PURR_PIPELINE_CHUNKING_ENABLED", "false")
	t.Setenv("PURR_PIPELINE_SILENCE_GAP_MS", "200")
	t.Setenv("PURR_NOTIFY_ENABLED", "true")
	t.Setenv("PURR_NOTIFY_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("PURR_HISTORY_RETENTION_MODE", "persistent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9001 {
		t.Fatalf("expected port override, got %d", cfg.HTTP.Port)
	}
	if cfg.Engine.Mode != "exec" || cfg.Engine.Command != "purr-model --stream" {
		t.Fatalf("expected engine override, got %q %q", cfg.Engine.Mode, cfg.Engine.Command)
	}
	if cfg.Engine.SampleRate != 24000 {
		t.Fatalf("expected sample rate override, got %d", cfg.Engine.SampleRate)
	}
	if cfg.Pipeline.MaxTotalChars != 8000 || cfg.Pipeline.MaxCharsPerChunk != 900 {
		t.Fatalf("expected pipeline overrides, got %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ChunkingEnabled {
		t.Fatal("expected chunking disabled override")
	}
	if cfg.Pipeline.SilenceGapMS != 200 {
		t.Fatalf("expected silence gap override, got %d", cfg.Pipeline.SilenceGapMS)
	}
	if len(cfg.Notify.Servers) != 2 {
		t.Fatalf("expected 2 notify servers, got %v", cfg.Notify.Servers)
	}
	if cfg.History.RetentionMode != "persistent" {
		t.Fatalf("expected retention override, got %q", cfg.History.RetentionMode)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"exec without command", func(c *Config) { c.Engine.Mode = "exec"; c.Engine.Command = "" }},
		{"bad engine mode", func(c *Config) { c.Engine.Mode = "gpu" }},
		{"bad log level", func(c *Config) { c.Telemetry.LogLevel = "verbose" }},
		{"zero sample rate", func(c *Config) { c.Engine.SampleRate = 0 }},
		{"chunk larger than total", func(c *Config) { c.Pipeline.MaxCharsPerChunk = 5000 }},
		{"negative silence gap", func(c *Config) { c.Pipeline.SilenceGapMS = -1 }},
		{"bad retention mode", func(c *Config) { c.History.RetentionMode = "forever" }},
		{"notify without servers", func(c *Config) { c.Notify.Enabled = true; c.Notify.Servers = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSlogLevelMapping(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got := TelemetryConfig{LogLevel: tc.level}.SlogLevel()
		if got != tc.want {
			t.Fatalf("level %q: expected %v, got %v", tc.level, tc.want, got)
		}
	}
}
