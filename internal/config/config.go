package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

// SlogLevel maps the configured log level onto a slog level.
func (t TelemetryConfig) SlogLevel() slog.Level {
	switch strings.ToLower(t.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// EngineConfig selects and parameterizes the synthesis engine backend.
type EngineConfig struct {
	Mode         string `yaml:"mode"` // mock, exec
	Command      string `yaml:"command"`
	SampleRate   int    `yaml:"sample_rate"`
	DefaultVoice string `yaml:"default_voice"`
}

// PipelineConfig bounds the chunked synthesis pipeline. It is handed to
// each pipeline invocation as an immutable value.
type PipelineConfig struct {
	MaxTotalChars    int  `yaml:"max_total_chars"`
	MaxCharsPerChunk int  `yaml:"max_chars_per_chunk"`
	ChunkingEnabled  bool `yaml:"chunking_enabled"`
	SilenceGapMS     int  `yaml:"silence_gap_ms"`
}

type EncoderConfig struct {
	MP3Command string `yaml:"mp3_command"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRequests   int    `yaml:"max_requests"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type NotifyConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type Config struct {
	ServiceName string            `yaml:"service_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Engine      EngineConfig      `yaml:"engine"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Encoder     EncoderConfig     `yaml:"encoder"`
	Voices      map[string]string `yaml:"voices"`
	History     HistoryConfig     `yaml:"history"`
	Notify      NotifyConfig      `yaml:"notify"`
}

func Default() Config {
	return Config{
		ServiceName: "purrd",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8001,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Engine: EngineConfig{
			Mode:         "mock",
			SampleRate:   22050,
			DefaultVoice: "alloy",
		},
		Pipeline: PipelineConfig{
			MaxTotalChars:    4000,
			MaxCharsPerChunk: 1200,
			ChunkingEnabled:  true,
			SilenceGapMS:     120,
		},
		History: HistoryConfig{
			Path:          "./data/purr-history.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxRequests:   10000,
		},
		Notify: NotifyConfig{
			Enabled:        false,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "PURR_SERVICE_NAME")
	overrideString(&cfg.Environment, "PURR_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "PURR_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "PURR_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "PURR_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PURR_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PURR_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Engine.Mode, "PURR_ENGINE_MODE")
	overrideString(&cfg.Engine.Command, "PURR_ENGINE_COMMAND")
	overrideInt(&cfg.Engine.SampleRate, "PURR_ENGINE_SAMPLE_RATE")
	overrideString(&cfg.Engine.DefaultVoice, "PURR_ENGINE_DEFAULT_VOICE")
	overrideInt(&cfg.Pipeline.MaxTotalChars, "PURR_PIPELINE_MAX_TOTAL_CHARS")
	overrideInt(&cfg.Pipeline.MaxCharsPerChunk, "PURR_PIPELINE_MAX_CHARS_PER_CHUNK")
	overrideBool(&cfg.Pipeline.ChunkingEnabled, "PURR_PIPELINE_CHUNKING_ENABLED")
	overrideInt(&cfg.Pipeline.SilenceGapMS, "PURR_PIPELINE_SILENCE_GAP_MS")
	overrideString(&cfg.Encoder.MP3Command, "PURR_ENCODER_MP3_COMMAND")
	overrideString(&cfg.History.Path, "PURR_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "PURR_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "PURR_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxRequests, "PURR_HISTORY_MAX_REQUESTS")
	overrideBool(&cfg.History.VacuumOnStart, "PURR_HISTORY_VACUUM_ON_START")
	overrideBool(&cfg.Notify.Enabled, "PURR_NOTIFY_ENABLED")
	overrideStringSlice(&cfg.Notify.Servers, "PURR_NOTIFY_SERVERS")
	overrideString(&cfg.Notify.Username, "PURR_NOTIFY_USERNAME")
	overrideString(&cfg.Notify.Password, "PURR_NOTIFY_PASSWORD")
	overrideString(&cfg.Notify.Token, "PURR_NOTIFY_TOKEN")
	overrideBool(&cfg.Notify.TLSInsecure, "PURR_NOTIFY_TLS_INSECURE")
	overrideInt(&cfg.Notify.ConnectTimeout, "PURR_NOTIFY_CONNECT_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	switch strings.ToLower(cfg.Telemetry.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("telemetry.log_level must be one of debug|info|warn|error")
	}
	switch cfg.Engine.Mode {
	case "mock", "exec":
	default:
		return errors.New("engine.mode must be one of mock|exec")
	}
	if cfg.Engine.Mode == "exec" && cfg.Engine.Command == "" {
		return errors.New("engine.command must be set when mode=exec")
	}
	if cfg.Engine.SampleRate <= 0 {
		return errors.New("engine.sample_rate must be positive")
	}
	if cfg.Engine.DefaultVoice == "" {
		return errors.New("engine.default_voice must not be empty")
	}
	if cfg.Pipeline.MaxTotalChars <= 0 {
		return errors.New("pipeline.max_total_chars must be positive")
	}
	if cfg.Pipeline.MaxCharsPerChunk <= 0 {
		return errors.New("pipeline.max_chars_per_chunk must be positive")
	}
	if cfg.Pipeline.MaxCharsPerChunk > cfg.Pipeline.MaxTotalChars {
		return errors.New("pipeline.max_chars_per_chunk must not exceed max_total_chars")
	}
	if cfg.Pipeline.SilenceGapMS < 0 {
		return errors.New("pipeline.silence_gap_ms must be >= 0")
	}
	if cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	if cfg.Notify.Enabled && len(cfg.Notify.Servers) == 0 {
		return errors.New("notify.servers must not be empty when notify is enabled")
	}
	return nil
}
