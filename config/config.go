// Package config loads the YAML settings file and maps it onto the pipeline
// and backend configuration types. A missing file yields the defaults; a
// malformed one is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sigewinne-330/GhostType-sub002/stream"
)

// Settings is the on-disk configuration.
type Settings struct {
	Live        LiveConfig        `yaml:"live_transcription"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
}

// LiveConfig tunes the incremental chunking pipeline. Durations are seconds;
// zero values fall back to the built-in defaults and out-of-range values are
// clamped rather than rejected.
type LiveConfig struct {
	Enabled              *bool   `yaml:"enabled"`
	StepSeconds          float64 `yaml:"step_seconds"`
	OverlapSeconds       float64 `yaml:"overlap_seconds"`
	MaxChunkSeconds      float64 `yaml:"max_chunk_seconds"`
	MinSpeechSeconds     float64 `yaml:"min_speech_seconds"`
	EndSilenceSeconds    float64 `yaml:"end_silence_seconds"`
	MaxInFlight          int     `yaml:"max_in_flight"`
	Enhance              *bool   `yaml:"enhance"`
	Fallback             string  `yaml:"fallback"` // "full_on_high_failure" or "none"
	FailureRateThreshold float64 `yaml:"failure_rate_threshold"`
	BacklogSeconds       float64 `yaml:"backlog_seconds"`
}

// TranscriberConfig selects and configures the speech backend.
type TranscriberConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Default returns the settings used when no config file exists.
func Default() Settings {
	return Settings{
		Transcriber: TranscriberConfig{
			APIKeyEnv: "GHOSTTYPE_API_KEY",
		},
	}
}

// Load reads the settings from path. A missing file is not an error: the
// defaults are returned so a fresh install works without any setup.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// StreamConfig maps the live section onto the pipeline configuration.
// Chunking is on unless the file says otherwise.
func (s Settings) StreamConfig() stream.Config {
	c := stream.Config{
		Enabled:              true,
		Step:                 seconds(s.Live.StepSeconds),
		Overlap:              seconds(s.Live.OverlapSeconds),
		MaxChunk:             seconds(s.Live.MaxChunkSeconds),
		MinSpeech:            seconds(s.Live.MinSpeechSeconds),
		EndSilence:           seconds(s.Live.EndSilenceSeconds),
		MaxInFlight:          s.Live.MaxInFlight,
		Enhance:              true,
		FallbackPolicy:       stream.FallbackFullOnHighFailure,
		FailureRateThreshold: s.Live.FailureRateThreshold,
		BacklogThreshold:     seconds(s.Live.BacklogSeconds),
	}
	if s.Live.Enabled != nil {
		c.Enabled = *s.Live.Enabled
	}
	if s.Live.Enhance != nil {
		c.Enhance = *s.Live.Enhance
	}
	if s.Live.Fallback == "none" {
		c.FallbackPolicy = stream.FallbackNone
	}
	return c
}

// ResolveAPIKey returns the inline key if set, otherwise the value of the
// configured environment variable.
func (t TranscriberConfig) ResolveAPIKey() string {
	if t.APIKey != "" {
		return t.APIKey
	}
	if t.APIKeyEnv != "" {
		return os.Getenv(t.APIKeyEnv)
	}
	return ""
}

// Timeout returns the backend timeout, or zero when unset so the backend's
// own default applies.
func (t TranscriberConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
