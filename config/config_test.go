package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sigewinne-330/GhostType-sub002/stream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if s.Transcriber.APIKeyEnv != "GHOSTTYPE_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want default", s.Transcriber.APIKeyEnv)
	}
	c := s.StreamConfig()
	if !c.Enabled {
		t.Error("chunking disabled by default")
	}
	if c.FallbackPolicy != stream.FallbackFullOnHighFailure {
		t.Errorf("FallbackPolicy = %v, want full_on_high_failure", c.FallbackPolicy)
	}
	if !c.Enhance {
		t.Error("enhancement disabled by default")
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
live_transcription:
  enabled: false
  enhance: false
  step_seconds: 2.5
  overlap_seconds: 0.5
  max_in_flight: 3
  fallback: none
  failure_rate_threshold: 0.5
  backlog_seconds: 15
transcriber:
  endpoint: https://api.example.com/v1/audio/transcriptions
  api_key: sk-test
  model: whisper-1
  language: de
  timeout_seconds: 10
  max_retries: 1
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	c := s.StreamConfig()
	if c.Enabled {
		t.Error("enabled: false not honored")
	}
	if c.Enhance {
		t.Error("enhance: false not honored")
	}
	if c.Step != 2500*time.Millisecond {
		t.Errorf("Step = %v, want 2.5s", c.Step)
	}
	if c.Overlap != 500*time.Millisecond {
		t.Errorf("Overlap = %v, want 500ms", c.Overlap)
	}
	if c.MaxInFlight != 3 {
		t.Errorf("MaxInFlight = %d, want 3", c.MaxInFlight)
	}
	if c.FallbackPolicy != stream.FallbackNone {
		t.Errorf("FallbackPolicy = %v, want none", c.FallbackPolicy)
	}
	if c.FailureRateThreshold != 0.5 {
		t.Errorf("FailureRateThreshold = %v, want 0.5", c.FailureRateThreshold)
	}
	if c.BacklogThreshold != 15*time.Second {
		t.Errorf("BacklogThreshold = %v, want 15s", c.BacklogThreshold)
	}

	if s.Transcriber.Endpoint != "https://api.example.com/v1/audio/transcriptions" {
		t.Errorf("Endpoint = %q", s.Transcriber.Endpoint)
	}
	if got := s.Transcriber.ResolveAPIKey(); got != "sk-test" {
		t.Errorf("ResolveAPIKey = %q, want sk-test", got)
	}
	if s.Transcriber.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", s.Transcriber.Timeout())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "live_transcription: [not a map]")
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestResolveAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GHOSTTYPE_TEST_KEY", "sk-env")
	tc := TranscriberConfig{APIKeyEnv: "GHOSTTYPE_TEST_KEY"}
	if got := tc.ResolveAPIKey(); got != "sk-env" {
		t.Errorf("ResolveAPIKey = %q, want sk-env", got)
	}
	tc.APIKey = "sk-inline"
	if got := tc.ResolveAPIKey(); got != "sk-inline" {
		t.Errorf("inline key should win, got %q", got)
	}
}

func TestZeroFieldsMapToZeroDurations(t *testing.T) {
	c := Default().StreamConfig()
	if c.Step != 0 || c.Overlap != 0 || c.MaxInFlight != 0 {
		t.Errorf("unset fields should stay zero for downstream defaulting, got %+v", c)
	}
}
