package stream

import (
	"testing"
	"time"
)

func TestNormalizedFillsDefaults(t *testing.T) {
	got := Config{Enabled: true}.normalized()
	want := DefaultConfig().normalized()
	want.Enabled = true
	want.Enhance = false
	want.FallbackPolicy = FallbackNone
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestNormalizedClamps(t *testing.T) {
	c := Config{
		Enabled:              true,
		Step:                 100 * time.Millisecond,
		Overlap:              10 * time.Second,
		MaxChunk:             time.Second,
		MinSpeech:            time.Minute,
		EndSilence:           5 * time.Second,
		MaxInFlight:          99,
		FailureRateThreshold: 3.0,
		BacklogThreshold:     time.Millisecond,
	}.normalized()

	if c.Step != time.Second {
		t.Errorf("Step = %v, want 1s", c.Step)
	}
	if c.Overlap != 3*time.Second {
		t.Errorf("Overlap = %v, want 3s", c.Overlap)
	}
	if c.MaxChunk != 2*time.Second {
		t.Errorf("MaxChunk = %v, want 2s", c.MaxChunk)
	}
	if c.MinSpeech != 10*time.Second {
		t.Errorf("MinSpeech = %v, want 10s", c.MinSpeech)
	}
	if c.EndSilence != 1500*time.Millisecond {
		t.Errorf("EndSilence = %v, want 1.5s", c.EndSilence)
	}
	if c.MaxInFlight != 4 {
		t.Errorf("MaxInFlight = %d, want 4", c.MaxInFlight)
	}
	if c.FailureRateThreshold != 1 {
		t.Errorf("FailureRateThreshold = %v, want 1", c.FailureRateThreshold)
	}
	if c.BacklogThreshold != time.Second {
		t.Errorf("BacklogThreshold = %v, want 1s", c.BacklogThreshold)
	}
}

func TestNormalizedKeepsValidValues(t *testing.T) {
	c := DefaultConfig()
	if got := c.normalized(); got != c {
		t.Errorf("defaults changed by normalization: got %+v, want %+v", got, c)
	}
}
