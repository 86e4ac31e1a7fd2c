package stream

import "time"

// FallbackPolicy selects what happens at finalize when chunked transcription
// has degraded (high failure rate, runaway backlog, or nothing committed).
type FallbackPolicy int

const (
	// FallbackNone keeps whatever the chunk pipeline committed.
	FallbackNone FallbackPolicy = iota
	// FallbackFullOnHighFailure re-transcribes the complete recording and
	// replaces the committed transcript when the pipeline degraded.
	FallbackFullOnHighFailure
)

// Config holds the per-session tuning knobs. Values outside their safe
// ranges are clamped at session construction, never rejected.
type Config struct {
	// Enabled gates the chunk scheduler. A disabled session still accepts
	// audio and can produce a result through the fallback path at finalize.
	Enabled bool

	Step       time.Duration // target interval between chunk boundaries [1s,30s]
	Overlap    time.Duration // audio shared between consecutive chunks [100ms,3s]
	MaxChunk   time.Duration // speech duration forcing a boundary [2s,60s]
	MinSpeech  time.Duration // minimum speech for a chunk to be worth sending [300ms,10s]
	EndSilence time.Duration // trailing silence that lifts the overlap holdback [120ms,1.5s]

	MaxInFlight int // concurrent transcription calls [1,4]

	// Enhance runs the audio cleanup chain (DC removal, high-pass,
	// loudness lift, limiter) on each chunk before it is encoded.
	Enhance bool

	FallbackPolicy       FallbackPolicy
	FailureRateThreshold float64       // failed/(failed+completed) ratio triggering fallback
	BacklogThreshold     time.Duration // recorded-minus-committed lag triggering fallback
}

// DefaultConfig returns the tuning the surrounding app ships with.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		Step:                 3 * time.Second,
		Overlap:              600 * time.Millisecond,
		MaxChunk:             20 * time.Second,
		MinSpeech:            600 * time.Millisecond,
		EndSilence:           400 * time.Millisecond,
		MaxInFlight:          2,
		Enhance:              true,
		FallbackPolicy:       FallbackFullOnHighFailure,
		FailureRateThreshold: 0.35,
		BacklogThreshold:     20 * time.Second,
	}
}

// normalized fills zero fields with defaults and clamps everything to its
// safe range.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Step == 0 {
		c.Step = d.Step
	}
	if c.Overlap == 0 {
		c.Overlap = d.Overlap
	}
	if c.MaxChunk == 0 {
		c.MaxChunk = d.MaxChunk
	}
	if c.MinSpeech == 0 {
		c.MinSpeech = d.MinSpeech
	}
	if c.EndSilence == 0 {
		c.EndSilence = d.EndSilence
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = d.MaxInFlight
	}
	if c.FailureRateThreshold == 0 {
		c.FailureRateThreshold = d.FailureRateThreshold
	}
	if c.BacklogThreshold == 0 {
		c.BacklogThreshold = d.BacklogThreshold
	}

	c.Step = clampDur(c.Step, time.Second, 30*time.Second)
	c.Overlap = clampDur(c.Overlap, 100*time.Millisecond, 3*time.Second)
	c.MaxChunk = clampDur(c.MaxChunk, 2*time.Second, 60*time.Second)
	c.MinSpeech = clampDur(c.MinSpeech, 300*time.Millisecond, 10*time.Second)
	c.EndSilence = clampDur(c.EndSilence, 120*time.Millisecond, 1500*time.Millisecond)
	if c.MaxInFlight < 1 {
		c.MaxInFlight = 1
	} else if c.MaxInFlight > 4 {
		c.MaxInFlight = 4
	}
	if c.FailureRateThreshold < 0 {
		c.FailureRateThreshold = d.FailureRateThreshold
	} else if c.FailureRateThreshold > 1 {
		c.FailureRateThreshold = 1
	}
	if c.BacklogThreshold < time.Second {
		c.BacklogThreshold = time.Second
	}
	return c
}

func clampDur(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
