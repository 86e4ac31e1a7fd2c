package stream

import "time"

// Status is the coarse pipeline state reported to observers.
type Status int

const (
	StatusOff Status = iota
	StatusOn
	StatusFallbackPending
	StatusFallbackUsed
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusOff:
		return "Off"
	case StatusOn:
		return "On"
	case StatusFallbackPending:
		return "Fallback Pending"
	case StatusFallbackUsed:
		return "Fallback Used"
	case StatusDone:
		return "Done"
	}
	return "Unknown"
}

// Snapshot is a point-in-time view of the session published after every
// state-changing event. Delivery is best-effort; snapshots are dropped
// rather than ever blocking the pipeline.
type Snapshot struct {
	Status           Status
	CompletedChunks  int
	QueueDepth       int
	LastChunkLatency time.Duration
}

// FinalResult is the immutable outcome of one recording session, produced
// exactly once by Finish or Cancel.
type FinalResult struct {
	Transcript       string
	DetectedLanguage string
	FallbackUsed     bool

	LowConfidenceMerges int
	ASRRequests         int
	CompletedChunks     int
	FailedChunks        int

	FirstChunkLatency time.Duration
	LastChunkLatency  time.Duration
	MaxBacklogSeconds float64
}

// chunkJob is an immutable work order for one overlapping audio slice.
// anchorEnd records the schedule position this chunk advances to; today it
// equals endSample but is tracked separately so reassembly bookkeeping does
// not depend on the slice bounds.
type chunkJob struct {
	id          int
	startSample int
	endSample   int
	anchorEnd   int
	createdAt   time.Time
}

// chunkResult is the outcome of transcribing one job. Empty text covers both
// true silence and a recorded failure; either way reassembly advances.
type chunkResult struct {
	id        int
	anchorEnd int
	text      string
	lang      string
	latency   time.Duration
}
