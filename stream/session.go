// Package stream implements the incremental live-transcription pipeline:
// it buffers a still-recording audio stream, cuts overlapping chunks,
// transcribes them with bounded concurrency, and reassembles the ordered
// results into a single growing transcript.
package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sigewinne-330/GhostType-sub002/encoder"
	"github.com/Sigewinne-330/GhostType-sub002/enhance"
	"github.com/Sigewinne-330/GhostType-sub002/log"
	"github.com/Sigewinne-330/GhostType-sub002/metrics"
	"github.com/Sigewinne-330/GhostType-sub002/transcriber"
	"github.com/Sigewinne-330/GhostType-sub002/vad"
)

const snapshotBuffer = 64

// Session owns the state of one recording. All mutable state lives behind
// one mutex; Append, Finish, Cancel and every job completion run as single
// critical sections against it, so the pipeline is effectively a
// single-writer actor. Transcription itself runs on goroutines bounded by
// Config.MaxInFlight.
type Session struct {
	cfg   Config
	chunk transcriber.ChunkTranscriber
	full  transcriber.FullTranscriber

	ctx       context.Context
	cancelCtx context.CancelFunc
	tmpDir    string

	mu  sync.Mutex
	buf *vad.Buffer

	lastAnchor      int // samples already covered by scheduled chunks
	committedAnchor int // samples represented in the committed transcript
	committedText   string
	committedLang   string

	queued       []chunkJob
	inFlight     int
	received     map[int]chunkResult
	nextChunkID  int
	nextExpected int

	completedChunks     int
	failedChunks        int
	asrRequests         int
	lowConfidenceMerges int
	firstChunkLatency   time.Duration
	lastChunkLatency    time.Duration
	maxBacklogSeconds   float64

	stopRequested    bool
	fallbackRequired bool
	canceled         bool
	finalized        bool
	final            FinalResult

	overlapSamples int

	drained     chan struct{}
	drainedOnce sync.Once
	finalOnce   sync.Once
	finalReady  chan struct{}

	snapshots  chan Snapshot
	snapClosed bool
}

// NewSession starts a live transcription session. chunk receives the
// overlapping chunk WAV files; full may be nil when no fallback backend is
// available. The session owns a temporary directory for chunk files and
// removes it at finalize.
func NewSession(cfg Config, chunk transcriber.ChunkTranscriber, full transcriber.FullTranscriber) (*Session, error) {
	tmpDir := filepath.Join(os.TempDir(), "ghosttype-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:        cfg.normalized(),
		chunk:      chunk,
		full:       full,
		ctx:        ctx,
		cancelCtx:  cancel,
		tmpDir:     tmpDir,
		buf:        vad.NewBuffer(),
		received:   make(map[int]chunkResult),
		drained:    make(chan struct{}),
		finalReady: make(chan struct{}),
		snapshots:  make(chan Snapshot, snapshotBuffer),
	}
	s.overlapSamples = samplesFor(s.cfg.Overlap)

	metrics.SessionsStarted.Inc()
	log.SessionStart(s.cfg.Step.Seconds(), s.cfg.Overlap.Seconds(), s.cfg.MaxInFlight)

	s.mu.Lock()
	s.notifyLocked()
	s.mu.Unlock()
	return s, nil
}

// Snapshots delivers runtime state after every state-changing event. The
// channel is buffered and never blocks the session; snapshots are dropped
// when the consumer lags. It is closed once the session finalizes.
func (s *Session) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Append feeds freshly recorded samples into the session. It never blocks
// on transcription and never fails; appends after Finish or Cancel are
// ignored.
func (s *Session) Append(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested || len(samples) == 0 {
		return
	}
	s.buf.Append(samples)
	s.schedule(false)
	s.pump()
	s.updateBacklogLocked()
	s.notifyLocked()
}

// Finish ends the recording: it cuts one final chunk, drains all queued and
// in-flight work, applies the fallback policy against the complete recording
// at fullAudioPath, and returns the final result. It blocks until the drain
// completes (or Cancel cuts it short) and is idempotent afterwards.
func (s *Session) Finish(fullAudioPath string) FinalResult {
	s.mu.Lock()
	if s.finalized {
		res := s.final
		s.mu.Unlock()
		return res
	}
	if !s.stopRequested {
		s.stopRequested = true
		s.schedule(true)
		s.pump()
		s.updateBacklogLocked()
		s.notifyLocked()
	}
	s.maybeSignalDrainLocked()
	s.mu.Unlock()

	<-s.drained

	s.finalOnce.Do(func() { s.finalize(fullAudioPath) })
	<-s.finalReady

	s.mu.Lock()
	res := s.final
	s.mu.Unlock()
	return res
}

// Cancel abandons the session immediately: queued chunks are discarded and
// in-flight transcriptions are not awaited (their results will be ignored,
// and the session context is cancelled so context-aware backends can abort).
// A pending Finish resolves right away with whatever has been committed,
// always with FallbackUsed=false.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.finalized || s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	s.stopRequested = true
	s.queued = nil
	s.mu.Unlock()

	s.cancelCtx()
	metrics.SessionsCancelled.Inc()
	s.drainedOnce.Do(func() { close(s.drained) })
	s.finalOnce.Do(func() { s.finalize("") })
}

// pump dispatches queued jobs while capacity allows. Once the fallback has
// been triggered the queue is discarded instead: every further chunk call
// would be wasted work. Called with the mutex held.
func (s *Session) pump() {
	if s.fallbackRequired && len(s.queued) > 0 {
		s.queued = nil
	}
	for s.inFlight < s.cfg.MaxInFlight && len(s.queued) > 0 {
		job := s.queued[0]
		s.queued = s.queued[1:]
		s.inFlight++
		s.asrRequests++
		metrics.ASRRequests.Inc()
		samples := s.buf.Range(job.startSample, job.endSample)
		go s.runJob(job, samples)
	}
}

func (s *Session) runJob(job chunkJob, samples []int16) {
	res, err := s.transcribeChunk(job, samples)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	if s.finalized || s.canceled {
		// Late result after cancel: drop it.
		s.maybeSignalDrainLocked()
		return
	}

	cr := chunkResult{id: job.id, anchorEnd: job.anchorEnd, latency: time.Since(job.createdAt)}
	if err != nil {
		s.failedChunks++
		metrics.ChunksFailed.Inc()
		log.ChunkFailed(job.id, cr.latency, err)
	} else {
		s.completedChunks++
		metrics.ChunksCompleted.Inc()
		cr.text = strings.TrimSpace(res.Text)
		cr.lang = res.Language
	}
	if s.firstChunkLatency == 0 {
		s.firstChunkLatency = cr.latency
	}
	s.lastChunkLatency = cr.latency
	metrics.ChunkLatency.Observe(cr.latency.Seconds())

	s.received[job.id] = cr
	s.drainResultsLocked()
	s.checkFailureRateLocked()
	s.updateBacklogLocked()
	s.pump()
	s.notifyLocked()
	s.maybeSignalDrainLocked()
}

// transcribeChunk runs outside the mutex: it encodes the chunk to a WAV
// file, hands it to the backend, and removes the file whatever the outcome.
func (s *Session) transcribeChunk(job chunkJob, samples []int16) (*transcriber.Result, error) {
	if s.cfg.Enhance {
		samples = enhance.Process(samples, enhance.DefaultConfig())
	}
	path := filepath.Join(s.tmpDir, fmt.Sprintf("chunk_%04d.wav", job.id))
	if err := encoder.WriteWAVFile(path, samples); err != nil {
		return nil, err
	}
	defer os.Remove(path)
	return s.chunk.TranscribeChunk(s.ctx, path)
}

// drainResultsLocked merges buffered results into the committed transcript
// in strict chunk-id order. Results that arrived early wait in the map until
// every lower id has been merged.
func (s *Session) drainResultsLocked() {
	for {
		cr, ok := s.received[s.nextExpected]
		if !ok {
			return
		}
		delete(s.received, s.nextExpected)
		s.nextExpected++

		if cr.text != "" {
			if s.committedText == "" {
				s.committedText = cr.text
			} else {
				merged, aligned := mergeTranscript(s.committedText, cr.text)
				s.committedText = merged
				if !aligned {
					s.lowConfidenceMerges++
					metrics.LowConfidenceMerges.Inc()
				}
			}
		}
		if cr.anchorEnd > s.committedAnchor {
			s.committedAnchor = cr.anchorEnd
		}
		if s.committedLang == "" && cr.lang != "" {
			s.committedLang = cr.lang
		}
	}
}

func (s *Session) checkFailureRateLocked() {
	total := s.completedChunks + s.failedChunks
	if total == 0 {
		return
	}
	rate := float64(s.failedChunks) / float64(total)
	if rate >= s.cfg.FailureRateThreshold {
		s.setFallbackRequiredLocked("failure_rate")
	}
}

func (s *Session) updateBacklogLocked() {
	lag := durationFor(s.buf.Len() - s.committedAnchor).Seconds()
	metrics.BacklogSeconds.Set(lag)
	if lag > s.maxBacklogSeconds {
		s.maxBacklogSeconds = lag
	}
	if s.maxBacklogSeconds >= s.cfg.BacklogThreshold.Seconds() {
		s.setFallbackRequiredLocked("backlog")
	}
}

// setFallbackRequiredLocked is sticky: once the session has degraded it
// stays degraded until finalize. With FallbackNone there is nothing to
// degrade to, so the trigger is ignored and chunking continues.
func (s *Session) setFallbackRequiredLocked(reason string) {
	if s.fallbackRequired || s.cfg.FallbackPolicy == FallbackNone {
		return
	}
	s.fallbackRequired = true
	metrics.FallbacksTriggered.Inc()
	log.FallbackTriggered(reason, s.failedChunks, s.completedChunks, s.maxBacklogSeconds)
}

func (s *Session) maybeSignalDrainLocked() {
	if s.stopRequested && s.inFlight == 0 && len(s.queued) == 0 {
		s.drainedOnce.Do(func() { close(s.drained) })
	}
}

// finalize computes the final result exactly once. The fallback call runs
// without the mutex held since it may block on a network or model call.
func (s *Session) finalize(fullAudioPath string) {
	defer close(s.finalReady)

	s.mu.Lock()
	transcript := s.committedText
	lang := s.committedLang
	useFallback := !s.canceled &&
		s.cfg.FallbackPolicy == FallbackFullOnHighFailure &&
		s.full != nil &&
		fullAudioPath != "" &&
		(s.fallbackRequired || strings.TrimSpace(transcript) == "")
	if useFallback {
		s.fallbackRequired = true
	}
	s.mu.Unlock()

	fallbackUsed := false
	if useFallback {
		s.publishSnapshot(StatusFallbackPending)
		res, err := s.full.TranscribeFull(s.ctx, fullAudioPath)
		s.mu.Lock()
		s.asrRequests++
		s.mu.Unlock()
		metrics.ASRRequests.Inc()
		if err != nil {
			log.FallbackError(err)
		} else {
			transcript = res.Text
			if res.Language != "" {
				lang = res.Language
			}
			fallbackUsed = true
			metrics.FallbacksUsed.Inc()
		}
	}

	s.cancelCtx()
	if err := os.RemoveAll(s.tmpDir); err != nil {
		log.Warnf("chunk directory cleanup: %v", err)
	}

	s.mu.Lock()
	s.finalized = true
	s.final = FinalResult{
		Transcript:          strings.TrimSpace(transcript),
		DetectedLanguage:    lang,
		FallbackUsed:        fallbackUsed,
		LowConfidenceMerges: s.lowConfidenceMerges,
		ASRRequests:         s.asrRequests,
		CompletedChunks:     s.completedChunks,
		FailedChunks:        s.failedChunks,
		FirstChunkLatency:   s.firstChunkLatency,
		LastChunkLatency:    s.lastChunkLatency,
		MaxBacklogSeconds:   s.maxBacklogSeconds,
	}
	s.notifyLocked()
	s.snapClosed = true
	close(s.snapshots)
	final := s.final
	wasCanceled := s.canceled
	s.mu.Unlock()

	if !wasCanceled {
		metrics.SessionsFinalized.Inc()
	}
	log.SessionEnd(final.CompletedChunks, final.FailedChunks, final.ASRRequests,
		final.LowConfidenceMerges, final.FallbackUsed, final.MaxBacklogSeconds)
	if final.Transcript != "" {
		log.TranscriptionText(final.Transcript)
	}
}

func (s *Session) statusLocked() Status {
	switch {
	case !s.cfg.Enabled && !s.finalized:
		return StatusOff
	case s.finalized && s.final.FallbackUsed:
		return StatusFallbackUsed
	case s.finalized:
		return StatusDone
	case s.fallbackRequired:
		return StatusFallbackPending
	default:
		return StatusOn
	}
}

func (s *Session) notifyLocked() {
	if s.snapClosed {
		return
	}
	metrics.QueueDepth.Set(float64(len(s.queued)))
	snap := Snapshot{
		Status:           s.statusLocked(),
		CompletedChunks:  s.completedChunks,
		QueueDepth:       len(s.queued),
		LastChunkLatency: s.lastChunkLatency,
	}
	select {
	case s.snapshots <- snap:
	default:
	}
}

func (s *Session) publishSnapshot(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapClosed {
		return
	}
	snap := Snapshot{
		Status:           status,
		CompletedChunks:  s.completedChunks,
		QueueDepth:       len(s.queued),
		LastChunkLatency: s.lastChunkLatency,
	}
	select {
	case s.snapshots <- snap:
	default:
	}
}
