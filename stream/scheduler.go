package stream

import (
	"time"

	"github.com/Sigewinne-330/GhostType-sub002/encoder"
	"github.com/Sigewinne-330/GhostType-sub002/metrics"
)

func samplesFor(d time.Duration) int {
	return int(d * encoder.SampleRate / time.Second)
}

func durationFor(samples int) time.Duration {
	return time.Duration(samples) * time.Second / encoder.SampleRate
}

// schedule decides whether a new chunk boundary is due and, if so, enqueues
// the job and advances the anchor. Called with the session mutex held, after
// every append and once (forced) at finish.
func (s *Session) schedule(forced bool) {
	if !s.cfg.Enabled {
		return
	}

	total := s.buf.Len()

	// Hold back one overlap's worth of samples so the next chunk never cuts
	// mid-word. Once trailing silence has lasted EndSilence the speech has
	// clearly ended and cutting at the live edge is safe. A forced boundary
	// (finish) always takes everything.
	availableEnd := total
	if !forced && s.buf.TrailingSilence() < s.cfg.EndSilence {
		availableEnd = total - s.overlapSamples
	}
	if availableEnd <= s.lastAnchor {
		return
	}

	if !forced {
		sinceAnchor := durationFor(total - s.lastAnchor)
		speech := s.buf.SpeechDuration(s.lastAnchor, availableEnd)
		if sinceAnchor < s.cfg.Step && speech < s.cfg.MaxChunk {
			return
		}
	}

	start := s.lastAnchor - s.overlapSamples
	if start < 0 {
		start = 0
	}

	// Near-silent spans are not worth a transcription call. The forced
	// final boundary skips the MinSpeech bar but still drops a residue
	// that holds no speech at all.
	speechInSpan := s.buf.SpeechDuration(start, availableEnd)
	if !forced && speechInSpan < s.cfg.MinSpeech {
		return
	}
	if forced && speechInSpan == 0 {
		s.lastAnchor = availableEnd
		return
	}

	job := chunkJob{
		id:          s.nextChunkID,
		startSample: start,
		endSample:   availableEnd,
		anchorEnd:   availableEnd,
		createdAt:   time.Now(),
	}
	s.nextChunkID++
	s.queued = append(s.queued, job)
	s.lastAnchor = availableEnd
	metrics.ChunksScheduled.Inc()
}
