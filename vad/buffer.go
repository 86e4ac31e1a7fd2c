// Package vad accumulates the live PCM stream and classifies it into
// speech/silence frames using RMS and peak level gates.
package vad

import (
	"math"
	"time"

	"github.com/Sigewinne-330/GhostType-sub002/encoder"
)

const (
	FrameMs      = 20
	FrameSamples = encoder.SampleRate * FrameMs / 1000 // 320

	rmsGateDBFS  = -52.0
	peakGateDBFS = -42.0
	levelFloor   = 1e-7
)

// Buffer holds the append-only sample stream for one recording session plus
// one speech/silence flag per completed 20 ms frame. It is not safe for
// concurrent use; the owning session serializes all access.
type Buffer struct {
	samples []int16
	frames  []bool
}

func NewBuffer() *Buffer {
	return &Buffer{
		samples: make([]int16, 0, encoder.SampleRate*2),
	}
}

// Append adds a batch of samples and classifies every newly completed frame.
// Trailing samples short of a full frame stay pending until the next batch.
func (b *Buffer) Append(samples []int16) {
	b.samples = append(b.samples, samples...)
	for len(b.samples)-len(b.frames)*FrameSamples >= FrameSamples {
		start := len(b.frames) * FrameSamples
		b.frames = append(b.frames, classifyFrame(b.samples[start:start+FrameSamples]))
	}
}

func classifyFrame(frame []int16) bool {
	var sumSq float64
	var peak float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	rms := math.Sqrt(sumSq / float64(len(frame)))
	return dbfs(rms) >= rmsGateDBFS || dbfs(peak) >= peakGateDBFS
}

func dbfs(level float64) float64 {
	return 20 * math.Log10(math.Max(level, levelFloor))
}

// Len returns the total number of samples appended so far.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Duration returns the recorded length of the stream.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(len(b.samples)) * time.Second / encoder.SampleRate
}

// Frames returns the number of classified frames.
func (b *Buffer) Frames() int {
	return len(b.frames)
}

// TrailingSilence measures how long the stream has been silent, counting
// consecutive non-speech frames back from the newest classified frame.
func (b *Buffer) TrailingSilence() time.Duration {
	n := 0
	for i := len(b.frames) - 1; i >= 0 && !b.frames[i]; i-- {
		n++
	}
	return time.Duration(n) * FrameMs * time.Millisecond
}

// SpeechDuration sums the speech frames fully contained in [from, to).
func (b *Buffer) SpeechDuration(from, to int) time.Duration {
	if from < 0 {
		from = 0
	}
	n := 0
	for i := range b.frames {
		start := i * FrameSamples
		if start < from {
			continue
		}
		if start+FrameSamples > to {
			break
		}
		if b.frames[i] {
			n++
		}
	}
	return time.Duration(n) * FrameMs * time.Millisecond
}

// Range returns a copy of the samples in [from, to), clamped to the stream.
func (b *Buffer) Range(from, to int) []int16 {
	if from < 0 {
		from = 0
	}
	if to > len(b.samples) {
		to = len(b.samples)
	}
	if from >= to {
		return nil
	}
	out := make([]int16, to-from)
	copy(out, b.samples[from:to])
	return out
}
