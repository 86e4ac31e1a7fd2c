// Package enhance cleans up chunk audio before it is handed to a
// transcription backend: DC offset removal, a one-pole high-pass filter,
// loudness normalization toward a target RMS level, and a peak limiter.
// This is the dependency-light fast path; model-based noise suppression is
// a separate concern and not part of this chain.
package enhance

import (
	"math"

	"github.com/Sigewinne-330/GhostType-sub002/encoder"
)

const levelFloor = 1e-7

// Config tunes the enhancement chain. Zero values disable the respective
// stage only where noted; use DefaultConfig for the shipped tuning.
type Config struct {
	HighPassCutoffHz float64 // 0 disables the filter
	TargetRMSDBFS    float64
	MaxGainDB        float64
	LimiterThreshold float64 // clamped to [0.6, 0.999]
	LimiterAttackMS  float64
	LimiterReleaseMS float64
}

func DefaultConfig() Config {
	return Config{
		HighPassCutoffHz: 80,
		TargetRMSDBFS:    -24,
		MaxGainDB:        18,
		LimiterThreshold: 0.98,
		LimiterAttackMS:  5,
		LimiterReleaseMS: 50,
	}
}

// Process runs the chain over one chunk of 16 kHz PCM16 samples and
// returns a new slice; the input is left untouched. Gain is only ever
// applied upward (quiet speech is lifted, loud speech is not attenuated
// except by the limiter), so the worst case is a no-op, never damage.
func Process(samples []int16, cfg Config) []int16 {
	if len(samples) == 0 {
		return samples
	}

	work := make([]float64, len(samples))
	for i, s := range samples {
		work[i] = clamp(float64(s)/32768.0, -1, 1)
	}

	removeDC(work)
	highPass(work, cfg.HighPassCutoffHz)
	applyRMSGain(work, cfg.TargetRMSDBFS, cfg.MaxGainDB)
	limit(work, cfg)

	out := make([]int16, len(work))
	for i, v := range work {
		out[i] = int16(math.Round(clamp(v, -1, 1) * 32767.0))
	}
	return out
}

func removeDC(signal []float64) {
	var sum float64
	for _, v := range signal {
		sum += v
	}
	dc := sum / float64(len(signal))
	for i := range signal {
		signal[i] -= dc
	}
}

// highPass is a one-pole filter: y[i] = alpha*(y[i-1] + x[i] - x[i-1]).
func highPass(signal []float64, cutoffHz float64) {
	if len(signal) < 2 || cutoffHz <= 0 {
		return
	}
	dt := 1.0 / float64(encoder.SampleRate)
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	alpha := rc / (rc + dt)

	prevIn := signal[0]
	for i := 1; i < len(signal); i++ {
		in := signal[i]
		signal[i] = alpha * (signal[i-1] + in - prevIn)
		prevIn = in
	}
}

func applyRMSGain(signal []float64, targetDBFS, maxGainDB float64) {
	gainDB := clamp(targetDBFS-rmsDBFS(signal), 0, maxGainDB)
	if gainDB == 0 {
		return
	}
	gain := math.Pow(10, gainDB/20)
	for i := range signal {
		signal[i] *= gain
	}
}

// limit is an envelope-following peak limiter: once a sample exceeds the
// threshold the gain ramps down at the attack rate and recovers at the
// release rate, avoiding the hard distortion of plain clipping.
func limit(signal []float64, cfg Config) {
	threshold := clamp(cfg.LimiterThreshold, 0.6, 0.999)
	attack := math.Exp(-1 / math.Max(1, cfg.LimiterAttackMS/1000*encoder.SampleRate))
	release := math.Exp(-1 / math.Max(1, cfg.LimiterReleaseMS/1000*encoder.SampleRate))

	gain := 1.0
	for i, s := range signal {
		abs := math.Abs(s)
		target := 1.0
		if abs > threshold {
			target = threshold / math.Max(abs, 1e-6)
		}
		coef := release
		if target < gain {
			coef = attack
		}
		gain = coef*gain + (1-coef)*target
		signal[i] = s * gain
	}
}

func rmsDBFS(signal []float64) float64 {
	if len(signal) == 0 {
		return -120
	}
	var sumSq float64
	for _, v := range signal {
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(signal)))
	return 20 * math.Log10(math.Max(rms, levelFloor))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
