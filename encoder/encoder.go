// Package encoder handles the audio format the transcription backends
// consume: mono 16 kHz 16-bit little-endian PCM, carried in WAV files.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)
