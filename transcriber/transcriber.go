// Package transcriber defines the boundary between the chunked streaming
// core and the speech-to-text backends that do the actual recognition.
package transcriber

import "context"

// Result is the outcome of transcribing one audio file.
type Result struct {
	Text     string
	Language string  // ISO code reported by the backend, empty if unknown
	Duration float64 // audio seconds reported by the backend, 0 if unknown
}

// ChunkTranscriber transcribes a short chunk of a still-running recording.
// The file at wavPath is mono 16 kHz PCM16 WAV and only exists for the
// duration of the call.
type ChunkTranscriber interface {
	TranscribeChunk(ctx context.Context, wavPath string) (*Result, error)
}

// FullTranscriber transcribes a complete recording. Used at finalize time
// when the session falls back to a single full-audio pass.
type FullTranscriber interface {
	TranscribeFull(ctx context.Context, wavPath string) (*Result, error)
}
