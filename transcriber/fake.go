package transcriber

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FakeCall scripts one transcription outcome for a Fake.
type FakeCall struct {
	Text     string
	Language string
	Err      error
	Delay    time.Duration
}

// Fake is a scripted transcriber for tests. Filenames carrying a trailing
// index (chunk_0002.wav) bind to the script entry with that index, so the
// outcome follows chunk identity no matter which dispatch goroutine reaches
// the backend first; unindexed filenames consume the script in call order.
// Past the script's end calls return an empty result. Fake implements both
// ChunkTranscriber and FullTranscriber.
type Fake struct {
	mu         sync.Mutex
	script     []FakeCall
	next       int
	full       FakeCall
	ChunkPaths []string
	FullPaths  []string
}

func NewFake(script ...FakeCall) *Fake {
	return &Fake{script: script}
}

// SetFull scripts the outcome of TranscribeFull.
func (f *Fake) SetFull(call FakeCall) {
	f.mu.Lock()
	f.full = call
	f.mu.Unlock()
}

func (f *Fake) TranscribeChunk(ctx context.Context, wavPath string) (*Result, error) {
	f.mu.Lock()
	f.ChunkPaths = append(f.ChunkPaths, wavPath)
	call := FakeCall{}
	if idx, ok := chunkIndex(wavPath); ok {
		if idx < len(f.script) {
			call = f.script[idx]
		}
	} else if f.next < len(f.script) {
		call = f.script[f.next]
		f.next++
	}
	f.mu.Unlock()
	return f.run(ctx, call)
}

// chunkIndex extracts the trailing number from filenames like
// chunk_0002.wav.
func chunkIndex(path string) (int, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) || i == 0 || base[i-1] != '_' {
		return 0, false
	}
	n, err := strconv.Atoi(base[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (f *Fake) TranscribeFull(ctx context.Context, wavPath string) (*Result, error) {
	f.mu.Lock()
	f.FullPaths = append(f.FullPaths, wavPath)
	call := f.full
	f.mu.Unlock()
	return f.run(ctx, call)
}

func (f *Fake) run(ctx context.Context, call FakeCall) (*Result, error) {
	if call.Delay > 0 {
		select {
		case <-time.After(call.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if call.Err != nil {
		return nil, call.Err
	}
	return &Result{Text: call.Text, Language: call.Language}, nil
}

// ChunkCalls reports how many chunk transcriptions were requested.
func (f *Fake) ChunkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ChunkPaths)
}

// FullCalls reports how many full-audio transcriptions were requested.
func (f *Fake) FullCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.FullPaths)
}
