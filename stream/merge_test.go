package stream

import "testing"

func TestMergeTranscript(t *testing.T) {
	tests := []struct {
		name        string
		committed   string
		incoming    string
		want        string
		wantAligned bool
	}{
		{
			name:        "overlap deduplicated",
			committed:   "the quick brown fox jumps",
			incoming:    "fox jumps over the lazy dog",
			want:        "the quick brown fox jumps over the lazy dog",
			wantAligned: true,
		},
		{
			name:        "case insensitive alignment",
			committed:   "We Met On Tuesday",
			incoming:    "on tuesday at noon",
			want:        "We Met On Tuesday at noon",
			wantAligned: true,
		},
		{
			name:        "longest overlap wins",
			committed:   "one two three one two three",
			incoming:    "one two three four",
			want:        "one two three one two three four",
			wantAligned: true,
		},
		{
			name:        "no overlap joins with newline",
			committed:   "alpha",
			incoming:    "beta",
			want:        "alpha\nbeta",
			wantAligned: false,
		},
		{
			name:        "short latin overlap below threshold",
			committed:   "see me",
			incoming:    "me too",
			want:        "see me\nme too",
			wantAligned: false,
		},
		{
			name:        "cjk two rune overlap",
			committed:   "你好世界",
			incoming:    "世界今天",
			want:        "你好世界今天",
			wantAligned: true,
		},
		{
			name:        "hangul overlap",
			committed:   "안녕하세요 반갑",
			incoming:    "반갑습니다",
			want:        "안녕하세요 반갑습니다",
			wantAligned: true,
		},
		{
			name:        "cjk without overlap",
			committed:   "你好",
			incoming:    "再见",
			want:        "你好\n再见",
			wantAligned: false,
		},
		{
			name:        "incoming fully contained",
			committed:   "good morning everyone",
			incoming:    "everyone",
			want:        "good morning everyone",
			wantAligned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, aligned := mergeTranscript(tt.committed, tt.incoming)
			if got != tt.want {
				t.Errorf("merged = %q, want %q", got, tt.want)
			}
			if aligned != tt.wantAligned {
				t.Errorf("aligned = %v, want %v", aligned, tt.wantAligned)
			}
		})
	}
}

func TestMergeTranscriptDeterministic(t *testing.T) {
	committed := "results should be stable across calls"
	incoming := "across calls and runs"
	first, _ := mergeTranscript(committed, incoming)
	for i := 0; i < 10; i++ {
		got, _ := mergeTranscript(committed, incoming)
		if got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestContainsCJK(t *testing.T) {
	if containsCJK("plain ascii") {
		t.Error("ascii text reported as CJK")
	}
	if !containsCJK("mixed 漢字 text") {
		t.Error("han text not detected")
	}
	if !containsCJK("カタカナ") {
		t.Error("katakana not detected")
	}
}
