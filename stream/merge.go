package stream

import (
	"strings"
	"unicode"
)

const (
	maxOverlapRunes    = 160
	minOverlapRunes    = 6
	minOverlapRunesCJK = 2
)

var cjkTables = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hangul,
	unicode.Hiragana,
	unicode.Katakana,
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, cjkTables...) {
			return true
		}
	}
	return false
}

// mergeTranscript appends incoming to committed, deduplicating the text the
// two chunks share because of audio overlap. It searches for the longest
// case-insensitive match between a suffix of committed and a prefix of
// incoming, from min(160, both lengths) runes down to the minimum threshold:
// 2 runes for CJK/Hangul text, 6 otherwise. Without a match the texts are
// joined with a line break and aligned is false; text is never dropped.
func mergeTranscript(committed, incoming string) (merged string, aligned bool) {
	a := []rune(committed)
	b := []rune(incoming)

	maxLen := maxOverlapRunes
	if len(a) < maxLen {
		maxLen = len(a)
	}
	if len(b) < maxLen {
		maxLen = len(b)
	}

	minLen := minOverlapRunes
	if containsCJK(committed) || containsCJK(incoming) {
		minLen = minOverlapRunesCJK
	}

	for l := maxLen; l >= minLen; l-- {
		if strings.EqualFold(string(a[len(a)-l:]), string(b[:l])) {
			return committed + string(b[l:]), true
		}
	}
	return committed + "\n" + incoming, false
}
