package summarizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate shortens text to at most limit characters. It cuts at the last
// sentence end or paragraph break within the limit when that keeps at least
// half of it, falling back to the last whitespace. A single word longer than
// the limit is cut at a rune boundary.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := sentenceBoundary(runes, limit)
	if cut < limit/2 {
		cut = 0
	}
	if cut == 0 {
		cut = wordBoundary(runes, limit)
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(runes[:cut]))
}

// sentenceBoundary returns the largest cut <= limit that ends a sentence or
// precedes a blank line, or 0
func sentenceBoundary(runes []rune, limit int) int {
	best := 0
	for i := 0; i < limit; i++ {
		switch r := runes[i]; {
		case r == '\n' && i+1 < len(runes) && runes[i+1] == '\n':
			if strings.TrimSpace(string(runes[:i])) != "" {
				best = i
			}
		case r == '.' || r == '!' || r == '?':
			j := i + 1
			for j < limit && j < len(runes) && isCloser(runes[j]) {
				j++
			}
			if j <= limit && (j == len(runes) || unicode.IsSpace(runes[j])) {
				best = j
			}
		case r == '。' || r == '！' || r == '？':
			j := i + 1
			for j < limit && j < len(runes) && isCloser(runes[j]) {
				j++
			}
			best = j
		}
	}
	return best
}

func wordBoundary(runes []rune, limit int) int {
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i]) && !unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return 0
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»', '」', '』', '）':
		return true
	}
	return false
}
