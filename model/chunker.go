package model

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const DefaultMaxChunkLen = 300

// Sentence boundaries: terminal punctuation followed by whitespace, or any
// run of line breaks. OCR output leans heavily on the line-break variant.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+|\n+`)

// whitespaceRun collapses the ragged spacing tesseract leaves behind.
var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText normalizes whitespace: runs collapse to a single space and the
// result is trimmed.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// SplitSentences cuts text at sentence boundaries, keeping the terminal
// punctuation with its sentence. Empty and whitespace-only pieces are
// dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		end := loc[0]
		// punctuation stays with the sentence; newline boundaries do not
		switch text[loc[0]] {
		case '.', '!', '?':
			end = loc[0] + 1
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SplitChunks packs whole sentences greedily into chunks of at most maxLen
// runes. A single sentence longer than maxLen becomes its own oversized
// chunk; sentences are never split mid-word. Order is preserved and the
// trailing accumulation is always flushed.
func SplitChunks(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range SplitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if currentLen+n+1 > maxLen {
			flush()
		}
		current.WriteString(sentence)
		current.WriteString(" ")
		currentLen += n + 1
	}
	flush()

	return chunks
}
