// Package chunker splits long transcripts into size-bounded,
// sentence-respecting segments for the rewrite pipeline.
package chunker

import "strings"

// DefaultMaxChunkChars is the default upper bound on chunk size.
const DefaultMaxChunkChars = 7000

// isTerminator reports whether r ends a sentence. The danda handles the
// Hindi portion of the transcript corpus.
func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}

// isTrailing reports whether r may follow a terminator and still belong to
// the same sentence (closing quotes and brackets).
func isTrailing(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', ']', '»':
		return true
	}
	return false
}

// Split breaks text into chunks of at most maxChars characters, never
// cutting inside a sentence. A text that already fits is returned as a
// single chunk unchanged. A single sentence longer than maxChars is
// emitted as its own oversized chunk; sentence boundaries win over the
// size bound.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if len([]rune(text)) <= maxChars {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var buf strings.Builder
	bufLen := 0
	for _, sentence := range sentences {
		sentLen := len([]rune(sentence))
		if bufLen > 0 && bufLen+sentLen > maxChars {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			bufLen = 0
		}
		buf.WriteString(sentence)
		bufLen += sentLen
	}
	if bufLen > 0 {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}
	return chunks
}

// splitSentences cuts text after sentence terminators, keeping trailing
// quote characters with the sentence they close. The concatenation of the
// returned slices equals the input.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if isTerminator(runes[i]) {
			// Consume runs of terminators ("..." or "?!") and closers.
			j := i + 1
			for j < len(runes) && (isTerminator(runes[j]) || isTrailing(runes[j])) {
				j++
			}
			sentences = append(sentences, string(runes[start:j]))
			start = j
			i = j
			continue
		}
		i++
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
