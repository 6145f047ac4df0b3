package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunk is one contiguous substring of the input, synthesized on its own.
type Chunk struct {
	Index   int
	Content string
}

var (
	paragraphBreaks = regexp.MustCompile(`\n\s*\n`)
	sentenceEndings = regexp.MustCompile(`[.!?]+\s+`)
)

// Segment splits text into chunks of at most maxChars characters,
// preferring paragraph breaks, then sentence boundaries, then word
// boundaries. A single token longer than maxChars is hard-cut so the
// ceiling stays soft but termination is guaranteed. Chunk order equals
// textual order and no chunk is empty.
func Segment(text string, maxChars int, chunkingEnabled bool) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !chunkingEnabled || len(text) <= maxChars {
		return []Chunk{{Index: 0, Content: text}}
	}

	var parts []string
	current := ""
	flush := func() {
		if current != "" {
			parts = append(parts, current)
			current = ""
		}
	}

	for _, paragraph := range paragraphBreaks.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		units := []string{paragraph}
		if len(paragraph) > maxChars {
			units = splitParagraph(paragraph, maxChars)
		}
		for _, unit := range units {
			// +2 accounts for the paragraph separator when packing.
			if current != "" && len(current)+len(unit)+2 > maxChars {
				flush()
			}
			if current == "" {
				current = unit
			} else {
				current += "\n\n" + unit
			}
		}
	}
	flush()

	chunks := make([]Chunk, 0, len(parts))
	for _, content := range parts {
		chunks = append(chunks, Chunk{Index: len(chunks), Content: content})
	}
	return chunks
}

// splitParagraph breaks one over-length paragraph into sentence groups no
// longer than maxChars, falling back to word splits for sentences that
// are themselves too long.
func splitParagraph(paragraph string, maxChars int) []string {
	var groups []string
	current := ""
	for _, sentence := range splitSentences(paragraph) {
		if current != "" && len(current)+len(sentence)+1 > maxChars {
			groups = append(groups, current)
			current = sentence
		} else if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if current != "" {
		groups = append(groups, current)
	}

	var out []string
	for _, group := range groups {
		if len(group) <= maxChars {
			out = append(out, group)
			continue
		}
		out = append(out, splitWords(group, maxChars)...)
	}
	return out
}

// splitSentences splits on terminal punctuation followed by whitespace,
// keeping the punctuation attached to its sentence.
func splitSentences(paragraph string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndings.FindAllStringIndex(paragraph, -1) {
		if s := strings.TrimSpace(paragraph[last:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(paragraph[last:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitWords packs whitespace-delimited tokens up to maxChars. Tokens
// longer than maxChars on their own are cut at the character limit.
func splitWords(text string, maxChars int) []string {
	var out []string
	current := ""
	for _, word := range strings.Fields(text) {
		if len(word) > maxChars {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			out = append(out, hardCut(word, maxChars)...)
			continue
		}
		if current != "" && len(current)+len(word)+1 > maxChars {
			out = append(out, current)
			current = word
		} else if current == "" {
			current = word
		} else {
			current += " " + word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// hardCut slices one over-length token into pieces of at most maxChars
// bytes, never cutting through a multi-byte rune.
func hardCut(word string, maxChars int) []string {
	var pieces []string
	for len(word) > maxChars {
		end := maxChars
		for end > 0 && !utf8.RuneStart(word[end]) {
			end--
		}
		if end == 0 {
			// A single rune wider than maxChars; emit it whole.
			_, end = utf8.DecodeRuneInString(word)
		}
		pieces = append(pieces, word[:end])
		word = word[end:]
	}
	if word != "" {
		pieces = append(pieces, word)
	}
	return pieces
}
