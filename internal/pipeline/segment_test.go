package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSegmentShortTextSingleChunk(t *testing.T) {
	chunks := Segment("  Hello world.  ", 1200, true)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Fatalf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].Content != "Hello world." {
		t.Fatalf("expected trimmed input, got %q", chunks[0].Content)
	}
}

func TestSegmentChunkingDisabled(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := Segment(text, 100, false)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk with chunking disabled, got %d", len(chunks))
	}
	if chunks[0].Content != strings.TrimSpace(text) {
		t.Fatal("chunk content does not match trimmed input")
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if chunks := Segment("   \n\t ", 100, true); chunks != nil {
		t.Fatalf("expected nil for whitespace input, got %d chunks", len(chunks))
	}
}

func TestSegmentRespectsSizeLimit(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.Repeat(sentence, 70) // ~3150 chars
	chunks := Segment(text, 1200, true)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 1200 {
			t.Fatalf("chunk %d over limit: %d chars", c.Index, len(c.Content))
		}
		if strings.TrimSpace(c.Content) == "" {
			t.Fatalf("chunk %d is empty", c.Index)
		}
	}
}

func TestSegmentIndicesContiguous(t *testing.T) {
	text := strings.Repeat("One sentence here. ", 200)
	chunks := Segment(text, 300, true)
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

// Round-trip law: concatenating chunk contents in order recovers the
// original text up to whitespace normalization at split points.
func TestSegmentRoundTrip(t *testing.T) {
	texts := []string{
		strings.Repeat("Alpha beta gamma delta. ", 120),
		"First paragraph here.\n\nSecond paragraph is a bit longer than the first one.\n\nThird.",
		strings.Repeat("Paragraph one with several sentences. Another one follows! Is that all? ", 40),
	}
	normalize := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	for _, text := range texts {
		chunks := Segment(text, 400, true)
		var joined []string
		for _, c := range chunks {
			joined = append(joined, c.Content)
		}
		got := normalize(strings.Join(joined, " "))
		want := normalize(text)
		if got != want {
			t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, want)
		}
	}
}

func TestSegmentPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("Sentence in paragraph. ", 10) // ~230 chars
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	chunks := Segment(text, 500, true)

	for _, c := range chunks {
		// No chunk should start or end mid-sentence when paragraphs fit.
		if !strings.HasSuffix(c.Content, ".") {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", c.Index, c.Content[len(c.Content)-20:])
		}
	}
}

func TestSegmentLongUnbrokenToken(t *testing.T) {
	token := strings.Repeat("x", 2500)
	chunks := Segment(token, 1000, true)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 hard-cut chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c.Content) > 1000 {
			t.Fatalf("hard-cut chunk %d over limit: %d", c.Index, len(c.Content))
		}
		total += len(c.Content)
	}
	if total != 2500 {
		t.Fatalf("content lost in hard cut: %d of 2500 chars", total)
	}
}

func TestSegmentHardCutKeepsRunesIntact(t *testing.T) {
	token := strings.Repeat("あ", 1000) // 3000 bytes, no whitespace
	chunks := Segment(token, 1000, true)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 hard-cut chunks, got %d", len(chunks))
	}
	var joined strings.Builder
	for _, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Fatalf("chunk %d contains invalid UTF-8 after hard cut (len %d bytes)", c.Index, len(c.Content))
		}
		if len(c.Content) > 1000 {
			t.Fatalf("chunk %d over limit: %d bytes", c.Index, len(c.Content))
		}
		joined.WriteString(c.Content)
	}
	if joined.String() != token {
		t.Fatal("content lost or reordered in hard cut")
	}
}

func TestSegmentMixedLongParagraph(t *testing.T) {
	long := strings.Repeat("A fairly average sentence for testing purposes. ", 30) // ~1440 chars
	text := "Short intro.\n\n" + strings.TrimSpace(long)
	chunks := Segment(text, 800, true)
	if len(chunks) < 2 {
		t.Fatalf("expected long paragraph to split, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 800 {
			t.Fatalf("chunk %d over limit: %d", c.Index, len(c.Content))
		}
	}
	if !strings.HasPrefix(chunks[0].Content, "Short intro.") {
		t.Fatalf("textual order not preserved, first chunk: %q", chunks[0].Content[:30])
	}
}

func TestSegmentChunkCountBound(t *testing.T) {
	// Plain prose should stay near ceil(total/max) chunks.
	text := strings.Repeat("Plain prose with ordinary words in it. ", 77) // ~3000 chars
	chunks := Segment(text, 1200, true)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for ~3000 chars at 1200/chunk, got %d", len(chunks))
	}
}
