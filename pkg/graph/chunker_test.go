package graph

import (
	"strings"
	"testing"
)

func TestSplitTextSingleChunk(t *testing.T) {
	text := "Short text that fits in one chunk."
	chunks := SplitText(text, 1000, 200)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != len(text) {
		t.Errorf("expected bounds [0,%d), got [%d,%d)", len(text), chunks[0].Start, chunks[0].End)
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text does not match input")
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if chunks := SplitText("", 1000, 200); chunks != nil {
		t.Errorf("expected nil for empty input, got %d chunks", len(chunks))
	}
}

func TestSplitTextSlidingWindow(t *testing.T) {
	// no sentence terminators, so every cut is a hard cut
	text := strings.Repeat("a", 2500)
	chunks := SplitText(text, 1000, 200)

	want := []struct{ start, end int }{
		{0, 1000},
		{800, 1800},
		{1600, 2500},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Start != w.start || chunks[i].End != w.end {
			t.Errorf("chunk %d: expected [%d,%d), got [%d,%d)", i, w.start, w.end, chunks[i].Start, chunks[i].End)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunks[i].Index)
		}
	}
}

func TestSplitTextSentenceSnap(t *testing.T) {
	// terminator at offset 899, inside the snap window and past the
	// window midpoint, so the first chunk ends there
	text := strings.Repeat("a", 899) + "." + strings.Repeat("b", 1101)
	chunks := SplitText(text, 1000, 200)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 900 {
		t.Errorf("expected first chunk to snap to 900, got %d", chunks[0].End)
	}
	if chunks[1].Start != 700 {
		t.Errorf("expected second chunk to start at 700, got %d", chunks[1].Start)
	}
}

func TestSplitTextTerminatorBeforeMidpointIgnored(t *testing.T) {
	// terminator at offset 300 is before the window midpoint, outside the
	// snap window, so the cut is hard at 1000
	text := strings.Repeat("a", 300) + "." + strings.Repeat("b", 1699)
	chunks := SplitText(text, 1000, 200)

	if chunks[0].End != 1000 {
		t.Errorf("expected hard cut at 1000, got %d", chunks[0].End)
	}
}

func TestSplitTextCoverage(t *testing.T) {
	text := strings.Repeat("word ", 1200)
	chunks := SplitText(text, 1000, 200)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].Start != 0 {
		t.Errorf("first chunk must start at 0, got %d", chunks[0].Start)
	}
	if chunks[len(chunks)-1].End != len(text) {
		t.Errorf("last chunk must end at %d, got %d", len(text), chunks[len(chunks)-1].End)
	}
	for i, c := range chunks {
		if c.Start >= c.End {
			t.Errorf("chunk %d is empty: [%d,%d)", i, c.Start, c.End)
		}
		if i > 0 && c.Start > chunks[i-1].End {
			t.Errorf("gap between chunk %d and %d: %d > %d", i-1, i, c.Start, chunks[i-1].End)
		}
	}
}
