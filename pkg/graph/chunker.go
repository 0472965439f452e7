package graph

import (
	gUtil "github.com/graphloom/graphloom/internal/util"
)

// TextChunk is one overlapping window of source text sized for a single
// extraction call. Start and End are character offsets into the source.
type TextChunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// snapWindow is how far back from the window end a sentence terminator
// is searched for before falling back to a hard cut.
const snapWindow = 300

func isSentenceTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// SplitText splits text into overlapping chunks of at most chunkSize
// characters. Chunk ends snap to the nearest sentence terminator within
// the last part of the window; a terminator is only accepted past the
// window midpoint so chunks never collapse to fragments. Consecutive
// chunks overlap by roughly overlap characters and together cover the
// full input.
func SplitText(text string, chunkSize int, overlap int) []TextChunk {
	if len(text) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	if len(text) <= chunkSize {
		return []TextChunk{{Index: 0, Start: 0, End: len(text), Text: text}}
	}

	var chunks []TextChunk
	start := 0
	for start < len(text) {
		if len(text)-start <= chunkSize {
			chunks = append(chunks, TextChunk{
				Index: len(chunks),
				Start: start,
				End:   len(text),
				Text:  text[start:],
			})
			break
		}

		end := start + chunkSize
		snapStart := gUtil.Max(start+chunkSize/2, end-snapWindow)
		for i := end - 1; i >= snapStart; i-- {
			if isSentenceTerminator(text[i]) {
				end = i + 1
				break
			}
		}

		chunks = append(chunks, TextChunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  text[start:end],
		})

		start = gUtil.Max(start+1, end-overlap)
	}

	return chunks
}
