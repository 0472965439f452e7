package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ExtractionOutput is the merged result of the chunked extraction pass,
// ready for graph construction.
type ExtractionOutput struct {
	Entities   []common.Entity
	Relations  []common.Relation
	Attributes map[string][]common.Attribute

	Chunks       []TextChunk
	FailedChunks int
}

// ExtractFromText chunks the text and runs one extraction call per chunk
// across a bounded worker pool. A failing or cancelled chunk yields an
// empty marked-failed result and does not abort the batch. When every
// chunk fails, a sequential whole-text pass is attempted before giving up.
func (g *GraphClient) ExtractFromText(
	ctx context.Context,
	text string,
	sourceID string,
) (*ExtractionOutput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ExtractionOutput{Attributes: make(map[string][]common.Attribute)}, nil
	}

	chunks := SplitText(text, g.chunkSize, g.overlap)
	results := make([]*chunkResult, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := range chunks {
		idx := i
		chunk := chunks[i]
		eg.Go(func() error {
			res, err := extractFromChunk(gCtx, chunk, g.aiClient, g.domainHint, g.confidenceThreshold, g.maxRetries)
			if err != nil {
				logger.Warn("Chunk extraction failed, skipping", "chunk", chunk.Index, "source", sourceID, "err", err)
				results[idx] = emptyChunkResult(chunk.Index, true)
				return nil
			}
			results[idx] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.failed {
			failed++
		}
	}

	if failed == len(results) {
		logger.Warn("All chunks failed, falling back to sequential extraction", "chunks", len(chunks), "source", sourceID)
		seq, err := extractSequential(ctx, g.aiClient, text, g.domainHint, g.confidenceThreshold, g.maxRetries)
		if err != nil {
			return nil, fmt.Errorf("extraction failed for every chunk and sequential fallback failed: %w", err)
		}
		results = []*chunkResult{seq}
	}

	out := &ExtractionOutput{
		Attributes:   make(map[string][]common.Attribute),
		Chunks:       chunks,
		FailedChunks: failed,
	}
	for _, r := range results {
		out.Entities = mergeEntities(out.Entities, r.entities)
		out.Relations = mergeRelations(out.Relations, r.relations)
		out.Attributes = mergeAttributes(out.Attributes, r.attributes)
	}

	return out, nil
}
