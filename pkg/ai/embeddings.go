package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EmbeddingBatcher is an optional fast path implemented by clients whose
// backend accepts many inputs in one request. Results are order-preserving.
type EmbeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// GenerateEmbeddings embeds a batch of inputs, preserving order. Clients
// implementing EmbeddingBatcher get a single round trip; otherwise the
// singles are fanned out concurrently. Any failure fails the batch, since
// every caller in the construction pipeline requires a complete batch.
func GenerateEmbeddings(
	ctx context.Context,
	client GraphAIClient,
	inputs [][]byte,
) ([][]float32, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	if b, ok := client.(EmbeddingBatcher); ok {
		return b.GenerateEmbeddings(ctx, inputs)
	}

	out := make([][]float32, len(inputs))

	eg, ectx := errgroup.WithContext(ctx)
	for i := range inputs {
		idx := i
		in := inputs[i]
		eg.Go(func() error {
			emb, err := client.GenerateEmbedding(ectx, in)
			if err != nil {
				return err
			}
			out[idx] = emb
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
