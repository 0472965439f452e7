package graph

import (
	"errors"

	"github.com/graphloom/graphloom/pkg/ai"
)

// GraphClient runs the chunked extraction pipeline. It manages chunking
// parameters, extraction parallelism and retry behavior.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	aiClient ai.GraphAIClient

	workers    int
	maxRetries int

	chunkSize int
	overlap   int

	confidenceThreshold float64
	domainHint          string
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
type NewGraphClientParams struct {
	// AIClient performs extraction and embedding calls. Required.
	AIClient ai.GraphAIClient

	// Workers bounds concurrent extraction calls. Zero means 4.
	Workers int

	// MaxRetries is the per-chunk retry budget. Zero means 3.
	MaxRetries int

	// ChunkSize and Overlap control text windowing in characters.
	// Zero means 1000 and 200.
	ChunkSize int
	Overlap   int

	// ConfidenceThreshold drops extraction results below it. Zero means 0.5.
	ConfidenceThreshold float64

	// DomainHint steers the extraction prompt, e.g. "medical" or "legal".
	DomainHint string
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		AIClient:   aiClient,
//		Workers:    8,
//		MaxRetries: 3,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.AIClient == nil {
		return nil, errors.New("ai client is required")
	}

	workers := params.Workers
	if workers <= 0 {
		workers = 4
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	chunkSize := params.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	overlap := params.Overlap
	if overlap <= 0 {
		overlap = 200
	}
	threshold := params.ConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	return &GraphClient{
		aiClient: params.AIClient,

		workers:    workers,
		maxRetries: maxRetries,

		chunkSize: chunkSize,
		overlap:   overlap,

		confidenceThreshold: threshold,
		domainHint:          params.DomainHint,
	}, nil
}
