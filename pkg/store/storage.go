package store

import (
	"context"
)

// SearchLabel selects which node class a vector similarity search runs
// against.
type SearchLabel string

const (
	SearchEntities   SearchLabel = "entities"
	SearchDocuments  SearchLabel = "documents"
	SearchAttributes SearchLabel = "attributes"
)

// SearchResult is one ranked candidate from a vector similarity search.
// Score is cosine similarity in [0,1], higher is more similar.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Type     string         `json:"type"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PathResult describes the shortest path between two entities.
type PathResult struct {
	Found  bool     `json:"found"`
	Length int      `json:"length"`
	Nodes  []string `json:"nodes"`
}

// EntityRecord is the persisted shape of one graph node.
type EntityRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	CanonicalForm  string    `json:"canonical_form"`
	Confidence     float64   `json:"confidence"`
	Embedding      []float32 `json:"embedding"`
	SourceDocument string    `json:"source_document"`
	StartPos       int       `json:"start_pos"`
	EndPos         int       `json:"end_pos"`
	Aliases        []string  `json:"aliases"`
}

// RelationRecord is the persisted shape of one graph edge.
type RelationRecord struct {
	ID         string    `json:"id"`
	SourceID   string    `json:"source_id"`
	TargetID   string    `json:"target_id"`
	Type       string    `json:"type"`
	Predicate  string    `json:"predicate"`
	Confidence float64   `json:"confidence"`
	Embedding  []float32 `json:"embedding"`
	Context    string    `json:"context"`
}

// DocumentRecord is the persisted shape of one document chunk.
type DocumentRecord struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	ChunkIndex     int       `json:"chunk_index"`
	SourceDocument string    `json:"source_document"`
	Embedding      []float32 `json:"embedding"`
}

// AttributeRecord is the persisted shape of one attribute node.
type AttributeRecord struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	Embedding  []float32 `json:"embedding"`
}

// GraphStorage defines the interface for persisting and querying knowledge
// graphs: per-item stores used by the exporter, vector similarity searches
// and graph traversal used by the retriever, and source-level deletion.
type GraphStorage interface {
	StoreEntity(ctx context.Context, entity EntityRecord) error
	StoreRelationship(ctx context.Context, relation RelationRecord) error
	StoreDocumentChunk(ctx context.Context, doc DocumentRecord) error
	StoreAttributeNode(ctx context.Context, attr AttributeRecord) error

	// DeleteSource removes everything previously stored for a source
	// document; re-exporting a source replaces its prior state.
	DeleteSource(ctx context.Context, sourceID string) error

	VectorSimilaritySearch(
		ctx context.Context,
		embedding []float32,
		limit int,
		threshold float64,
		label SearchLabel,
	) ([]SearchResult, error)

	VectorSimilaritySearchRelations(
		ctx context.Context,
		embedding []float32,
		limit int,
		threshold float64,
	) ([]SearchResult, error)

	GetEntityNeighbors(ctx context.Context, name string, depth int) ([]string, error)
	FindShortestPath(ctx context.Context, a string, b string) (*PathResult, error)
	GetEntity(ctx context.Context, name string) (*EntityRecord, error)
}
