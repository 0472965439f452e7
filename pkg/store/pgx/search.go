package pgx

import (
	"context"
	"fmt"

	"github.com/graphloom/graphloom/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// VectorSimilaritySearch runs a cosine nearest-neighbor query against the
// node class selected by label. Similarity is 1 - cosine distance; only
// candidates at or above threshold are returned, best first.
func (s *GraphDBStorage) VectorSimilaritySearch(
	ctx context.Context,
	embedding []float32,
	limit int,
	threshold float64,
	label store.SearchLabel,
) ([]store.SearchResult, error) {
	var query string
	switch label {
	case store.SearchEntities:
		query = `
			SELECT id, name, type, 1 - (embedding <=> $1) AS score
			FROM kg_nodes
			WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
			ORDER BY embedding <=> $1
			LIMIT $3`
	case store.SearchDocuments:
		query = `
			SELECT id, text, 'document' AS type, 1 - (embedding <=> $1) AS score
			FROM kg_chunks
			WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
			ORDER BY embedding <=> $1
			LIMIT $3`
	case store.SearchAttributes:
		query = `
			SELECT id, name || ': ' || value, type, 1 - (embedding <=> $1) AS score
			FROM kg_attributes
			WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
			ORDER BY embedding <=> $1
			LIMIT $3`
	default:
		return nil, fmt.Errorf("unknown search label: %s", label)
	}

	return s.runSearch(ctx, query, embedding, limit, threshold)
}

// VectorSimilaritySearchRelations searches edges by their relation
// embedding. The returned text is "subject predicate object" resolved via
// the endpoint nodes.
func (s *GraphDBStorage) VectorSimilaritySearchRelations(
	ctx context.Context,
	embedding []float32,
	limit int,
	threshold float64,
) ([]store.SearchResult, error) {
	query := `
		SELECT e.id, src.name || ' ' || e.predicate || ' ' || dst.name, e.type, 1 - (e.embedding <=> $1) AS score
		FROM kg_edges e
		JOIN kg_nodes src ON src.id = e.source_id
		JOIN kg_nodes dst ON dst.id = e.target_id
		WHERE e.embedding IS NOT NULL AND 1 - (e.embedding <=> $1) >= $2
		ORDER BY e.embedding <=> $1
		LIMIT $3`

	return s.runSearch(ctx, query, embedding, limit, threshold)
}

func (s *GraphDBStorage) runSearch(
	ctx context.Context,
	query string,
	embedding []float32,
	limit int,
	threshold float64,
) ([]store.SearchResult, error) {
	rows, err := s.conn.Query(ctx, query, pgvector.NewVector(embedding), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0, limit)
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Type, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
