package pgx

import (
	"context"
	"errors"

	"github.com/graphloom/graphloom/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// maxPathHops bounds the shortest-path search so pathological graphs
// cannot blow up the recursive query.
const maxPathHops = 6

// GetEntityNeighbors returns the names of all entities reachable within
// depth hops of the named entity, traversing edges in both directions.
// The starting entity itself is not included.
func (s *GraphDBStorage) GetEntityNeighbors(
	ctx context.Context,
	name string,
	depth int,
) ([]string, error) {
	if depth <= 0 {
		depth = 1
	}

	rows, err := s.conn.Query(ctx, `
		WITH RECURSIVE walk(id, hops) AS (
			SELECT id, 0
			FROM kg_nodes
			WHERE lower(name) = lower($1) OR lower(canonical_form) = lower($1)
			UNION
			SELECT CASE WHEN e.source_id = w.id THEN e.target_id ELSE e.source_id END, w.hops + 1
			FROM walk w
			JOIN kg_edges e ON e.source_id = w.id OR e.target_id = w.id
			WHERE w.hops < $2
		)
		SELECT DISTINCT n.name
		FROM walk w
		JOIN kg_nodes n ON n.id = w.id
		WHERE w.hops > 0 AND lower(n.name) <> lower($1)
		ORDER BY n.name
	`, name, depth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// FindShortestPath finds the shortest undirected path between two
// entities by name, bounded to maxPathHops hops. A missing path is not
// an error; it reports Found=false.
func (s *GraphDBStorage) FindShortestPath(
	ctx context.Context,
	a string,
	b string,
) (*store.PathResult, error) {
	row := s.conn.QueryRow(ctx, `
		WITH RECURSIVE walk(id, path, hops) AS (
			SELECT id, ARRAY[id], 0
			FROM kg_nodes
			WHERE lower(name) = lower($1) OR lower(canonical_form) = lower($1)
			UNION ALL
			SELECT next_id, w.path || next_id, w.hops + 1
			FROM walk w
			JOIN LATERAL (
				SELECT CASE WHEN e.source_id = w.id THEN e.target_id ELSE e.source_id END AS next_id
				FROM kg_edges e
				WHERE e.source_id = w.id OR e.target_id = w.id
			) step ON TRUE
			WHERE w.hops < $3 AND NOT next_id = ANY(w.path)
		)
		SELECT w.path, w.hops
		FROM walk w
		JOIN kg_nodes target ON target.id = w.id
		WHERE lower(target.name) = lower($2) OR lower(target.canonical_form) = lower($2)
		ORDER BY w.hops
		LIMIT 1
	`, a, b, maxPathHops)

	var (
		ids  []string
		hops int
	)
	if err := row.Scan(&ids, &hops); err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return &store.PathResult{Found: false}, nil
		}
		return nil, err
	}

	names, err := s.nodeNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &store.PathResult{Found: true, Length: hops, Nodes: names}, nil
}

// GetEntity looks up one entity record by name or canonical form.
// A missing entity yields (nil, nil).
func (s *GraphDBStorage) GetEntity(ctx context.Context, name string) (*store.EntityRecord, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, name, type, canonical_form, confidence, source_document, start_pos, end_pos, aliases
		FROM kg_nodes
		WHERE lower(name) = lower($1) OR lower(canonical_form) = lower($1)
		ORDER BY confidence DESC
		LIMIT 1
	`, name)

	var e store.EntityRecord
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Type,
		&e.CanonicalForm,
		&e.Confidence,
		&e.SourceDocument,
		&e.StartPos,
		&e.EndPos,
		&e.Aliases,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// nodeNames resolves node ids to names, preserving the input order.
func (s *GraphDBStorage) nodeNames(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `SELECT id, name FROM kg_nodes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		byID[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
