package pgx

import (
	"context"

	"github.com/graphloom/graphloom/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// StoreEntity upserts one graph node keyed by its content-derived id.
func (s *GraphDBStorage) StoreEntity(ctx context.Context, entity store.EntityRecord) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kg_nodes (id, name, type, canonical_form, confidence, embedding, source_document, start_pos, end_pos, aliases)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			canonical_form = EXCLUDED.canonical_form,
			confidence = EXCLUDED.confidence,
			embedding = EXCLUDED.embedding,
			source_document = EXCLUDED.source_document,
			start_pos = EXCLUDED.start_pos,
			end_pos = EXCLUDED.end_pos,
			aliases = EXCLUDED.aliases
	`,
		entity.ID,
		entity.Name,
		entity.Type,
		entity.CanonicalForm,
		entity.Confidence,
		pgvector.NewVector(entity.Embedding),
		entity.SourceDocument,
		entity.StartPos,
		entity.EndPos,
		entity.Aliases,
	)
	return err
}

// StoreRelationship upserts one graph edge. Both endpoints must already
// be stored; the foreign keys reject dangling references.
func (s *GraphDBStorage) StoreRelationship(ctx context.Context, relation store.RelationRecord) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kg_edges (id, source_id, target_id, type, predicate, confidence, embedding, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			target_id = EXCLUDED.target_id,
			type = EXCLUDED.type,
			predicate = EXCLUDED.predicate,
			confidence = EXCLUDED.confidence,
			embedding = EXCLUDED.embedding,
			context = EXCLUDED.context
	`,
		relation.ID,
		relation.SourceID,
		relation.TargetID,
		relation.Type,
		relation.Predicate,
		relation.Confidence,
		pgvector.NewVector(relation.Embedding),
		relation.Context,
	)
	return err
}

// StoreDocumentChunk upserts one document chunk.
func (s *GraphDBStorage) StoreDocumentChunk(ctx context.Context, doc store.DocumentRecord) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kg_chunks (id, text, chunk_index, source_document, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			chunk_index = EXCLUDED.chunk_index,
			source_document = EXCLUDED.source_document,
			embedding = EXCLUDED.embedding
	`,
		doc.ID,
		doc.Text,
		doc.ChunkIndex,
		doc.SourceDocument,
		pgvector.NewVector(doc.Embedding),
	)
	return err
}

// StoreAttributeNode upserts one attribute node.
func (s *GraphDBStorage) StoreAttributeNode(ctx context.Context, attr store.AttributeRecord) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kg_attributes (id, entity_id, name, value, type, confidence, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			entity_id = EXCLUDED.entity_id,
			name = EXCLUDED.name,
			value = EXCLUDED.value,
			type = EXCLUDED.type,
			confidence = EXCLUDED.confidence,
			embedding = EXCLUDED.embedding
	`,
		attr.ID,
		attr.EntityID,
		attr.Name,
		attr.Value,
		attr.Type,
		attr.Confidence,
		pgvector.NewVector(attr.Embedding),
	)
	return err
}

// DeleteSource removes all graph data previously stored for a source
// document. Edges and attribute nodes cascade from their nodes.
func (s *GraphDBStorage) DeleteSource(ctx context.Context, sourceID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM kg_nodes WHERE source_document = $1`, sourceID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM kg_chunks WHERE source_document = $1`, sourceID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
