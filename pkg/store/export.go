package store

import (
	"context"
	"sort"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/logger"
)

// GraphExport is the store-ingestion shape of a knowledge graph.
type GraphExport struct {
	Entities   []EntityRecord    `json:"entities"`
	Relations  []RelationRecord  `json:"relations"`
	Documents  []DocumentRecord  `json:"documents"`
	Attributes []AttributeRecord `json:"attributes"`
}

// ExportReport counts how much of an export actually made it into the
// store. Storage is best-effort per item, never atomic.
type ExportReport struct {
	Stored int `json:"stored"`
	Total  int `json:"total"`
}

// ExportGraph serializes a knowledge graph into flat record lists,
// ordered deterministically by id.
func ExportGraph(graph *common.KnowledgeGraph) *GraphExport {
	export := &GraphExport{
		Entities:   make([]EntityRecord, 0, len(graph.Nodes)),
		Relations:  make([]RelationRecord, 0, len(graph.Edges)),
		Documents:  make([]DocumentRecord, 0, len(graph.DocumentChunks)),
		Attributes: make([]AttributeRecord, 0, len(graph.AttributeNodes)),
	}

	sourceID, _ := graph.Metadata["source_id"].(string)

	for _, id := range sortedKeys(graph.Nodes) {
		node := graph.Nodes[id]
		export.Entities = append(export.Entities, EntityRecord{
			ID:             node.ID,
			Name:           node.Entity.Text,
			Type:           string(node.Entity.Type),
			CanonicalForm:  node.Entity.Canonical(),
			Confidence:     node.Entity.Confidence,
			Embedding:      node.Embedding,
			SourceDocument: sourceID,
			StartPos:       node.Entity.Start,
			EndPos:         node.Entity.End,
			Aliases:        node.Entity.Aliases,
		})
	}

	for _, id := range sortedKeys(graph.Edges) {
		edge := graph.Edges[id]
		export.Relations = append(export.Relations, RelationRecord{
			ID:         edge.ID,
			SourceID:   edge.SourceID,
			TargetID:   edge.TargetID,
			Type:       string(edge.Relation.Type),
			Predicate:  edge.Relation.Predicate,
			Confidence: edge.Relation.Confidence,
			Embedding:  edge.Embedding,
			Context:    edge.Relation.Context,
		})
	}

	for _, id := range sortedKeys(graph.DocumentChunks) {
		chunk := graph.DocumentChunks[id]
		export.Documents = append(export.Documents, DocumentRecord{
			ID:             chunk.ID,
			Text:           chunk.Text,
			ChunkIndex:     chunk.ChunkIndex,
			SourceDocument: chunk.SourceDocument,
			Embedding:      chunk.Embedding,
		})
	}

	for _, id := range sortedKeys(graph.AttributeNodes) {
		attr := graph.AttributeNodes[id]
		export.Attributes = append(export.Attributes, AttributeRecord{
			ID:         attr.ID,
			EntityID:   attr.EntityID,
			Name:       attr.Name,
			Value:      attr.Value,
			Type:       string(attr.Type),
			Confidence: attr.Confidence,
			Embedding:  attr.Embedding,
		})
	}

	return export
}

// StoreGraph exports the graph and writes every record to storage. Each
// store call is attempted independently; failures are logged and counted,
// not propagated. Entities go first so relation and attribute foreign
// references resolve.
func StoreGraph(
	ctx context.Context,
	storage GraphStorage,
	graph *common.KnowledgeGraph,
) *ExportReport {
	export := ExportGraph(graph)
	report := &ExportReport{
		Total: len(export.Entities) + len(export.Relations) + len(export.Documents) + len(export.Attributes),
	}

	for _, e := range export.Entities {
		if err := storage.StoreEntity(ctx, e); err != nil {
			logger.Warn("Failed to store entity", "id", e.ID, "err", err)
			continue
		}
		report.Stored++
	}
	for _, r := range export.Relations {
		if err := storage.StoreRelationship(ctx, r); err != nil {
			logger.Warn("Failed to store relation", "id", r.ID, "err", err)
			continue
		}
		report.Stored++
	}
	for _, d := range export.Documents {
		if err := storage.StoreDocumentChunk(ctx, d); err != nil {
			logger.Warn("Failed to store document chunk", "id", d.ID, "err", err)
			continue
		}
		report.Stored++
	}
	for _, a := range export.Attributes {
		if err := storage.StoreAttributeNode(ctx, a); err != nil {
			logger.Warn("Failed to store attribute node", "id", a.ID, "err", err)
			continue
		}
		report.Stored++
	}

	return report
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
