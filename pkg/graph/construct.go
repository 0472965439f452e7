package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/logger"
)

// attrEmbedConfidence is the minimum confidence for an attribute to be
// included in its entity's embedding text.
const attrEmbedConfidence = 0.7

// Constructor assembles extraction output into a KnowledgeGraph. The
// embedding client is injected; every node requires an embedding, so a
// failed embedding batch fails the whole construction call.
type Constructor struct {
	aiClient ai.GraphAIClient

	chunkThreshold int
	chunkSize      int
	overlap        int
}

// NewConstructorParams configures a Constructor.
type NewConstructorParams struct {
	// AIClient performs embedding calls. Required.
	AIClient ai.GraphAIClient

	// ChunkThreshold is the source length above which document chunks are
	// produced. Zero means 1000.
	ChunkThreshold int

	// ChunkSize and Overlap control document chunking in characters.
	// Zero means 1000 and 200.
	ChunkSize int
	Overlap   int
}

// NewConstructor creates a Constructor with the provided parameters.
func NewConstructor(params NewConstructorParams) (*Constructor, error) {
	if params.AIClient == nil {
		return nil, errors.New("ai client is required")
	}
	chunkThreshold := params.ChunkThreshold
	if chunkThreshold <= 0 {
		chunkThreshold = 1000
	}
	chunkSize := params.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	overlap := params.Overlap
	if overlap <= 0 {
		overlap = 200
	}
	return &Constructor{
		aiClient:       params.AIClient,
		chunkThreshold: chunkThreshold,
		chunkSize:      chunkSize,
		overlap:        overlap,
	}, nil
}

// BuildGraph creates nodes, edges, document chunks and attribute nodes
// from the merged extraction output. Relations whose endpoints do not
// resolve to a node are dropped without error. Ids are derived from
// content and namespaced by sourceID so concurrent constructions for
// different sources never collide.
func (c *Constructor) BuildGraph(
	ctx context.Context,
	entities []common.Entity,
	relations []common.Relation,
	attributesByEntity map[string][]common.Attribute,
	sourceText string,
	sourceID string,
) (*common.KnowledgeGraph, error) {
	graph := common.NewKnowledgeGraph()

	nodeIDs, err := c.buildNodes(ctx, graph, entities, attributesByEntity, sourceID)
	if err != nil {
		return nil, err
	}
	if err := c.buildEdges(ctx, graph, relations, nodeIDs); err != nil {
		return nil, err
	}
	if err := c.buildDocumentChunks(ctx, graph, sourceText, sourceID); err != nil {
		return nil, err
	}
	if err := c.buildAttributeNodes(ctx, graph); err != nil {
		return nil, err
	}

	graph.Metadata["source_id"] = sourceID
	graph.Metadata["node_count"] = len(graph.Nodes)
	graph.Metadata["edge_count"] = len(graph.Edges)
	graph.Metadata["document_chunk_count"] = len(graph.DocumentChunks)
	graph.Metadata["attribute_node_count"] = len(graph.AttributeNodes)
	graph.Metadata["entity_types"] = distinctEntityTypes(graph)
	graph.Metadata["relation_types"] = distinctRelationTypes(graph)

	return graph, nil
}

func (c *Constructor) buildNodes(
	ctx context.Context,
	graph *common.KnowledgeGraph,
	entities []common.Entity,
	attributesByEntity map[string][]common.Attribute,
	sourceID string,
) (map[string]string, error) {
	texts := make([][]byte, len(entities))
	attrs := make([]map[string]common.Attribute, len(entities))
	for i, e := range entities {
		attrs[i] = attributesForEntity(e, attributesByEntity)
		texts[i] = []byte(entityEmbeddingText(e, attrs[i]))
	}

	embeddings, err := ai.GenerateEmbeddings(ctx, c.aiClient, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed entities: %w", err)
	}

	// entity text and canonical form both resolve to the node id so
	// relation endpoints can reference either
	nodeIDs := make(map[string]string, len(entities)*2)
	for i, e := range entities {
		id := uniqueID(graphNodeID(sourceID, e), func(candidate string) bool {
			_, taken := graph.Nodes[candidate]
			return taken
		})
		graph.Nodes[id] = &common.GraphNode{
			ID:         id,
			Entity:     e,
			Attributes: attrs[i],
			Embedding:  embeddings[i],
			Metadata:   map[string]any{"source_id": sourceID},
		}
		nodeIDs[strings.ToLower(e.Text)] = id
		nodeIDs[strings.ToLower(e.Canonical())] = id
	}
	return nodeIDs, nil
}

func (c *Constructor) buildEdges(
	ctx context.Context,
	graph *common.KnowledgeGraph,
	relations []common.Relation,
	nodeIDs map[string]string,
) error {
	type resolved struct {
		relation common.Relation
		sourceID string
		targetID string
	}

	kept := make([]resolved, 0, len(relations))
	for _, r := range relations {
		src, okS := nodeIDs[strings.ToLower(r.Subject.Text)]
		dst, okO := nodeIDs[strings.ToLower(r.Object.Text)]
		if !okS || !okO {
			logger.Debug("Dropping relation with unresolved endpoint", "subject", r.Subject.Text, "object", r.Object.Text)
			continue
		}
		kept = append(kept, resolved{relation: r, sourceID: src, targetID: dst})
	}

	texts := make([][]byte, len(kept))
	for i, k := range kept {
		texts[i] = []byte(relationEmbeddingText(k.relation))
	}
	embeddings, err := ai.GenerateEmbeddings(ctx, c.aiClient, texts)
	if err != nil {
		return fmt.Errorf("failed to embed relations: %w", err)
	}

	for i, k := range kept {
		id := fmt.Sprintf("%s__%s__%d", k.sourceID, k.targetID, i)
		graph.Edges[id] = &common.GraphEdge{
			ID:        id,
			SourceID:  k.sourceID,
			TargetID:  k.targetID,
			Relation:  k.relation,
			Embedding: embeddings[i],
			Weight:    k.relation.Confidence,
			Metadata:  map[string]any{},
		}
	}
	return nil
}

func (c *Constructor) buildDocumentChunks(
	ctx context.Context,
	graph *common.KnowledgeGraph,
	sourceText string,
	sourceID string,
) error {
	if len(sourceText) <= c.chunkThreshold {
		return nil
	}

	chunks := SplitText(sourceText, c.chunkSize, c.overlap)
	texts := make([][]byte, len(chunks))
	for i, ch := range chunks {
		texts[i] = []byte(ch.Text)
	}
	embeddings, err := ai.GenerateEmbeddings(ctx, c.aiClient, texts)
	if err != nil {
		return fmt.Errorf("failed to embed document chunks: %w", err)
	}

	for i, ch := range chunks {
		id := fmt.Sprintf("%s_chunk_%d", sourceID, ch.Index)
		graph.DocumentChunks[id] = &common.DocumentChunk{
			ID:             id,
			Text:           ch.Text,
			ChunkIndex:     ch.Index,
			SourceDocument: sourceID,
			Embedding:      embeddings[i],
		}
	}
	return nil
}

// buildAttributeNodes promotes every node attribute to a searchable
// attribute node. Embedding inputs are collected across all nodes and
// embedded in one batch.
func (c *Constructor) buildAttributeNodes(
	ctx context.Context,
	graph *common.KnowledgeGraph,
) error {
	type pending struct {
		nodeID string
		attr   common.Attribute
	}

	nodeIDs := make([]string, 0, len(graph.Nodes))
	for id := range graph.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	var all []pending
	for _, nodeID := range nodeIDs {
		node := graph.Nodes[nodeID]
		names := make([]string, 0, len(node.Attributes))
		for name := range node.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			all = append(all, pending{nodeID: nodeID, attr: node.Attributes[name]})
		}
	}

	texts := make([][]byte, len(all))
	for i, p := range all {
		texts[i] = []byte(attributeEmbeddingText(p.attr))
	}
	embeddings, err := ai.GenerateEmbeddings(ctx, c.aiClient, texts)
	if err != nil {
		return fmt.Errorf("failed to embed attributes: %w", err)
	}

	for i, p := range all {
		id := fmt.Sprintf("attr_%s_%s", p.nodeID, sanitizeIDPart(p.attr.Name))
		graph.AttributeNodes[id] = &common.AttributeNode{
			ID:         id,
			EntityID:   p.nodeID,
			Name:       p.attr.Name,
			Value:      p.attr.Value,
			Type:       p.attr.Type,
			Confidence: p.attr.Confidence,
			Embedding:  embeddings[i],
		}
	}
	return nil
}

// attributesForEntity resolves the attribute list for an entity, checking
// both its surface text and canonical form, and keeps the
// highest-confidence version per attribute name.
func attributesForEntity(
	e common.Entity,
	attributesByEntity map[string][]common.Attribute,
) map[string]common.Attribute {
	out := make(map[string]common.Attribute)
	for owner, attrs := range attributesByEntity {
		if !strings.EqualFold(owner, e.Text) && !strings.EqualFold(owner, e.Canonical()) {
			continue
		}
		for _, a := range attrs {
			if kept, ok := out[a.Name]; !ok || a.Confidence > kept.Confidence {
				out[a.Name] = a
			}
		}
	}
	return out
}

func entityEmbeddingText(e common.Entity, attrs map[string]common.Attribute) string {
	var b strings.Builder
	b.WriteString(e.Canonical())
	b.WriteString(" ")
	b.WriteString(string(e.Type))

	names := make([]string, 0, len(attrs))
	for name, a := range attrs {
		if a.Confidence >= attrEmbedConfidence {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(attrs[name].Value)
	}
	return b.String()
}

func relationEmbeddingText(r common.Relation) string {
	text := fmt.Sprintf("%s %s %s", r.Subject.Text, r.Predicate, r.Object.Text)
	if r.Context != "" {
		text += fmt.Sprintf(" [context: %s]", r.Context)
	}
	return text
}

func attributeEmbeddingText(a common.Attribute) string {
	return fmt.Sprintf("%s: %s (type: %s)", a.Name, a.Value, a.Type)
}

func graphNodeID(sourceID string, e common.Entity) string {
	return fmt.Sprintf(
		"%s_%s_%s",
		sourceID,
		strings.ToLower(string(e.Type)),
		sanitizeIDPart(e.Canonical()),
	)
}

// sanitizeIDPart lowercases and maps anything outside [a-z0-9] to '_',
// collapsing runs.
func sanitizeIDPart(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// uniqueID appends a numeric suffix until taken reports the candidate free.
func uniqueID(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func distinctEntityTypes(graph *common.KnowledgeGraph) []string {
	seen := make(map[string]bool)
	for _, n := range graph.Nodes {
		seen[string(n.Entity.Type)] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func distinctRelationTypes(graph *common.KnowledgeGraph) []string {
	seen := make(map[string]bool)
	for _, e := range graph.Edges {
		seen[string(e.Relation.Type)] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
