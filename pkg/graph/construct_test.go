package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/common"
)

// fakeAIClient implements ai.GraphAIClient for tests. Structured responses
// come from respond, keyed by the schema name of the call.
type fakeAIClient struct {
	mu sync.Mutex

	respond    func(name, prompt string) (string, error)
	embedErr   error
	embedCalls int
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	f.mu.Lock()
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return errors.New("no responder configured")
	}
	payload, err := respond(name, prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, float32(len(input))}, nil
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testConstructor(t *testing.T, client ai.GraphAIClient, threshold int) *Constructor {
	t.Helper()
	c, err := NewConstructor(NewConstructorParams{
		AIClient:       client,
		ChunkThreshold: threshold,
		ChunkSize:      100,
		Overlap:        10,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBuildGraph(t *testing.T) {
	client := &fakeAIClient{}
	c := testConstructor(t, client, 1000)

	entities := []common.Entity{
		{Text: "Apple Inc.", Type: common.EntityOrganization, CanonicalForm: "Apple Inc.", Confidence: 0.95},
		{Text: "Tim Cook", Type: common.EntityPerson, Confidence: 0.9},
	}
	relations := []common.Relation{
		{
			Subject:    entities[1],
			Predicate:  "works for",
			Object:     entities[0],
			Type:       common.RelationWorksFor,
			Confidence: 0.85,
		},
	}
	attributes := map[string][]common.Attribute{
		"Tim Cook": {
			{Name: "role", Value: "CEO", Type: common.AttributeText, Confidence: 0.9},
		},
	}

	graph, err := c.BuildGraph(context.Background(), entities, relations, attributes, "short source", "doc1")
	if err != nil {
		t.Fatal(err)
	}

	if len(graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
	}
	if len(graph.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(graph.Edges))
	}
	if len(graph.DocumentChunks) != 0 {
		t.Errorf("expected no document chunks below threshold, got %d", len(graph.DocumentChunks))
	}
	if len(graph.AttributeNodes) != 1 {
		t.Fatalf("expected 1 attribute node, got %d", len(graph.AttributeNodes))
	}

	node, ok := graph.Nodes["doc1_organization_apple_inc"]
	if !ok {
		t.Fatalf("expected content-derived node id, got %v", nodeIDList(graph))
	}
	if len(node.Embedding) == 0 {
		t.Error("expected node embedding to be set")
	}
	if node.Metadata["source_id"] != "doc1" {
		t.Errorf("expected source_id metadata, got %v", node.Metadata)
	}

	for _, e := range graph.Edges {
		if _, ok := graph.Nodes[e.SourceID]; !ok {
			t.Errorf("edge source %q does not resolve to a node", e.SourceID)
		}
		if _, ok := graph.Nodes[e.TargetID]; !ok {
			t.Errorf("edge target %q does not resolve to a node", e.TargetID)
		}
		if e.Weight != 0.85 {
			t.Errorf("expected edge weight to mirror confidence, got %v", e.Weight)
		}
	}

	for id, a := range graph.AttributeNodes {
		if !strings.HasPrefix(id, "attr_") {
			t.Errorf("expected attr_ prefixed id, got %q", id)
		}
		if _, ok := graph.Nodes[a.EntityID]; !ok {
			t.Errorf("attribute node references missing entity %q", a.EntityID)
		}
	}

	if graph.Metadata["node_count"] != 2 || graph.Metadata["edge_count"] != 1 {
		t.Errorf("unexpected metadata counts: %v", graph.Metadata)
	}
}

func TestBuildGraphDropsDanglingRelations(t *testing.T) {
	client := &fakeAIClient{}
	c := testConstructor(t, client, 1000)

	entities := []common.Entity{
		{Text: "Apple", Type: common.EntityOrganization, Confidence: 0.9},
	}
	relations := []common.Relation{
		{
			Subject:    common.Entity{Text: "Apple"},
			Predicate:  "acquired",
			Object:     common.Entity{Text: "Unknown Corp"},
			Confidence: 0.8,
		},
	}

	graph, err := c.BuildGraph(context.Background(), entities, relations, nil, "text", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(graph.Edges) != 0 {
		t.Errorf("expected dangling relation dropped without error, got %d edges", len(graph.Edges))
	}
	if len(graph.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(graph.Nodes))
	}
}

func TestBuildGraphNodeIDCollision(t *testing.T) {
	client := &fakeAIClient{}
	c := testConstructor(t, client, 1000)

	entities := []common.Entity{
		{Text: "Apple", Type: common.EntityOrganization, Confidence: 0.9},
		{Text: "APPLE", Type: common.EntityOrganization, Confidence: 0.8},
	}

	graph, err := c.BuildGraph(context.Background(), entities, nil, nil, "text", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
	}
	if _, ok := graph.Nodes["doc1_organization_apple"]; !ok {
		t.Errorf("expected base id present, got %v", nodeIDList(graph))
	}
	if _, ok := graph.Nodes["doc1_organization_apple_2"]; !ok {
		t.Errorf("expected suffixed id on collision, got %v", nodeIDList(graph))
	}
}

func TestBuildGraphDocumentChunks(t *testing.T) {
	client := &fakeAIClient{}
	c := testConstructor(t, client, 100)

	source := strings.Repeat("a", 250)
	graph, err := c.BuildGraph(context.Background(), nil, nil, nil, source, "doc1")
	if err != nil {
		t.Fatal(err)
	}

	if len(graph.DocumentChunks) == 0 {
		t.Fatal("expected document chunks above threshold")
	}
	if _, ok := graph.DocumentChunks["doc1_chunk_0"]; !ok {
		t.Errorf("expected doc1_chunk_0, got %v", chunkIDList(graph))
	}
	for _, ch := range graph.DocumentChunks {
		if ch.SourceDocument != "doc1" {
			t.Errorf("expected source document doc1, got %q", ch.SourceDocument)
		}
		if len(ch.Embedding) == 0 {
			t.Errorf("expected chunk %s to be embedded", ch.ID)
		}
	}
}

func TestBuildGraphEmbeddingFailureIsFatal(t *testing.T) {
	client := &fakeAIClient{embedErr: errors.New("embedding backend down")}
	c := testConstructor(t, client, 1000)

	entities := []common.Entity{{Text: "Apple", Type: common.EntityOrganization, Confidence: 0.9}}
	_, err := c.BuildGraph(context.Background(), entities, nil, nil, "text", "doc1")
	if err == nil {
		t.Fatal("expected construction to fail when embedding fails")
	}
}

func TestSanitizeIDPart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apple Inc.", "apple_inc"},
		{"  Tim Cook ", "tim_cook"},
		{"A--B", "a_b"},
		{"café", "caf"},
		{"2024 Report", "2024_report"},
	}
	for _, tt := range tests {
		if got := sanitizeIDPart(tt.in); got != tt.want {
			t.Errorf("sanitizeIDPart(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func nodeIDList(graph *common.KnowledgeGraph) []string {
	out := make([]string, 0, len(graph.Nodes))
	for id := range graph.Nodes {
		out = append(out, id)
	}
	return out
}

func chunkIDList(graph *common.KnowledgeGraph) []string {
	out := make([]string, 0, len(graph.DocumentChunks))
	for id := range graph.DocumentChunks {
		out = append(out, id)
	}
	return out
}
