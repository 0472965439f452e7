package query

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/store"
)

type fakeAIClient struct {
	embedErr error
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not used")
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// fakeStorage implements store.GraphStorage with canned per-label results.
type fakeStorage struct {
	byLabel   map[store.SearchLabel][]store.SearchResult
	relations []store.SearchResult

	searchErr    map[store.SearchLabel]error
	relationsErr error

	neighbors    map[string][]string
	neighborsErr error
	paths        map[string]*store.PathResult
}

func (f *fakeStorage) StoreEntity(ctx context.Context, e store.EntityRecord) error    { return nil }
func (f *fakeStorage) StoreRelationship(ctx context.Context, r store.RelationRecord) error {
	return nil
}
func (f *fakeStorage) StoreDocumentChunk(ctx context.Context, d store.DocumentRecord) error {
	return nil
}
func (f *fakeStorage) StoreAttributeNode(ctx context.Context, a store.AttributeRecord) error {
	return nil
}
func (f *fakeStorage) DeleteSource(ctx context.Context, sourceID string) error { return nil }

func (f *fakeStorage) VectorSimilaritySearch(ctx context.Context, embedding []float32, limit int, threshold float64, label store.SearchLabel) ([]store.SearchResult, error) {
	if err := f.searchErr[label]; err != nil {
		return nil, err
	}
	return f.byLabel[label], nil
}

func (f *fakeStorage) VectorSimilaritySearchRelations(ctx context.Context, embedding []float32, limit int, threshold float64) ([]store.SearchResult, error) {
	if f.relationsErr != nil {
		return nil, f.relationsErr
	}
	return f.relations, nil
}

func (f *fakeStorage) GetEntityNeighbors(ctx context.Context, name string, depth int) ([]string, error) {
	if f.neighborsErr != nil {
		return nil, f.neighborsErr
	}
	return f.neighbors[strings.ToLower(name)], nil
}

func (f *fakeStorage) FindShortestPath(ctx context.Context, a, b string) (*store.PathResult, error) {
	if p, ok := f.paths[strings.ToLower(a)+"|"+strings.ToLower(b)]; ok {
		return p, nil
	}
	return &store.PathResult{Found: false}, nil
}

func (f *fakeStorage) GetEntity(ctx context.Context, name string) (*store.EntityRecord, error) {
	return nil, nil
}

func testRetriever(t *testing.T, storage store.GraphStorage, client ai.GraphAIClient) *Retriever {
	t.Helper()
	r, err := NewRetriever(NewRetrieverParams{Storage: storage, AIClient: client})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRetrieveRanking(t *testing.T) {
	storage := &fakeStorage{
		byLabel: map[store.SearchLabel][]store.SearchResult{
			store.SearchEntities: {
				{ID: "e1", Text: "Apple", Type: "ORGANIZATION", Score: 0.95},
				{ID: "e3", Text: "Cupertino", Type: "LOCATION", Score: 0.60},
			},
			store.SearchDocuments: {
				{ID: "d1", Text: "chunk text", Type: "document", Score: 0.80},
			},
		},
	}
	r := testRetriever(t, storage, &fakeAIClient{})

	results, err := r.Retrieve(context.Background(), "apple", RetrieveParams{TopK: 2})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected top_k results, got %d", len(results))
	}
	if results[0].ID != "e1" || results[1].ID != "d1" {
		t.Errorf("expected [e1 d1] by descending score, got [%s %s]", results[0].ID, results[1].ID)
	}
	if results[0].Score != 0.95 {
		t.Errorf("expected raw score preserved, got %v", results[0].Score)
	}
	if results[0].Mode != ModeEntities || results[1].Mode != ModeDocuments {
		t.Errorf("unexpected modes: %s %s", results[0].Mode, results[1].Mode)
	}
}

func TestRetrieveNoCandidates(t *testing.T) {
	r := testRetriever(t, &fakeStorage{}, &fakeAIClient{})

	results, err := r.Retrieve(context.Background(), "anything", RetrieveParams{})
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", results)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	r := testRetriever(t, &fakeStorage{}, &fakeAIClient{embedErr: errors.New("backend down")})

	results, err := r.Retrieve(context.Background(), "anything", RetrieveParams{})
	if err != nil {
		t.Fatal("embedding failure must not surface as an error")
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestRetrieveFailingModeExcluded(t *testing.T) {
	storage := &fakeStorage{
		byLabel: map[store.SearchLabel][]store.SearchResult{
			store.SearchEntities: {
				{ID: "e1", Text: "Apple", Type: "ORGANIZATION", Score: 0.9},
			},
		},
		searchErr: map[store.SearchLabel]error{
			store.SearchDocuments: errors.New("documents table unavailable"),
		},
	}
	trace := &CollectingTracer{}
	r, err := NewRetriever(NewRetrieverParams{Storage: storage, AIClient: &fakeAIClient{}, Trace: trace})
	if err != nil {
		t.Fatal(err)
	}

	results, err := r.Retrieve(context.Background(), "apple", RetrieveParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "e1" {
		t.Fatalf("expected the surviving mode's candidate, got %v", results)
	}
	if !reflect.DeepEqual(trace.FailedModes(), []string{"documents"}) {
		t.Errorf("expected documents recorded as failed, got %v", trace.FailedModes())
	}
}

func TestRetrieveGraphContext(t *testing.T) {
	storage := &fakeStorage{
		byLabel: map[store.SearchLabel][]store.SearchResult{
			store.SearchEntities: {
				{ID: "e1", Text: "Apple", Type: "ORGANIZATION", Score: 0.95},
				{ID: "e2", Text: "Tim Cook", Type: "PERSON", Score: 0.90},
			},
		},
		neighbors: map[string][]string{
			"apple":    {"Cupertino", "iPhone", "Steve Jobs", "Tim Cook", "App Store", "macOS", "iPad"},
			"tim cook": {"Apple"},
		},
		paths: map[string]*store.PathResult{
			"apple|tim cook": {Found: true, Length: 1, Nodes: []string{"Apple", "Tim Cook"}},
		},
	}
	r := testRetriever(t, storage, &fakeAIClient{})

	results, err := r.Retrieve(context.Background(), "apple leadership", RetrieveParams{
		SearchModes:         []SearchMode{ModeEntities},
		IncludeGraphContext: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	apple := results[0]
	if len(apple.ConnectedEntities) != 7 {
		t.Errorf("expected 7 deduped connected entities, got %v", apple.ConnectedEntities)
	}
	if !strings.Contains(apple.Content, "connected to:") {
		t.Errorf("expected graph context in content, got %q", apple.Content)
	}
	if !strings.Contains(apple.Content, "+2 more") {
		t.Errorf("expected +2 more suffix at display cap, got %q", apple.Content)
	}
	if apple.Metadata["neighbor_count"] != 7 {
		t.Errorf("expected neighbor_count 7, got %v", apple.Metadata["neighbor_count"])
	}
	if apple.Metadata["path_count"] != 1 {
		t.Errorf("expected path_count 1, got %v", apple.Metadata["path_count"])
	}
}

func TestRetrieveGraphContextFailureDegrades(t *testing.T) {
	storage := &fakeStorage{
		byLabel: map[store.SearchLabel][]store.SearchResult{
			store.SearchEntities: {
				{ID: "e1", Text: "Apple", Type: "ORGANIZATION", Score: 0.95},
			},
		},
		neighborsErr: errors.New("traversal timeout"),
	}
	r := testRetriever(t, storage, &fakeAIClient{})

	results, err := r.Retrieve(context.Background(), "apple", RetrieveParams{
		SearchModes:         []SearchMode{ModeEntities},
		IncludeGraphContext: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected semantic-only result, got %d", len(results))
	}
	if results[0].Content != "Apple (ORGANIZATION)" {
		t.Errorf("expected plain content without graph context, got %q", results[0].Content)
	}
	if len(results[0].ConnectedEntities) != 0 {
		t.Errorf("expected no connected entities, got %v", results[0].ConnectedEntities)
	}
}

func TestRetrieveProvidedEmbedding(t *testing.T) {
	storage := &fakeStorage{
		byLabel: map[store.SearchLabel][]store.SearchResult{
			store.SearchEntities: {{ID: "e1", Text: "Apple", Type: "ORGANIZATION", Score: 0.9}},
		},
	}
	// embedding provided by the caller, so the failing client is never hit
	r := testRetriever(t, storage, &fakeAIClient{embedErr: errors.New("backend down")})

	results, err := r.Retrieve(context.Background(), "apple", RetrieveParams{
		QueryEmbedding: []float32{1, 0, 0},
		SearchModes:    []SearchMode{ModeEntities},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestFormatEntityContent(t *testing.T) {
	tests := []struct {
		name      string
		connected []string
		want      string
	}{
		{
			name:      "no connections",
			connected: nil,
			want:      "Apple (ORGANIZATION)",
		},
		{
			name:      "under cap",
			connected: []string{"Tim Cook", "Cupertino"},
			want:      "Apple (ORGANIZATION), connected to: Tim Cook, Cupertino",
		},
		{
			name:      "over cap",
			connected: []string{"a", "b", "c", "d", "e", "f", "g"},
			want:      "Apple (ORGANIZATION), connected to: a, b, c, d, e +2 more",
		},
	}
	for _, tt := range tests {
		if got := formatEntityContent("Apple", "ORGANIZATION", tt.connected); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
