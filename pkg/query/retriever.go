package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/store"
)

// SearchMode selects which node class a retrieval pass searches.
type SearchMode string

const (
	ModeEntities   SearchMode = "entities"
	ModeDocuments  SearchMode = "documents"
	ModeAttributes SearchMode = "attributes"
	ModeRelations  SearchMode = "relations"
)

// AllSearchModes is the default mode set.
var AllSearchModes = []SearchMode{ModeEntities, ModeDocuments, ModeAttributes, ModeRelations}

// connectedEntityDisplay caps how many connected entities appear in the
// formatted content before the "+N more" suffix.
const connectedEntityDisplay = 5

// RetrieveParams tunes one retrieval call. Zero values select sensible
// defaults.
type RetrieveParams struct {
	// TopK bounds the final result count and each per-mode search.
	// Zero means 10.
	TopK int

	// SimilarityThreshold filters vector search candidates. Zero means 0.5.
	SimilarityThreshold float64

	// GraphExpansionDepth is the k-hop neighborhood radius used when
	// graph context is included. Zero means 2.
	GraphExpansionDepth int

	// IncludeGraphContext enriches entity candidates with neighbors and
	// inter-candidate paths from the store.
	IncludeGraphContext bool

	// SearchModes restricts the search passes. Empty means all modes.
	SearchModes []SearchMode

	// QueryEmbedding skips query embedding when the caller already has
	// a vector.
	QueryEmbedding []float32
}

// RetrievalResult is one ranked retrieval candidate.
type RetrievalResult struct {
	ID                string         `json:"id"`
	Content           string         `json:"content"`
	Score             float64        `json:"score"`
	Mode              SearchMode     `json:"mode"`
	ConnectedEntities []string       `json:"connected_entities,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Retriever fuses vector similarity search over multiple node classes
// with optional graph traversal context. Both collaborators are injected
// and must be safe for concurrent use.
type Retriever struct {
	storage  store.GraphStorage
	aiClient ai.GraphAIClient
	trace    Tracer
}

// NewRetrieverParams configures a Retriever.
type NewRetrieverParams struct {
	Storage  store.GraphStorage
	AIClient ai.GraphAIClient
	Trace    Tracer
}

// NewRetriever creates a Retriever with the provided collaborators.
func NewRetriever(params NewRetrieverParams) (*Retriever, error) {
	if params.Storage == nil {
		return nil, errors.New("storage is required")
	}
	if params.AIClient == nil {
		return nil, errors.New("ai client is required")
	}
	return &Retriever{
		storage:  params.Storage,
		aiClient: params.AIClient,
		trace:    params.Trace,
	}, nil
}

// Retrieve answers a query with a ranked candidate list. Search modes run
// concurrently; a failing mode is logged and excluded without failing the
// others. Retrieval never raises for empty or failed searches, it returns
// an empty slice instead.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	params RetrieveParams,
) ([]RetrievalResult, error) {
	topK := params.TopK
	if topK <= 0 {
		topK = 10
	}
	threshold := params.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	depth := params.GraphExpansionDepth
	if depth <= 0 {
		depth = 2
	}
	modes := params.SearchModes
	if len(modes) == 0 {
		modes = AllSearchModes
	}

	embedding := params.QueryEmbedding
	if len(embedding) == 0 {
		var err error
		embedding, err = r.aiClient.GenerateEmbedding(ctx, []byte(query))
		if err != nil {
			logger.Error("Failed to embed query", "err", err)
			return []RetrievalResult{}, nil
		}
	}

	candidates := r.searchModes(ctx, embedding, topK, threshold, modes)
	if len(candidates) == 0 {
		return []RetrievalResult{}, nil
	}

	var graphContext *graphContext
	if params.IncludeGraphContext {
		gc, err := r.expandGraphContext(ctx, candidates, depth)
		if err != nil {
			logger.Warn("Graph context expansion failed, returning semantic-only results", "err", err)
			recordGraphContextError(r.trace, err)
		} else {
			graphContext = gc
		}
	}

	results := make([]RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, r.formatResult(c, graphContext))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	recordCandidateIDs(r.trace, ids...)

	return results, nil
}

type candidate struct {
	store.SearchResult
	mode SearchMode
}

// searchModes fans out one vector search per requested mode and
// concatenates the candidates. Failed modes are excluded.
func (r *Retriever) searchModes(
	ctx context.Context,
	embedding []float32,
	topK int,
	threshold float64,
	modes []SearchMode,
) []candidate {
	modeNames := make([]string, len(modes))
	for i, m := range modes {
		modeNames[i] = string(m)
	}
	recordSearchedModes(r.trace, modeNames...)

	perMode := make([][]store.SearchResult, len(modes))

	var wg sync.WaitGroup
	for i, mode := range modes {
		wg.Add(1)
		go func(idx int, mode SearchMode) {
			defer wg.Done()

			var (
				res []store.SearchResult
				err error
			)
			switch mode {
			case ModeRelations:
				res, err = r.storage.VectorSimilaritySearchRelations(ctx, embedding, topK, threshold)
			case ModeEntities:
				res, err = r.storage.VectorSimilaritySearch(ctx, embedding, topK, threshold, store.SearchEntities)
			case ModeDocuments:
				res, err = r.storage.VectorSimilaritySearch(ctx, embedding, topK, threshold, store.SearchDocuments)
			case ModeAttributes:
				res, err = r.storage.VectorSimilaritySearch(ctx, embedding, topK, threshold, store.SearchAttributes)
			default:
				err = fmt.Errorf("unknown search mode: %s", mode)
			}
			if err != nil {
				logger.Warn("Search mode failed, excluding from results", "mode", mode, "err", err)
				recordFailedMode(r.trace, string(mode), err)
				return
			}
			perMode[idx] = res
		}(i, mode)
	}
	wg.Wait()

	var candidates []candidate
	for i, mode := range modes {
		for _, res := range perMode[i] {
			candidates = append(candidates, candidate{SearchResult: res, mode: mode})
		}
	}
	return candidates
}

type graphContext struct {
	neighbors map[string][]string
	paths     []*store.PathResult
}

// expandGraphContext collects k-hop neighbors for every entity candidate
// and bounded shortest paths between all candidate pairs.
func (r *Retriever) expandGraphContext(
	ctx context.Context,
	candidates []candidate,
	depth int,
) (*graphContext, error) {
	names := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.mode != ModeEntities {
			continue
		}
		key := strings.ToLower(c.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, c.Text)
	}
	if len(names) == 0 {
		return &graphContext{neighbors: map[string][]string{}}, nil
	}
	recordExpandedEntities(r.trace, names...)

	gc := &graphContext{neighbors: make(map[string][]string, len(names))}
	for _, name := range names {
		neighbors, err := r.storage.GetEntityNeighbors(ctx, name, depth)
		if err != nil {
			return nil, err
		}
		gc.neighbors[strings.ToLower(name)] = neighbors
	}

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			path, err := r.storage.FindShortestPath(ctx, names[i], names[j])
			if err != nil {
				return nil, err
			}
			if path != nil && path.Found {
				gc.paths = append(gc.paths, path)
			}
		}
	}

	return gc, nil
}

// formatResult builds the final result for one candidate, deriving its
// connected entities from the neighbor set and the paths it appears on.
func (r *Retriever) formatResult(c candidate, gc *graphContext) RetrievalResult {
	result := RetrievalResult{
		ID:      c.ID,
		Score:   c.Score,
		Mode:    c.mode,
		Content: fmt.Sprintf("%s (%s)", c.Text, c.Type),
		Metadata: map[string]any{
			"search_mode": string(c.mode),
		},
	}

	if gc == nil || c.mode != ModeEntities {
		return result
	}

	key := strings.ToLower(c.Text)
	connected := append([]string{}, gc.neighbors[key]...)

	pathCount := 0
	for _, path := range gc.paths {
		onPath := false
		for _, node := range path.Nodes {
			if strings.EqualFold(node, c.Text) {
				onPath = true
				break
			}
		}
		if !onPath {
			continue
		}
		pathCount++
		for _, node := range path.Nodes {
			if !strings.EqualFold(node, c.Text) {
				connected = append(connected, node)
			}
		}
	}

	result.ConnectedEntities = dedupeNames(connected)
	result.Metadata["neighbor_count"] = len(gc.neighbors[key])
	result.Metadata["path_count"] = pathCount
	result.Content = formatEntityContent(c.Text, c.Type, result.ConnectedEntities)

	return result
}

func formatEntityContent(name string, entityType string, connected []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", name, entityType)
	if len(connected) == 0 {
		return b.String()
	}

	shown := connected
	more := 0
	if len(shown) > connectedEntityDisplay {
		more = len(shown) - connectedEntityDisplay
		shown = shown[:connectedEntityDisplay]
	}
	fmt.Fprintf(&b, ", connected to: %s", strings.Join(shown, ", "))
	if more > 0 {
		fmt.Fprintf(&b, " +%d more", more)
	}
	return b.String()
}

func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
