package graph

import (
	"fmt"

	"github.com/graphloom/graphloom/pkg/common"
)

// GraphStatistics summarizes the structure of a validated graph.
type GraphStatistics struct {
	TotalNodes    int            `json:"total_nodes"`
	TotalEdges    int            `json:"total_edges"`
	IsolatedNodes int            `json:"isolated_nodes"`
	AverageDegree float64        `json:"average_degree"`
	EntityTypes   map[string]int `json:"entity_types"`
	RelationTypes map[string]int `json:"relation_types"`
}

// ValidationResult reports structural integrity of a graph. Validation
// never mutates the graph; the caller decides whether to export anyway.
type ValidationResult struct {
	Valid      bool            `json:"valid"`
	Errors     []string        `json:"errors"`
	Warnings   []string        `json:"warnings"`
	Statistics GraphStatistics `json:"statistics"`
}

// ValidateGraph checks referential integrity and collects structural
// statistics. Dangling edges and empty entity texts are errors; edge
// weights outside [0,1] are warnings.
func ValidateGraph(graph *common.KnowledgeGraph) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	for id, node := range graph.Nodes {
		if node.Entity.Text == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("node %s has empty entity text", id))
			result.Valid = false
		}
	}

	degree := make(map[string]int, len(graph.Nodes))
	for id, edge := range graph.Edges {
		if _, ok := graph.Nodes[edge.SourceID]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("edge %s references missing source node %s", id, edge.SourceID))
			result.Valid = false
		} else {
			degree[edge.SourceID]++
		}
		if _, ok := graph.Nodes[edge.TargetID]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("edge %s references missing target node %s", id, edge.TargetID))
			result.Valid = false
		} else {
			degree[edge.TargetID]++
		}
		if edge.Weight < 0 || edge.Weight > 1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("edge %s has weight %v outside [0,1]", id, edge.Weight))
		}
	}

	stats := GraphStatistics{
		TotalNodes:    len(graph.Nodes),
		TotalEdges:    len(graph.Edges),
		EntityTypes:   make(map[string]int),
		RelationTypes: make(map[string]int),
	}
	totalDegree := 0
	for id, node := range graph.Nodes {
		stats.EntityTypes[string(node.Entity.Type)]++
		d := degree[id]
		totalDegree += d
		if d == 0 {
			stats.IsolatedNodes++
		}
	}
	for _, edge := range graph.Edges {
		stats.RelationTypes[string(edge.Relation.Type)]++
	}
	if len(graph.Nodes) > 0 {
		stats.AverageDegree = float64(totalDegree) / float64(len(graph.Nodes))
	}
	result.Statistics = stats

	return result
}
