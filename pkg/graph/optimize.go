package graph

import (
	"sort"
	"strings"

	"github.com/graphloom/graphloom/pkg/common"
)

// OptimizeGraph merges duplicate nodes and collapses redundant parallel
// edges, returning a new graph. Document chunks and attribute nodes are
// passed through unchanged. The input graph is not mutated.
func OptimizeGraph(graph *common.KnowledgeGraph) *common.KnowledgeGraph {
	out := common.NewKnowledgeGraph()
	out.CreatedAt = graph.CreatedAt
	for k, v := range graph.Metadata {
		out.Metadata[k] = v
	}
	for id, chunk := range graph.DocumentChunks {
		out.DocumentChunks[id] = chunk
	}
	for id, attr := range graph.AttributeNodes {
		out.AttributeNodes[id] = attr
	}

	remap := mergeNodes(graph, out)
	collapseEdges(graph, out, remap)

	out.Metadata["nodes_before_optimization"] = len(graph.Nodes)
	out.Metadata["nodes_after_optimization"] = len(out.Nodes)
	out.Metadata["edges_before_optimization"] = len(graph.Edges)
	out.Metadata["edges_after_optimization"] = len(out.Edges)
	out.Metadata["node_count"] = len(out.Nodes)
	out.Metadata["edge_count"] = len(out.Edges)

	return out
}

// mergeNodes groups nodes by lowercased canonical form. The
// highest-confidence node of each group survives with unioned aliases and
// the best version of each attribute. Returns the old-id to new-id map.
func mergeNodes(graph *common.KnowledgeGraph, out *common.KnowledgeGraph) map[string]string {
	groups := make(map[string][]string)
	for id, node := range graph.Nodes {
		key := strings.ToLower(node.Entity.Canonical())
		groups[key] = append(groups[key], id)
	}

	remap := make(map[string]string, len(graph.Nodes))
	for _, ids := range groups {
		sort.Strings(ids)

		baseID := ids[0]
		for _, id := range ids[1:] {
			if graph.Nodes[id].Entity.Confidence > graph.Nodes[baseID].Entity.Confidence {
				baseID = id
			}
		}

		base := graph.Nodes[baseID]
		merged := &common.GraphNode{
			ID:         base.ID,
			Entity:     base.Entity,
			Attributes: make(map[string]common.Attribute, len(base.Attributes)),
			Embedding:  base.Embedding,
			Metadata:   make(map[string]any, len(base.Metadata)),
		}
		for k, v := range base.Metadata {
			merged.Metadata[k] = v
		}
		for k, v := range base.Attributes {
			merged.Attributes[k] = v
		}

		if len(ids) > 1 {
			mergedFrom := make([]string, 0, len(ids)-1)
			for _, id := range ids {
				remap[id] = base.ID
				if id == baseID {
					continue
				}
				mergedFrom = append(mergedFrom, id)

				other := graph.Nodes[id]
				merged.Entity.Aliases = unionAliases(merged.Entity.Aliases, other.Entity.Aliases)
				for name, attr := range other.Attributes {
					if kept, ok := merged.Attributes[name]; !ok || attr.Confidence > kept.Confidence {
						merged.Attributes[name] = attr
					}
				}
			}
			merged.Metadata["merged_from"] = mergedFrom
			merged.Metadata["merge_count"] = len(ids)
		} else {
			remap[baseID] = base.ID
		}

		out.Nodes[merged.ID] = merged
	}

	return remap
}

// collapseEdges remaps edge endpoints onto surviving nodes and keeps one
// edge per (source, target) pair, the one with the maximum weight. The
// displaced relation types are recorded on the survivor's metadata.
func collapseEdges(graph *common.KnowledgeGraph, out *common.KnowledgeGraph, remap map[string]string) {
	type pairGroup struct {
		ids []string
	}

	groups := make(map[string]*pairGroup)
	endpoint := func(id string) (string, string, bool) {
		edge := graph.Edges[id]
		src, okS := remap[edge.SourceID]
		dst, okO := remap[edge.TargetID]
		return src, dst, okS && okO
	}

	edgeIDs := make([]string, 0, len(graph.Edges))
	for id := range graph.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)

	for _, id := range edgeIDs {
		src, dst, ok := endpoint(id)
		if !ok {
			continue
		}
		key := src + "->" + dst
		if groups[key] == nil {
			groups[key] = &pairGroup{}
		}
		groups[key].ids = append(groups[key].ids, id)
	}

	for _, group := range groups {
		bestID := group.ids[0]
		for _, id := range group.ids[1:] {
			if graph.Edges[id].Weight > graph.Edges[bestID].Weight {
				bestID = id
			}
		}

		best := graph.Edges[bestID]
		src, dst, _ := endpoint(bestID)
		kept := &common.GraphEdge{
			ID:        best.ID,
			SourceID:  src,
			TargetID:  dst,
			Relation:  best.Relation,
			Embedding: best.Embedding,
			Weight:    best.Weight,
			Metadata:  make(map[string]any, len(best.Metadata)),
		}
		for k, v := range best.Metadata {
			kept.Metadata[k] = v
		}

		if len(group.ids) > 1 {
			relationTypes := make([]string, 0, len(group.ids))
			for _, id := range group.ids {
				relationTypes = append(relationTypes, string(graph.Edges[id].Relation.Type))
			}
			kept.Metadata["merged_relations"] = relationTypes
			kept.Metadata["merged_edge_count"] = len(group.ids)
		}

		out.Edges[kept.ID] = kept
	}
}
