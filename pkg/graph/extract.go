package graph

import (
	"context"
	"strings"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/common"
)

// chunkResult holds the converted extraction output of one chunk.
// A failed chunk carries empty sets and failed=true.
type chunkResult struct {
	index  int
	failed bool

	entities   []common.Entity
	relations  []common.Relation
	attributes map[string][]common.Attribute
}

func emptyChunkResult(index int, failed bool) *chunkResult {
	return &chunkResult{
		index:      index,
		failed:     failed,
		attributes: make(map[string][]common.Attribute),
	}
}

func extractFromChunk(
	ctx context.Context,
	chunk TextChunk,
	client ai.GraphAIClient,
	domainHint string,
	confidenceThreshold float64,
	maxRetries int,
) (*chunkResult, error) {
	res, err := ai.CallExtractAI(ctx, client, chunk.Text, domainHint, confidenceThreshold, maxRetries)
	if err != nil {
		return nil, err
	}
	return convertExtraction(res, chunk), nil
}

// convertExtraction maps the raw model payload onto the graph data model,
// resolving entity offsets against the chunk and relation endpoints
// against the extracted entity set.
func convertExtraction(res *ai.ExtractionResult, chunk TextChunk) *chunkResult {
	out := emptyChunkResult(chunk.Index, false)

	byName := make(map[string]common.Entity, len(res.Entities))
	for _, e := range res.Entities {
		name := ai.NormalizeName(e.Name)
		entity := common.Entity{
			Text:          name,
			Type:          common.ParseEntityType(e.Type),
			CanonicalForm: ai.NormalizeName(e.CanonicalForm),
			Aliases:       cleanAliases(e.Aliases),
			Confidence:    e.Confidence,
		}
		if idx := strings.Index(strings.ToLower(chunk.Text), strings.ToLower(name)); idx >= 0 {
			entity.Start = chunk.Start + idx
			entity.End = chunk.Start + idx + len(name)
		}
		out.entities = append(out.entities, entity)
		byName[strings.ToLower(name)] = entity
	}

	for _, r := range res.Relations {
		subject, okS := byName[strings.ToLower(ai.NormalizeName(r.Subject))]
		object, okO := byName[strings.ToLower(ai.NormalizeName(r.Object))]
		if !okS {
			subject = common.Entity{Text: ai.NormalizeName(r.Subject)}
		}
		if !okO {
			object = common.Entity{Text: ai.NormalizeName(r.Object)}
		}
		out.relations = append(out.relations, common.Relation{
			Subject:    subject,
			Object:     object,
			Predicate:  strings.TrimSpace(r.Predicate),
			Type:       common.ParseRelationType(r.Type),
			Confidence: r.Confidence,
			Context:    strings.TrimSpace(r.Context),
		})
	}

	for _, a := range res.Attributes {
		owner := ai.NormalizeName(a.EntityName)
		attr := common.NormalizeAttribute(strings.TrimSpace(a.Name), a.Value, chunkSnippet(chunk), a.Confidence)
		out.attributes[owner] = append(out.attributes[owner], attr)
	}

	return out
}

func cleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		a = ai.NormalizeName(a)
		if a == "" || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		out = append(out, a)
	}
	return out
}

// chunkSnippet returns a short source reference for attribute provenance.
func chunkSnippet(chunk TextChunk) string {
	const maxSnippet = 120
	if len(chunk.Text) <= maxSnippet {
		return chunk.Text
	}
	return chunk.Text[:maxSnippet]
}

// extractSequential is the degraded whole-text path used when every chunk
// fails: one entity pass, then relation and attribute passes constrained
// to the found entity names.
func extractSequential(
	ctx context.Context,
	client ai.GraphAIClient,
	text string,
	domainHint string,
	confidenceThreshold float64,
	maxRetries int,
) (*chunkResult, error) {
	entities, err := ai.CallExtractEntities(ctx, client, text, domainHint, confidenceThreshold, maxRetries)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}

	relations, err := ai.CallExtractRelations(ctx, client, text, names, confidenceThreshold, maxRetries)
	if err != nil {
		return nil, err
	}
	attributes, err := ai.CallExtractAttributes(ctx, client, text, names, confidenceThreshold, maxRetries)
	if err != nil {
		return nil, err
	}

	res := &ai.ExtractionResult{
		Entities:   entities,
		Relations:  relations,
		Attributes: attributes,
	}
	return convertExtraction(res, TextChunk{Index: 0, Start: 0, End: len(text), Text: text}), nil
}
