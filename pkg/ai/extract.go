package ai

import (
	"context"
	"fmt"
	"strings"

	gUtil "github.com/graphloom/graphloom/internal/util"
)

// ExtractedEntity is one entity as reported by the extraction model.
type ExtractedEntity struct {
	Name          string   `json:"name" jsonschema_description:"Surface form of the entity as it appears in the text"`
	Type          string   `json:"entity_type" jsonschema_description:"One of the provided entity types"`
	CanonicalForm string   `json:"canonical_form" jsonschema_description:"Normalized representative name, empty if the surface form is already canonical"`
	Aliases       []string `json:"aliases" jsonschema_description:"Other names the text uses for this entity"`
	Confidence    float64  `json:"confidence" jsonschema_description:"Certainty in [0,1] that this is a real, correctly typed entity"`
}

// ExtractedRelation is one relationship as reported by the extraction model.
type ExtractedRelation struct {
	Subject    string  `json:"subject" jsonschema_description:"Name of the subject entity, as reported in the entity list"`
	Predicate  string  `json:"predicate" jsonschema_description:"Short free-text verb phrase describing the relationship"`
	Object     string  `json:"object" jsonschema_description:"Name of the object entity, as reported in the entity list"`
	Type       string  `json:"relation_type" jsonschema_description:"One of the provided relation types"`
	Confidence float64 `json:"confidence" jsonschema_description:"Certainty in [0,1]"`
	Context    string  `json:"context" jsonschema_description:"Sentence or snippet supporting the relationship"`
}

// ExtractedAttribute is one entity attribute as reported by the extraction
// model. Attributes are flattened to (entity, name, value) triples so the
// response schema stays strict.
type ExtractedAttribute struct {
	EntityName string  `json:"entity_name" jsonschema_description:"Name of the owning entity, as reported in the entity list"`
	Name       string  `json:"name" jsonschema_description:"Attribute name in snake_case"`
	Value      string  `json:"value" jsonschema_description:"Attribute value as a string"`
	Confidence float64 `json:"confidence" jsonschema_description:"Certainty in [0,1]"`
}

// ExtractionResult is the combined structured payload of one extraction call.
type ExtractionResult struct {
	Entities   []ExtractedEntity    `json:"entities" jsonschema_description:"Entities identified in the text"`
	Relations  []ExtractedRelation  `json:"relationships" jsonschema_description:"Relationships identified in the text"`
	Attributes []ExtractedAttribute `json:"attributes" jsonschema_description:"Entity attributes identified in the text"`
}

type entitiesOnlyResult struct {
	Entities []ExtractedEntity `json:"entities" jsonschema_description:"Entities identified in the text"`
}

type relationsOnlyResult struct {
	Relations []ExtractedRelation `json:"relationships" jsonschema_description:"Relationships identified in the text"`
}

type attributesOnlyResult struct {
	Attributes []ExtractedAttribute `json:"attributes" jsonschema_description:"Entity attributes identified in the text"`
}

// DefaultEntityTypes is offered to the model when no domain-specific set is
// configured.
var DefaultEntityTypes = []string{
	"PERSON", "ORGANIZATION", "LOCATION", "EVENT", "PRODUCT", "CONCEPT", "DATE", "MONEY",
}

// DefaultRelationTypes is the relation vocabulary offered to the model.
var DefaultRelationTypes = []string{
	"IS_A", "PART_OF", "LOCATED_IN", "WORKS_FOR", "OWNS", "CREATED_BY",
	"CAUSED_BY", "SIMILAR_TO", "RELATES_TO", "DEPENDS_ON",
}

// CallExtractAI runs one combined entity/relation/attribute extraction call
// for a chunk of text and filters the result by confidence threshold.
// Malformed output below repair is reported as an error; the caller decides
// whether to degrade to an empty result.
func CallExtractAI(
	ctx context.Context,
	client GraphAIClient,
	text string,
	domainHint string,
	confidenceThreshold float64,
	maxRetries int,
) (*ExtractionResult, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if strings.TrimSpace(text) == "" {
		return &ExtractionResult{}, nil
	}
	if domainHint == "" {
		domainHint = "general"
	}

	systemPrompt := fmt.Sprintf(
		ExtractPrompt,
		strings.Join(DefaultEntityTypes, ","),
		strings.Join(DefaultRelationTypes, ","),
		domainHint,
	)

	var res ExtractionResult
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(
			ctx,
			"extract_knowledge",
			"Extract entities, relationships and attributes from a document chunk.",
			text,
			&res,
			WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		return nil, err
	}

	return filterByConfidence(&res, confidenceThreshold), nil
}

// CallExtractEntities runs the entity-only pass of the sequential fallback.
func CallExtractEntities(
	ctx context.Context,
	client GraphAIClient,
	text string,
	domainHint string,
	confidenceThreshold float64,
	maxRetries int,
) ([]ExtractedEntity, error) {
	if domainHint == "" {
		domainHint = "general"
	}
	systemPrompt := fmt.Sprintf(ExtractEntitiesPrompt, strings.Join(DefaultEntityTypes, ","), domainHint)

	var res entitiesOnlyResult
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(
			ctx, "extract_entities", "Extract entities from a document.", text, &res,
			WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		return nil, err
	}
	filtered := filterByConfidence(&ExtractionResult{Entities: res.Entities}, confidenceThreshold)
	return filtered.Entities, nil
}

// CallExtractRelations runs the relation-only pass of the sequential
// fallback, constrained to the already known entity names.
func CallExtractRelations(
	ctx context.Context,
	client GraphAIClient,
	text string,
	entityNames []string,
	confidenceThreshold float64,
	maxRetries int,
) ([]ExtractedRelation, error) {
	systemPrompt := fmt.Sprintf(
		ExtractRelationsPrompt,
		strings.Join(entityNames, ", "),
		strings.Join(DefaultRelationTypes, ","),
	)

	var res relationsOnlyResult
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(
			ctx, "extract_relationships", "Extract relationships from a document.", text, &res,
			WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		return nil, err
	}
	filtered := filterByConfidence(&ExtractionResult{Relations: res.Relations}, confidenceThreshold)
	return filtered.Relations, nil
}

// CallExtractAttributes runs the attribute-only pass of the sequential
// fallback, constrained to the already known entity names.
func CallExtractAttributes(
	ctx context.Context,
	client GraphAIClient,
	text string,
	entityNames []string,
	confidenceThreshold float64,
	maxRetries int,
) ([]ExtractedAttribute, error) {
	systemPrompt := fmt.Sprintf(ExtractAttributesPrompt, strings.Join(entityNames, ", "))

	var res attributesOnlyResult
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(
			ctx, "extract_attributes", "Extract entity attributes from a document.", text, &res,
			WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		return nil, err
	}
	filtered := filterByConfidence(&ExtractionResult{Attributes: res.Attributes}, confidenceThreshold)
	return filtered.Attributes, nil
}

func filterByConfidence(res *ExtractionResult, threshold float64) *ExtractionResult {
	out := &ExtractionResult{}
	for _, e := range res.Entities {
		if NormalizeName(e.Name) == "" {
			continue
		}
		if e.Confidence >= threshold {
			out.Entities = append(out.Entities, e)
		}
	}
	for _, r := range res.Relations {
		if NormalizeName(r.Subject) == "" || NormalizeName(r.Object) == "" {
			continue
		}
		if r.Confidence >= threshold {
			out.Relations = append(out.Relations, r)
		}
	}
	for _, a := range res.Attributes {
		if NormalizeName(a.EntityName) == "" || NormalizeName(a.Name) == "" {
			continue
		}
		if a.Confidence >= threshold {
			out.Attributes = append(out.Attributes, a)
		}
	}
	return out
}
