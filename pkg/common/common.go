package common

import (
	"strings"
	"time"
)

// EntityType classifies a real-world entity extracted from text.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityEvent        EntityType = "EVENT"
	EntityProduct      EntityType = "PRODUCT"
	EntityConcept      EntityType = "CONCEPT"
	EntityDate         EntityType = "DATE"
	EntityMoney        EntityType = "MONEY"
	EntityCustom       EntityType = "CUSTOM"
)

// ParseEntityType maps a free-form type string onto the known enum,
// falling back to CUSTOM for anything unrecognized.
func ParseEntityType(s string) EntityType {
	switch EntityType(strings.ToUpper(strings.TrimSpace(s))) {
	case EntityPerson, EntityOrganization, EntityLocation, EntityEvent,
		EntityProduct, EntityConcept, EntityDate, EntityMoney:
		return EntityType(strings.ToUpper(strings.TrimSpace(s)))
	default:
		return EntityCustom
	}
}

// RelationType classifies the semantic kind of a relation.
type RelationType string

const (
	RelationIsA       RelationType = "IS_A"
	RelationPartOf    RelationType = "PART_OF"
	RelationLocatedIn RelationType = "LOCATED_IN"
	RelationWorksFor  RelationType = "WORKS_FOR"
	RelationOwns      RelationType = "OWNS"
	RelationCreatedBy RelationType = "CREATED_BY"
	RelationCausedBy  RelationType = "CAUSED_BY"
	RelationSimilarTo RelationType = "SIMILAR_TO"
	RelationRelatesTo RelationType = "RELATES_TO"
	RelationDependsOn RelationType = "DEPENDS_ON"
	RelationCustom    RelationType = "CUSTOM"
)

// ParseRelationType maps a free-form type string onto the known enum,
// falling back to RELATES_TO for anything unrecognized.
func ParseRelationType(s string) RelationType {
	switch RelationType(strings.ToUpper(strings.TrimSpace(s))) {
	case RelationIsA, RelationPartOf, RelationLocatedIn, RelationWorksFor,
		RelationOwns, RelationCreatedBy, RelationCausedBy, RelationSimilarTo,
		RelationRelatesTo, RelationDependsOn, RelationCustom:
		return RelationType(strings.ToUpper(strings.TrimSpace(s)))
	default:
		return RelationRelatesTo
	}
}

// Entity is a real-world thing mentioned in the source text.
//
// CanonicalForm is the normalized representative string used as the
// dedup/merge key; it defaults to Text when unset.
type Entity struct {
	Text          string     `json:"text"`
	Type          EntityType `json:"entity_type"`
	CanonicalForm string     `json:"canonical_form"`
	Aliases       []string   `json:"aliases"`
	Confidence    float64    `json:"confidence"`
	Start         int        `json:"start"`
	End           int        `json:"end"`
}

// Canonical returns the canonical form, defaulting to the surface text.
func (e Entity) Canonical() string {
	if e.CanonicalForm != "" {
		return e.CanonicalForm
	}
	return e.Text
}

// Relation is a directed edge between two entities with a free-text
// predicate and a classified type.
type Relation struct {
	Subject      Entity            `json:"subject"`
	Object       Entity            `json:"object"`
	Predicate    string            `json:"predicate"`
	Type         RelationType      `json:"relation_type"`
	Confidence   float64           `json:"confidence"`
	Context      string            `json:"context"`
	Properties   map[string]string `json:"properties,omitempty"`
	TemporalInfo map[string]string `json:"temporal_info,omitempty"`
}

// GraphNode wraps one entity together with its attributes and embedding.
// Nodes are created only by the constructor and mutated only during
// optimization; a full re-construction replaces them.
type GraphNode struct {
	ID         string               `json:"id"`
	Entity     Entity               `json:"entity"`
	Attributes map[string]Attribute `json:"attributes"`
	Embedding  []float32            `json:"embedding"`
	Metadata   map[string]any       `json:"metadata"`
}

// GraphEdge wraps one relation between two existing nodes. Weight mirrors
// the relation confidence.
type GraphEdge struct {
	ID        string         `json:"id"`
	SourceID  string         `json:"source_id"`
	TargetID  string         `json:"target_id"`
	Relation  Relation       `json:"relation"`
	Embedding []float32      `json:"embedding"`
	Weight    float64        `json:"weight"`
	Metadata  map[string]any `json:"metadata"`
}

// DocumentChunk is one embedded slice of the source document, produced
// when the source text exceeds the chunking threshold.
type DocumentChunk struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	ChunkIndex     int       `json:"chunk_index"`
	SourceDocument string    `json:"source_document"`
	Embedding      []float32 `json:"embedding"`
}

// AttributeNode promotes an entity attribute to a first-class searchable
// node, distinct from the Attribute value object on the owning GraphNode.
type AttributeNode struct {
	ID         string        `json:"id"`
	EntityID   string        `json:"entity_id"`
	Name       string        `json:"name"`
	Value      string        `json:"value"`
	Type       AttributeType `json:"attribute_type"`
	Confidence float64       `json:"confidence"`
	Embedding  []float32     `json:"embedding"`
}

// KnowledgeGraph is the immutable result of one construction call.
// Every edge endpoint references an existing node id; node and edge ids
// are unique within a single construction.
type KnowledgeGraph struct {
	Nodes          map[string]*GraphNode     `json:"nodes"`
	Edges          map[string]*GraphEdge     `json:"edges"`
	DocumentChunks map[string]*DocumentChunk `json:"document_chunks"`
	AttributeNodes map[string]*AttributeNode `json:"attribute_nodes"`
	Metadata       map[string]any            `json:"metadata"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// NewKnowledgeGraph returns an empty graph with initialized maps.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		Nodes:          make(map[string]*GraphNode),
		Edges:          make(map[string]*GraphEdge),
		DocumentChunks: make(map[string]*DocumentChunk),
		AttributeNodes: make(map[string]*AttributeNode),
		Metadata:       make(map[string]any),
		CreatedAt:      time.Now().UTC(),
	}
}
