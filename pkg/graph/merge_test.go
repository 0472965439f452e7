package graph

import (
	"reflect"
	"testing"

	"github.com/graphloom/graphloom/pkg/common"
)

func TestMergeEntities(t *testing.T) {
	dst := []common.Entity{
		{Text: "Apple Inc.", Type: common.EntityOrganization, Confidence: 0.8, Aliases: []string{"Apple"}},
		{Text: "Tim Cook", Type: common.EntityPerson, Confidence: 0.9},
	}
	src := []common.Entity{
		{Text: "apple inc.", Type: common.EntityOrganization, Confidence: 0.95, Aliases: []string{"AAPL"}},
		{Text: "Cupertino", Type: common.EntityLocation, Confidence: 0.7},
	}

	merged := mergeEntities(dst, src)

	if len(merged) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(merged))
	}

	var apple common.Entity
	for _, e := range merged {
		if e.Type == common.EntityOrganization {
			apple = e
		}
	}
	if apple.Confidence != 0.95 {
		t.Errorf("expected highest confidence 0.95, got %v", apple.Confidence)
	}
	if apple.Text != "apple inc." {
		t.Errorf("expected the higher-confidence occurrence to win, got %q", apple.Text)
	}
	if !reflect.DeepEqual(apple.Aliases, []string{"AAPL", "Apple"}) {
		t.Errorf("expected aliases unioned and sorted, got %v", apple.Aliases)
	}
}

func TestMergeEntitiesSameNameDifferentType(t *testing.T) {
	dst := []common.Entity{{Text: "Amazon", Type: common.EntityOrganization, Confidence: 0.9}}
	src := []common.Entity{{Text: "Amazon", Type: common.EntityLocation, Confidence: 0.8}}

	merged := mergeEntities(dst, src)
	if len(merged) != 2 {
		t.Fatalf("entities with different types must not merge, got %d", len(merged))
	}
}

func TestMergeRelations(t *testing.T) {
	subj := common.Entity{Text: "Tim Cook", Type: common.EntityPerson}
	obj := common.Entity{Text: "Apple", Type: common.EntityOrganization}

	dst := []common.Relation{
		{Subject: subj, Predicate: "works for", Object: obj, Type: common.RelationWorksFor, Confidence: 0.6, Context: "first mention"},
	}
	src := []common.Relation{
		{Subject: subj, Predicate: "Works For", Object: obj, Type: common.RelationWorksFor, Confidence: 0.9, Context: "second mention"},
		{Subject: subj, Predicate: "leads", Object: obj, Type: common.RelationCustom, Confidence: 0.5},
	}

	merged := mergeRelations(dst, src)

	if len(merged) != 2 {
		t.Fatalf("expected 2 relations, got %d", len(merged))
	}
	if merged[0].Confidence != 0.9 {
		t.Errorf("expected highest-confidence relation kept, got %v", merged[0].Confidence)
	}
	if merged[0].Context != "second mention" {
		t.Errorf("expected winning occurrence retained whole, got context %q", merged[0].Context)
	}
}

func TestMergeAttributes(t *testing.T) {
	dst := map[string][]common.Attribute{
		"Apple": {
			{Name: "founded", Value: "1976", Type: common.AttributeDate, Confidence: 0.7},
		},
	}
	src := map[string][]common.Attribute{
		"Apple": {
			{Name: "Founded", Value: "April 1976", Type: common.AttributeDate, Confidence: 0.9},
			{Name: "employees", Value: "164000", Type: common.AttributeNumber, Confidence: 0.8},
		},
		"Tim Cook": {
			{Name: "role", Value: "CEO", Type: common.AttributeText, Confidence: 0.95},
		},
	}

	merged := mergeAttributes(dst, src)

	if len(merged) != 2 {
		t.Fatalf("expected attributes for 2 entities, got %d", len(merged))
	}
	apple := merged["Apple"]
	if len(apple) != 2 {
		t.Fatalf("expected 2 attributes for Apple, got %d", len(apple))
	}
	if apple[0].Value != "April 1976" || apple[0].Confidence != 0.9 {
		t.Errorf("expected higher-confidence founded attribute, got %+v", apple[0])
	}
	if len(merged["Tim Cook"]) != 1 {
		t.Errorf("expected 1 attribute for Tim Cook, got %d", len(merged["Tim Cook"]))
	}
}

func TestMergeAttributesNilDestination(t *testing.T) {
	src := map[string][]common.Attribute{
		"X": {{Name: "a", Value: "1", Confidence: 0.5}},
	}
	merged := mergeAttributes(nil, src)
	if len(merged["X"]) != 1 {
		t.Fatalf("expected attribute carried into fresh map, got %+v", merged)
	}
}

func TestUnionAliases(t *testing.T) {
	got := unionAliases([]string{"Apple", "AAPL", ""}, []string{"apple", "Apple Inc"})
	want := []string{"AAPL", "Apple", "Apple Inc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
