package ai

import (
	"reflect"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    payload
		wantErr bool
	}{
		{
			name:  "clean json",
			input: `{"name": "apple", "count": 3}`,
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:  "surrounding whitespace",
			input: "\n  {\"name\": \"apple\", \"count\": 3}  \n",
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"apple\", \"count\": 3}"`,
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:  "trailing comma",
			input: `{"name": "apple", "count": 3,}`,
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:  "unquoted keys",
			input: `{name: "apple", count: 3}`,
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name": "apple", "count": 3}`,
			want:  payload{Name: "apple", Count: 3},
		},
		{
			name:    "not json at all",
			input:   `no structured output here`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		var got payload
		err := UnmarshalFlexible(tt.input, &got)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %+v", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Apple Inc.  ", "Apple Inc."},
		{"Tim\nCook", "Tim Cook"},
		{"Tim\r\nCook", "Tim Cook"},
		{"multiple   internal    spaces", "multiple internal spaces"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterByConfidence(t *testing.T) {
	res := &ExtractionResult{
		Entities: []ExtractedEntity{
			{Name: "Apple", Type: "ORGANIZATION", Confidence: 0.9},
			{Name: "Maybe Corp", Type: "ORGANIZATION", Confidence: 0.3},
			{Name: "   ", Type: "ORGANIZATION", Confidence: 0.9},
		},
		Relations: []ExtractedRelation{
			{Subject: "Apple", Predicate: "makes", Object: "iPhone", Confidence: 0.8},
			{Subject: "Apple", Predicate: "maybe", Object: "something", Confidence: 0.2},
			{Subject: "", Predicate: "makes", Object: "iPhone", Confidence: 0.9},
		},
		Attributes: []ExtractedAttribute{
			{EntityName: "Apple", Name: "founded", Value: "1976", Confidence: 0.9},
			{EntityName: "Apple", Name: "", Value: "x", Confidence: 0.9},
		},
	}

	filtered := filterByConfidence(res, 0.5)

	if len(filtered.Entities) != 1 || filtered.Entities[0].Name != "Apple" {
		t.Errorf("unexpected entities: %+v", filtered.Entities)
	}
	if len(filtered.Relations) != 1 || filtered.Relations[0].Predicate != "makes" {
		t.Errorf("unexpected relations: %+v", filtered.Relations)
	}
	if len(filtered.Attributes) != 1 || filtered.Attributes[0].Name != "founded" {
		t.Errorf("unexpected attributes: %+v", filtered.Attributes)
	}
}
