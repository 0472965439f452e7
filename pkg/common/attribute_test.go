package common

import "testing"

func TestInferAttributeType(t *testing.T) {
	tests := []struct {
		value string
		want  AttributeType
	}{
		{"", AttributeText},
		{"true", AttributeBoolean},
		{"false", AttributeBoolean},
		{"https://example.com/page", AttributeURL},
		{"ceo@example.com", AttributeEmail},
		{"2024-01-15", AttributeDate},
		{"15.01.2024", AttributeDate},
		{"42", AttributeNumber},
		{"3.14", AttributeNumber},
		{"164,000", AttributeNumber},
		{"+1 (555) 123-4567", AttributePhone},
		{"red, green, blue", AttributeList},
		{"just some text", AttributeText},
	}
	for _, tt := range tests {
		if got := InferAttributeType(tt.value); got != tt.want {
			t.Errorf("InferAttributeType(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestNormalizeAttribute(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		wantType       AttributeType
		wantNormalized string
	}{
		{"employees", "164,000", AttributeNumber, "164000"},
		{"public", "TRUE", AttributeText, "TRUE"},
		{"public", "true", AttributeBoolean, "true"},
		{"website", "HTTPS://EXAMPLE.COM/About", AttributeText, "HTTPS://EXAMPLE.COM/About"},
		{"website", "https://Example.com/About", AttributeURL, "https://example.com/about"},
		{"phone", "+1 (555) 123-4567", AttributePhone, "+15551234567"},
		{"name", "  Tim Cook  ", AttributeText, "Tim Cook"},
	}
	for _, tt := range tests {
		got := NormalizeAttribute(tt.name, tt.value, "source snippet", 0.9)
		if got.Type != tt.wantType {
			t.Errorf("%s=%q: type %s, want %s", tt.name, tt.value, got.Type, tt.wantType)
		}
		if got.NormalizedValue != tt.wantNormalized {
			t.Errorf("%s=%q: normalized %q, want %q", tt.name, tt.value, got.NormalizedValue, tt.wantNormalized)
		}
		if got.Confidence != 0.9 || got.SourceText != "source snippet" {
			t.Errorf("%s: provenance not carried: %+v", tt.name, got)
		}
	}
}

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in   string
		want EntityType
	}{
		{"PERSON", EntityPerson},
		{"person", EntityPerson},
		{" organization ", EntityOrganization},
		{"SOMETHING_ELSE", EntityCustom},
		{"", EntityCustom},
	}
	for _, tt := range tests {
		if got := ParseEntityType(tt.in); got != tt.want {
			t.Errorf("ParseEntityType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		in   string
		want RelationType
	}{
		{"WORKS_FOR", RelationWorksFor},
		{"works_for", RelationWorksFor},
		{"made_up_type", RelationRelatesTo},
		{"", RelationRelatesTo},
	}
	for _, tt := range tests {
		if got := ParseRelationType(tt.in); got != tt.want {
			t.Errorf("ParseRelationType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
