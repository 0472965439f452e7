package common

import (
	"regexp"
	"strconv"
	"strings"
)

// AttributeType classifies an attribute value.
type AttributeType string

const (
	AttributeText    AttributeType = "TEXT"
	AttributeNumber  AttributeType = "NUMBER"
	AttributeDate    AttributeType = "DATE"
	AttributeBoolean AttributeType = "BOOLEAN"
	AttributeList    AttributeType = "LIST"
	AttributeObject  AttributeType = "OBJECT"
	AttributeURL     AttributeType = "URL"
	AttributeEmail   AttributeType = "EMAIL"
	AttributePhone   AttributeType = "PHONE"
)

// Attribute is a named property of an entity, owned by exactly one entity
// (keyed by canonical name in the attribute map handed to the constructor).
type Attribute struct {
	Name            string        `json:"name"`
	Value           string        `json:"value"`
	NormalizedValue string        `json:"normalized_value"`
	Type            AttributeType `json:"attribute_type"`
	Confidence      float64       `json:"confidence"`
	SourceText      string        `json:"source_text"`
}

var (
	reDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$|^\d{1,2}[./]\d{1,2}[./]\d{2,4}$`)
	reURL   = regexp.MustCompile(`^https?://\S+$`)
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	rePhone = regexp.MustCompile(`^\+?[\d\s().-]{7,}$`)
)

// InferAttributeType guesses the attribute type from a raw string value.
func InferAttributeType(value string) AttributeType {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return AttributeText
	case v == "true" || v == "false":
		return AttributeBoolean
	case reURL.MatchString(v):
		return AttributeURL
	case reEmail.MatchString(v):
		return AttributeEmail
	case reDate.MatchString(v):
		return AttributeDate
	case isNumeric(v):
		return AttributeNumber
	case rePhone.MatchString(v) && strings.ContainsAny(v, "0123456789"):
		return AttributePhone
	case strings.Contains(v, ",") && len(strings.Split(v, ",")) > 2:
		return AttributeList
	default:
		return AttributeText
	}
}

// NormalizeAttribute fills in the type and a normalized value for a raw
// name/value pair coming out of extraction.
func NormalizeAttribute(name, value, sourceText string, confidence float64) Attribute {
	t := InferAttributeType(value)
	normalized := strings.TrimSpace(value)
	switch t {
	case AttributeNumber:
		if f, err := strconv.ParseFloat(strings.ReplaceAll(normalized, ",", ""), 64); err == nil {
			normalized = strconv.FormatFloat(f, 'f', -1, 64)
		}
	case AttributeBoolean:
		normalized = strings.ToLower(normalized)
	case AttributeEmail, AttributeURL:
		normalized = strings.ToLower(normalized)
	case AttributePhone:
		var digits strings.Builder
		for _, r := range normalized {
			if r == '+' || (r >= '0' && r <= '9') {
				digits.WriteRune(r)
			}
		}
		normalized = digits.String()
	}
	return Attribute{
		Name:            name,
		Value:           strings.TrimSpace(value),
		NormalizedValue: normalized,
		Type:            t,
		Confidence:      confidence,
		SourceText:      sourceText,
	}
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	return err == nil
}
