// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "VerticalClassification")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// VerticalClassificationSchema returns the extraction schema used to classify
// a client's vertical, domain and digital maturity from a research report.
func VerticalClassificationSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "VerticalClassification",
		Description: `You are an industry analyst. Classify the client described in the research report below.
Vertical is the primary industry vertical (e.g., Healthcare, Financial Services, Manufacturing, Retail).
Domain is the specific sub-domain (e.g., Commercial Banking, Specialty Pharma, Discrete Manufacturing).
Digital maturity is rated 1-5 (1=Legacy, 2=Emerging, 3=Developing, 4=Advanced, 5=Leading).`,
		Fields: []SchemaField{
			{
				Name:        "vertical",
				Type:        "\"string\"",
				Description: "Primary industry vertical",
				Required:    true,
			},
			{
				Name:        "domain",
				Type:        "\"string\"",
				Description: "Specific sub-domain within the vertical",
				Required:    true,
			},
			{
				Name:        "maturity_level",
				Type:        "number",
				Description: "Digital maturity rating 1-5",
				Required:    true,
			},
			{
				Name:        "maturity_summary",
				Type:        "\"string\"",
				Description: "One-paragraph justification for the rating",
				Required:    true,
			},
		},
	}
}
