// Package schemas checks raw model responses against the expected analysis shape.
// Violations are advisory: normalization repairs every field regardless.
package schemas

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed analysis.schema.json
var analysisSchema string

var loadAnalysisSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchema))
})

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Fields returns the offending field paths
func (ve *ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

// ValidateAnalysis validates a repaired model response. It returns
// *ValidationError for shape violations and a plain error if the schema itself fails to load.
func ValidateAnalysis(doc map[string]any) error {
	schema, err := loadAnalysisSchema()
	if err != nil {
		return fmt.Errorf("failed to load analysis schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate analysis: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	sort.Slice(validationErr.Errors, func(i, j int) bool {
		return validationErr.Errors[i].Field < validationErr.Errors[j].Field
	})

	return validationErr
}
