package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func NewResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// Add records an error for field unless the field already failed; the first violated rule wins.
func (vr *ValidationResult) Add(field, code, message string) bool {
	if vr.HasErrors(field) {
		return false
	}
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
	vr.Valid = false
	return true
}

// Clear drops the error for field, if any.
func (vr *ValidationResult) Clear(field string) {
	kept := vr.Errors[:0]
	for _, err := range vr.Errors {
		if err.Field != field {
			kept = append(kept, err)
		}
	}
	vr.Errors = kept
	vr.Valid = len(vr.Errors) == 0
}

// FieldErrors maps each failing field to its message.
func (vr *ValidationResult) FieldErrors() map[string]string {
	out := make(map[string]string, len(vr.Errors))
	for _, err := range vr.Errors {
		out[err.Field] = err.Message
	}
	return out
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// PayloadSchemaJSON describes the body the Review Store accepts on create and update.
const PayloadSchemaJSON = `{
  "type": "object",
  "required": ["job_id", "reviewee_id", "rating", "title", "content", "category_ratings", "photos", "would_recommend"],
  "additionalProperties": false,
  "properties": {
    "job_id":      {"type": "string", "minLength": 1},
    "reviewee_id": {"type": "string", "minLength": 1},
    "rating":      {"type": "integer", "minimum": 1, "maximum": 5},
    "title":       {"type": "string", "minLength": 1, "maxLength": 100},
    "content":     {"type": "string", "minLength": 1, "maxLength": 1000},
    "category_ratings": {
      "type": "object",
      "propertyNames": {"enum": ["quality", "timeliness", "communication", "professionalism", "value_for_money"]},
      "additionalProperties": {"type": "integer", "minimum": 1, "maximum": 5}
    },
    "photos": {
      "type": "array",
      "maxItems": 5,
      "items": {"type": "string", "minLength": 1}
    },
    "would_recommend": {"type": "boolean"}
  }
}`

var payloadSchema = mustSchema(PayloadSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid review payload schema: %v", err))
	}
	return schema
}

// ValidatePayload checks a wire payload (struct or map) against PayloadSchemaJSON.
func ValidatePayload(payload interface{}) (*ValidationResult, error) {
	result, err := payloadSchema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	vr := NewResult()
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	vr.Valid = result.Valid()
	return vr, nil
}
