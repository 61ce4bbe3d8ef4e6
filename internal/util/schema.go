package util

import (
	"fmt"
	"time"

	"github.com/hupe1980/addonbridge/host"
)

// JSON type names used for parameter declarations and docs.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
	TypeAny     = "any"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Param declares one positional argument of a bridged function.
type Param struct {
	Name string `json:"name"`
	// Type is a JSON type name; empty or "any" accepts everything.
	Type string `json:"type,omitempty"`
	// Optional parameters may be omitted from the end of the argument list.
	Optional bool `json:"optional,omitempty"`
}

// ValidateArguments checks positional args against params: the count must
// fit between the required and the declared parameters, and each supplied
// argument must match its declared type.
func ValidateArguments(args []any, params []Param) error {
	required := 0
	for i, p := range params {
		if !p.Optional {
			required = i + 1
		}
	}

	if len(args) < required {
		missing := params[len(args)]
		return &ValidationError{
			Field:   missing.Name,
			Message: fmt.Sprintf("required argument is missing (expected at least %d, got %d)", required, len(args)),
		}
	}
	if len(args) > len(params) {
		return &ValidationError{
			Field:   fmt.Sprintf("#%d", len(params)),
			Value:   args[len(params)],
			Message: fmt.Sprintf("too many arguments (expected at most %d, got %d)", len(params), len(args)),
		}
	}

	for i, value := range args {
		p := params[i]
		if !isValidType(value, p.Type) {
			return &ValidationError{
				Field:   p.Name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %s", p.Type, JSONType(value)),
			}
		}
	}

	return nil
}

// JSONType names the JSON type a Go value serializes to. Host references
// and dates report the tag of their structured record.
func JSONType(value any) string {
	switch v := value.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32:
		return numberType(float64(v))
	case float64:
		return numberType(v)
	case []any:
		return TypeArray
	case time.Time:
		return "date"
	case map[string]any:
		if tag, ok := v["type"].(string); ok && isRecordTag(tag) {
			return tag
		}
		return TypeObject
	case host.Block:
		return "block"
	case host.BlockPermutation:
		return "block_permutation"
	case host.Entity:
		return "entity"
	default:
		return TypeObject
	}
}

func numberType(f float64) string {
	if f == float64(int64(f)) {
		return TypeInteger
	}
	return TypeNumber
}

func isRecordTag(tag string) bool {
	switch tag {
	case "block", "block_permutation", "date", "entity":
		return true
	}
	return false
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v)) // Check if it's actually an integer
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "block", "block_permutation", "date", "entity":
		return JSONType(value) == expectedType
	default:
		return true // Unknown types are assumed valid
	}
}
