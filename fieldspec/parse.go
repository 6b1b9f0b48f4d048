package fieldspec

import (
	"encoding/json"
	"strings"
)

// Parse decodes a user-typed field spec list and validates it.
//
// Strict JSON is tried first. If that fails, exactly one lenient pass runs: a
// small tokenizer that additionally accepts single-quoted strings, unquoted
// object keys, and trailing commas. If both passes fail the strict
// diagnostic is returned inside a *SyntaxError.
//
// Valid JSON that is not an array yields *ShapeError. Elements missing a
// required attribute yield *FieldError. Parse never performs I/O.
func Parse(input string) ([]FieldSpec, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	var specs []FieldSpec
	strictErr := json.Unmarshal([]byte(trimmed), &specs)
	if strictErr == nil {
		// A JSON null decodes into a nil slice without error; it is not a list.
		if specs == nil {
			return nil, &ShapeError{Got: "null"}
		}
		if err := Validate(specs); err != nil {
			return nil, err
		}
		return specs, nil
	}

	// Valid JSON of the wrong shape is a shape problem, not a syntax one.
	var decoded interface{}
	if json.Unmarshal([]byte(trimmed), &decoded) == nil {
		return nil, &ShapeError{Got: jsonKind(decoded)}
	}

	specs, lenientErr := parseLenient(trimmed)
	if lenientErr != nil {
		return nil, &SyntaxError{Err: strictErr}
	}
	if err := Validate(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "a list with non-object elements"
	case map[string]interface{}:
		return "an object"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return "an unexpected value"
}
