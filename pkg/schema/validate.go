// Package schema validates decoded YAML documents against a JSON schema.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://raw.githubusercontent.com/strabs/doit/refs/heads/main/pkg/taskfile/taskfile.v1beta1.json"

// ValidationError represents a validation error from JSON schema validation,
// with the instance path of the most specific failing field.
type ValidationError struct {
	Err    error
	Field  string
	Detail string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("error at %s: %s", e.Field, e.Detail)
	}

	return "validation error: " + e.Detail
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Validator validates data against a JSON schema.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new [Validator] with the provided JSON schema data.
func NewValidator(schemaData []byte) (*Validator, error) {
	var schema any
	if err := json.Unmarshal(schemaData, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schema); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

// Validate validates the given data against the schema. Data must be the
// generic form produced by unmarshaling into any.
func (v *Validator) Validate(data any) error {
	err := v.schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	return &ValidationError{
		Err:    errors.New("schema validation"),
		Field:  strings.Join(findMostSpecificLocation(validationErr), "."),
		Detail: validationErr.Error(),
	}
}

// findMostSpecificLocation recursively searches through all causes to find
// the one with the longest InstanceLocation.
func findMostSpecificLocation(err *jsonschema.ValidationError) []string {
	longest := err.InstanceLocation

	for _, cause := range err.Causes {
		candidate := findMostSpecificLocation(cause)
		if len(candidate) > len(longest) {
			longest = candidate
		}
	}

	return longest
}
