package taskfile

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/strabs/doit/pkg/schema"
)

//go:embed taskfile.v1beta1.json
var schemaData []byte

// DefaultValidator returns the validator for the embedded taskfile schema.
var DefaultValidator = sync.OnceValue(func() *schema.Validator {
	v, err := schema.NewValidator(schemaData)
	if err != nil {
		panic(fmt.Errorf("compile embedded taskfile schema: %w", err))
	}

	return v
})

// Load reads, validates, and decodes a taskfile from disk.
func Load(path string) (*Taskfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from the CLI.
	if err != nil {
		return nil, fmt.Errorf("read taskfile: %w", err)
	}

	tf, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return tf, nil
}

// LoadBytes validates and decodes taskfile data.
func LoadBytes(data []byte) (*Taskfile, error) {
	// Validate the generic document first, so schema errors carry field
	// paths instead of decode errors.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := DefaultValidator().Validate(raw); err != nil {
		return nil, err
	}

	tf := &Taskfile{}
	if err := yaml.UnmarshalWithOptions(data, tf, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("decode taskfile: %w", err)
	}

	tf.EnsureDefaults()

	return tf, nil
}
