package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/pkg/schema"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "workers": {"type": "integer", "minimum": 1}
  },
  "required": ["name"],
  "additionalProperties": false
}`

func TestNewValidator(t *testing.T) {
	t.Parallel()

	_, err := schema.NewValidator([]byte(testSchema))
	require.NoError(t, err)

	_, err = schema.NewValidator([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal schema")
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	v, err := schema.NewValidator([]byte(testSchema))
	require.NoError(t, err)

	tcs := map[string]struct {
		data      any
		wantField string
		wantErr   bool
	}{
		"valid": {
			data: map[string]any{"name": "ok", "workers": 2},
		},
		"missing required": {
			data:    map[string]any{"workers": 2},
			wantErr: true,
		},
		"wrong type": {
			data:      map[string]any{"name": "ok", "workers": "many"},
			wantField: "workers",
			wantErr:   true,
		},
		"unknown property": {
			data:    map[string]any{"name": "ok", "shell": "bash"},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tc.data)
			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)

			if tc.wantField != "" {
				assert.Equal(t, tc.wantField, verr.Field)
			}
		})
	}
}
