package config

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// manifestSchema is the JSON Schema every manifest document must satisfy
// before typed decoding. Keeping it strict here means typed decoding can
// assume shapes instead of re-checking them.
const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "permissions"],
  "additionalProperties": false,
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "description": { "type": "string" },
    "permissions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind"],
        "additionalProperties": false,
        "properties": {
          "kind": {
            "type": "string",
            "enum": ["read", "write", "net", "env", "run", "ffi", "hrtime"]
          },
          "path": { "type": "string" },
          "host": { "type": "string" }
        }
      }
    }
  }
}`

// ValidateManifestDocument validates a raw manifest document against the
// manifest schema.
func ValidateManifestDocument(data []byte) error {
	var document interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("manifest.json", strings.NewReader(manifestSchema)); err != nil {
		return fmt.Errorf("failed to add manifest schema resource: %w", err)
	}

	schema, err := compiler.Compile("manifest.json")
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	if err := schema.Validate(document); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	return nil
}

// formatSchemaValidationError flattens nested schema errors into a readable
// list.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collectErrors func(*jsonschema.ValidationError)
	collectErrors = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			collectErrors(cause)
		}
	}
	collectErrors(err)

	return fmt.Errorf("manifest schema validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}
