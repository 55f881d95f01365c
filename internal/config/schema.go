package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	sigsyaml "sigs.k8s.io/yaml"
)

// configSchema validates the secretwire.yaml structure before it is
// decoded, so typos surface as schema errors instead of silent zero
// values.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "defaultConnector": {"type": "string"},
    "connectors": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string"},
          "timeout_ms": {"type": "integer", "minimum": 1}
        }
      }
    },
    "shapes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["fields"],
        "additionalProperties": false,
        "properties": {
          "fields": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name"],
              "additionalProperties": false,
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "kinds": {
                  "type": "array",
                  "items": {"enum": ["env", "volume", "annotation"]}
                },
                "binary": {"type": "boolean"}
              }
            }
          }
        }
      }
    },
    "secrets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "shape"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "shape": {"type": "string", "minLength": 1},
          "connector": {"type": "string"}
        }
      }
    },
    "units": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["secret"],
          "additionalProperties": false,
          "properties": {
            "secret": {"type": "string", "minLength": 1},
            "field": {"type": "string"},
            "env": {"type": "string"},
            "annotation": {"type": "string"},
            "volume": {
              "type": "object",
              "required": ["mountPath"],
              "additionalProperties": false,
              "properties": {
                "mountPath": {"type": "string", "minLength": 1},
                "fileName": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// validateSchema checks raw YAML config bytes against the JSON schema.
func validateSchema(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("config is not valid YAML: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}
	return nil
}
