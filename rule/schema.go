package rule

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/ruleflow/errors"
)

// documentSchema is the JSON Schema every rule definition is validated
// against before unmarshalling. Kept in sync with the external
// rule-definition schema.
const documentSchema = `{
  "type": "object",
  "required": ["id", "match_policy", "conditions"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "enabled": {"type": "boolean"},
    "priority": {"type": "integer"},
    "match_policy": {"type": "string", "enum": ["all", "any", "none"]},
    "conditions": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/entry"}
    },
    "actions": {
      "type": "array",
      "items": {"$ref": "#/definitions/entry"}
    }
  },
  "definitions": {
    "entry": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "options": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("rule: invalid document schema: %v", err))
	}
	return s
}()

// ValidateDocument validates a raw rule document (already decoded to a
// generic map) against the rule-definition schema.
func ValidateDocument(doc map[string]any) error {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.WrapInvalid(err, "rule", "ValidateDocument", "run schema validation")
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidRule, strings.Join(details, "; ")),
		"rule", "ValidateDocument", "check rule document")
}
