package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	typeString  = "string"
	typeNumber  = "number"
	typeInteger = "integer"
	typeBoolean = "boolean"
	typeObject  = "object"
	typeAny     = "any"
)

// ToolBuilder holds a declared tool until it is registered.
type ToolBuilder struct {
	name         string
	description  string
	params       []paramDef
	outputParams []paramDef
}

type paramDef struct {
	name        string
	paramType   string
	description string
	required    bool
	properties  map[string]*paramDef
}

// Name returns the tool's name
func (t *ToolBuilder) Name() string {
	return t.name
}

// Description returns the tool's description with whitespace runs collapsed
// to single spaces.
func (t *ToolBuilder) Description() string {
	return strings.Join(strings.Fields(t.description), " ")
}

// BuildSchema returns the JSON Schema for the tool's input parameters.
func (t *ToolBuilder) BuildSchema() map[string]interface{} {
	return buildSchemaFromParams(t.params)
}

// BuildOutputSchema returns the JSON Schema for the tool's structured output,
// or nil when no Output was declared.
func (t *ToolBuilder) BuildOutputSchema() map[string]interface{} {
	if len(t.outputParams) == 0 {
		return nil
	}
	return buildSchemaFromParams(t.outputParams)
}

func buildSchemaFromParams(params []paramDef) map[string]interface{} {
	properties := make(map[string]interface{})
	var required []string

	for _, param := range params {
		prop := buildParamSchema(&param)
		if param.description != "" {
			prop["description"] = param.description
		}
		properties[param.name] = prop
		if param.required {
			required = append(required, param.name)
		}
	}

	schema := map[string]interface{}{
		"type":                 typeObject,
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func buildParamSchema(param *paramDef) map[string]interface{} {
	switch param.paramType {
	case typeObject:
		return buildObjectSchema(param)
	case typeAny:
		return map[string]interface{}{}
	default:
		return map[string]interface{}{"type": param.paramType}
	}
}

func buildObjectSchema(param *paramDef) map[string]interface{} {
	if len(param.properties) == 0 {
		return map[string]interface{}{
			"type":                 typeObject,
			"additionalProperties": true,
		}
	}

	properties := make(map[string]interface{})
	var required []string

	for propName, propDef := range param.properties {
		propSchema := buildParamSchema(propDef)
		if propDef.description != "" {
			propSchema["description"] = propDef.description
		}
		properties[propName] = propSchema
		if propDef.required {
			required = append(required, propName)
		}
	}

	schema := map[string]interface{}{
		"type":                 typeObject,
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema
}

// argumentValidator checks call arguments against a compiled input schema.
type argumentValidator struct {
	schema *gojsonschema.Schema
}

func newArgumentValidator(schema map[string]interface{}) (*argumentValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid input schema: %w", err)
	}
	return &argumentValidator{schema: compiled}, nil
}

// validate returns a ToolError listing every violation, or nil.
func (v *argumentValidator) validate(args map[string]interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return NewToolError(ErrorCodeInvalidParams, fmt.Sprintf("Invalid arguments: %v", err), nil)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return NewToolError(ErrorCodeInvalidParams, "Invalid arguments: "+strings.Join(violations, "; "), map[string]interface{}{
		"errors": violations,
	})
}
