package mcp

// Parameter is one declared tool argument or structured output field.
type Parameter interface {
	apply(builder *paramBuilder)
	toParamDef() paramDef
}

// Option interface for parameter options
type Option interface {
	isOption()
}

type parameterBase struct {
	name        string
	description string
	required    bool
}

type paramBuilder struct {
	params       []paramDef
	outputParams []paramDef
}

type requiredOption struct{}

func (requiredOption) isOption() {}

// Required marks a parameter as mandatory.
func Required() Option {
	return requiredOption{}
}

func processOptions(options []Option) bool {
	for _, opt := range options {
		if _, ok := opt.(requiredOption); ok {
			return true
		}
	}
	return false
}

func buildPropertiesFromParams(properties []Parameter) map[string]*paramDef {
	props := make(map[string]*paramDef)
	for _, prop := range properties {
		def := prop.toParamDef()
		props[def.name] = &def
	}
	return props
}

// scalarParam covers every parameter whose schema is just a type keyword.
type scalarParam struct {
	parameterBase
	paramType string
}

func (s *scalarParam) toParamDef() paramDef {
	return paramDef{
		name:        s.name,
		paramType:   s.paramType,
		description: s.description,
		required:    s.required,
	}
}

func (s *scalarParam) apply(builder *paramBuilder) {
	builder.params = append(builder.params, s.toParamDef())
}

func newScalar(paramType, name, description string, options []Option) Parameter {
	return &scalarParam{
		parameterBase: parameterBase{
			name:        name,
			description: description,
			required:    processOptions(options),
		},
		paramType: paramType,
	}
}

type objectParam struct {
	parameterBase
	properties []Parameter
}

func (o *objectParam) toParamDef() paramDef {
	return paramDef{
		name:        o.name,
		paramType:   typeObject,
		description: o.description,
		required:    o.required,
		properties:  buildPropertiesFromParams(o.properties),
	}
}

func (o *objectParam) apply(builder *paramBuilder) {
	builder.params = append(builder.params, o.toParamDef())
}

type outputParam struct {
	parameters []Parameter
}

func (o *outputParam) toParamDef() paramDef {
	return paramDef{}
}

func (o *outputParam) apply(builder *paramBuilder) {
	for _, param := range o.parameters {
		builder.outputParams = append(builder.outputParams, param.toParamDef())
	}
}

// Output declares the shape of the tool's structured content.
func Output(parameters ...Parameter) Parameter {
	return &outputParam{parameters: parameters}
}

// String creates a string parameter
func String(name, description string, options ...Option) Parameter {
	return newScalar(typeString, name, description, options)
}

// Number creates a number parameter
func Number(name, description string, options ...Option) Parameter {
	return newScalar(typeNumber, name, description, options)
}

// Integer creates an integer parameter
func Integer(name, description string, options ...Option) Parameter {
	return newScalar(typeInteger, name, description, options)
}

// Boolean creates a boolean parameter
func Boolean(name, description string, options ...Option) Parameter {
	return newScalar(typeBoolean, name, description, options)
}

// Any creates a parameter that accepts any JSON value.
func Any(name, description string, options ...Option) Parameter {
	return newScalar(typeAny, name, description, options)
}

// Object creates an object parameter with properties. Without properties it
// accepts any object.
func Object(name, description string, propertiesAndOptions ...interface{}) Parameter {
	var properties []Parameter
	required := false

	for _, item := range propertiesAndOptions {
		if param, ok := item.(Parameter); ok {
			properties = append(properties, param)
		} else if _, ok := item.(requiredOption); ok {
			required = true
		}
	}

	return &objectParam{
		parameterBase: parameterBase{
			name:        name,
			description: description,
			required:    required,
		},
		properties: properties,
	}
}

// NewTool creates a new tool with the declarative API
func NewTool(name, description string, parameters ...Parameter) *ToolBuilder {
	builder := &paramBuilder{}

	for _, param := range parameters {
		param.apply(builder)
	}

	return &ToolBuilder{
		name:         name,
		description:  description,
		params:       builder.params,
		outputParams: builder.outputParams,
	}
}
