package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarativeSchema(t *testing.T) {
	tool := NewTool("encode", "Convert\n\tJSON   to TOON",
		Any("json", "value to encode", Required()),
		String("delimiter", "comma, tab or pipe"),
		Integer("indent", "spaces per level"),
		Boolean("fold_keys", "fold single-key chains"),
		Object("encode_options", "nested options",
			String("delimiter", "delimiter"),
			Integer("indent", "indent", Required()),
		),
		Object("anything", "free-form object"),
		Output(
			Boolean("valid", "document parsed", Required()),
			Number("ratio", "ratio"),
		),
	)

	assert.Equal(t, "encode", tool.Name())
	assert.Equal(t, "Convert JSON to TOON", tool.Description())

	schema := tool.BuildSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"json"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"description": "value to encode"}, props["json"])
	assert.Equal(t, "integer", props["indent"].(map[string]interface{})["type"])

	nested := props["encode_options"].(map[string]interface{})
	assert.Equal(t, []string{"indent"}, nested["required"])
	assert.Contains(t, nested["properties"], "delimiter")

	free := props["anything"].(map[string]interface{})
	assert.Equal(t, true, free["additionalProperties"])

	out := tool.BuildOutputSchema()
	require.NotNil(t, out)
	assert.Equal(t, []string{"valid"}, out["required"])

	_, err := json.Marshal(schema)
	require.NoError(t, err)
}

func TestNoOutputSchema(t *testing.T) {
	tool := NewTool("ping", "ping")
	assert.Nil(t, tool.BuildOutputSchema())
	assert.NotContains(t, tool.BuildSchema(), "required")
}

func TestArgumentValidatorAcceptsAnyValue(t *testing.T) {
	v, err := newArgumentValidator(NewTool("t", "t", Any("json", "anything", Required())).BuildSchema())
	require.NoError(t, err)

	for _, value := range []interface{}{nil, "text", 1.5, true, []interface{}{1.0}, map[string]interface{}{"a": 1.0}} {
		assert.NoError(t, v.validate(map[string]interface{}{"json": value}))
	}
	assert.Error(t, v.validate(nil))
}
