package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFencedBlock(t *testing.T) {
	text := "Here is the extracted data:\n```json\n{\"invoiceNumber\": \"INV-001\"}\n```\nLet me know if you need more."
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"invoiceNumber": "INV-001"}`, string(raw))
}

func TestJSONPlainFence(t *testing.T) {
	text := "```\n{\"total\": 42}\n```"
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"total": 42}`, string(raw))
}

func TestJSONFenceWithLanguageTag(t *testing.T) {
	text := "```javascript\n{\"total\": 42}\n```"
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"total": 42}`, string(raw))
}

func TestJSONBalancedObjectInProse(t *testing.T) {
	text := `The invoice contains {"supplier": {"name": "Acme"}, "total": 99.5} as requested.`
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"supplier": {"name": "Acme"}, "total": 99.5}`, string(raw))
}

func TestJSONBalancedArray(t *testing.T) {
	text := `Products found: [{"sku": "A1"}, {"sku": "B2"}]`
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `[{"sku": "A1"}, {"sku": "B2"}]`, string(raw))
}

func TestJSONBracesInsideStrings(t *testing.T) {
	text := `{"note": "a } brace and a \" quote", "n": 1}`
	raw := JSON(text)
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"note": "a } brace and a \" quote", "n": 1}`, string(raw))
}

func TestJSONNothingFound(t *testing.T) {
	assert.Nil(t, JSON("I could not read the document, sorry."))
	assert.Nil(t, JSON(""))
	assert.Nil(t, JSON("unbalanced { brace"))
}

func TestJSONInto(t *testing.T) {
	var out struct {
		Total float64 `json:"total"`
	}
	require.True(t, JSONInto("```json\n{\"total\": 7}\n```", &out))
	assert.Equal(t, 7.0, out.Total)

	assert.False(t, JSONInto("no json here", &out))
}
