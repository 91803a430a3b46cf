package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	var out map[string]interface{}

	ok := ExtractObject("Sure! Here is the result:\n{\"itemName\": \"Glass Jar\"}\nHope that helps.", &out)
	require.True(t, ok)
	assert.Equal(t, "Glass Jar", out["itemName"])
}

func TestExtractObjectNested(t *testing.T) {
	var out map[string]interface{}

	ok := ExtractObject(`{"outer": {"inner": 1}}`, &out)
	require.True(t, ok)
	assert.Contains(t, out, "outer")
}

func TestExtractObjectFailures(t *testing.T) {
	var out map[string]interface{}

	assert.False(t, ExtractObject("no json here at all", &out))
	assert.False(t, ExtractObject("{broken json", &out))
	assert.False(t, ExtractObject("{\"unterminated\": ", &out))
}

func TestExtractArray(t *testing.T) {
	var out []map[string]interface{}

	ok := ExtractArray("Generated tasks below.\n[{\"title\": \"a\"}, {\"title\": \"b\"}]\nDone.", &out)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1]["title"])
}

func TestExtractArrayFailures(t *testing.T) {
	var out []map[string]interface{}

	assert.False(t, ExtractArray("{\"an\": \"object, not an array\"}", &out))
	assert.False(t, ExtractArray("[1, 2", &out))
	assert.False(t, ExtractArray("", &out))
}
