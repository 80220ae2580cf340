package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/webscout/core"
)

func TestParseElements(t *testing.T) {
	raw := []any{
		map[string]any{"index": 0, "tag": "a", "text": "Home", "attributes": map[string]any{"href": "/"}},
		map[string]any{"index": float64(1), "tag": "input", "text": "", "attributes": map[string]any{}},
	}

	elements, err := parseElements(raw)
	require.NoError(t, err)
	assert.Equal(t, []core.Element{
		{Index: 0, Tag: "a", Text: "Home", Attributes: map[string]string{"href": "/"}},
		{Index: 1, Tag: "input"},
	}, elements)

	elements, err = parseElements(nil)
	assert.NoError(t, err)
	assert.Empty(t, elements)

	_, err = parseElements("oops")
	assert.Error(t, err)

	_, err = parseElements([]any{42})
	assert.Error(t, err)
}

func TestParsePair(t *testing.T) {
	above, below := parsePair([]any{120, float64(900)})
	assert.Equal(t, 120, above)
	assert.Equal(t, 900, below)

	above, below = parsePair([]any{1})
	assert.Zero(t, above)
	assert.Zero(t, below)
}

func TestParseStrings(t *testing.T) {
	opts, ok := parseStrings([]any{"Price", "Name"})
	assert.True(t, ok)
	assert.Equal(t, []string{"Price", "Name"}, opts)

	_, ok = parseStrings(nil)
	assert.False(t, ok)
}

func TestSelector(t *testing.T) {
	assert.Equal(t, `[data-webscout-index="7"]`, selector(7))
}
