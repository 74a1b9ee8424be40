package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragment(t *testing.T) {
	nodes, err := ParseFragment(`<b class="x">bold</b> tail<!-- gone -->`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	b := nodes[0]
	assert.Equal(t, ElementNode, b.Type)
	assert.Equal(t, "b", b.TagName)
	assert.Equal(t, "x", b.Attributes["class"])
	assert.Nil(t, b.Parent)
	assert.Equal(t, "bold", b.TextContent())

	assert.Equal(t, TextNode, nodes[1].Type)
	assert.Equal(t, " tail", nodes[1].Text)
}

func TestParseFragmentEmpty(t *testing.T) {
	nodes, err := ParseFragment("")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
