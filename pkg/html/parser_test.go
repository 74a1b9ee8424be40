package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(src)
	require.NoError(t, err)
	return doc
}

func findAll(root *Node, tag string) []*Node {
	var found []*Node
	root.Walk(func(n *Node) bool {
		if n.Type == ElementNode && n.TagName == tag {
			found = append(found, n)
		}
		return false
	})
	return found
}

func findOne(t *testing.T, root *Node, tag string) *Node {
	t.Helper()
	found := findAll(root, tag)
	require.NotEmpty(t, found, "no <%s> in tree", tag)
	return found[0]
}

func TestParser_SynthesizesPageStructure(t *testing.T) {
	doc := mustParse(t, "<div></div>")

	assert.True(t, doc.Root.IsRoot())
	assert.Equal(t, DocumentNode, doc.Root.Type)
	require.Len(t, doc.Root.Children, 1)

	htmlEl := doc.Root.Children[0]
	assert.Equal(t, "html", htmlEl.TagName)
	require.Len(t, htmlEl.Children, 2)
	assert.Equal(t, "head", htmlEl.Children[0].TagName)

	body := htmlEl.Children[1]
	assert.Equal(t, "body", body.TagName)
	require.Len(t, body.Children, 1)
	assert.Equal(t, "div", body.Children[0].TagName)
}

func TestParser_WithAttributes(t *testing.T) {
	doc := mustParse(t, `<div STYLE="color: red"></div>`)
	style, ok := findOne(t, doc.Root, "div").GetAttribute("style")
	require.True(t, ok)
	assert.Equal(t, "color: red", style)
}

func TestParser_NestedElements(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><p>one <em>two</em></p><span>three</span></div>`)

	outer := findOne(t, doc.Root, "div")
	require.Len(t, outer.Children, 2)

	p := outer.Children[0]
	assert.Equal(t, "p", p.TagName)
	assert.Same(t, outer, p.Parent)
	assert.Equal(t, "one two", p.TextContent())
	assert.Equal(t, "span", outer.Children[1].TagName)
}

func TestParser_VoidElementsDoNotNest(t *testing.T) {
	doc := mustParse(t, `<div><br><input type="text"/><span></span></div>`)
	div := findOne(t, doc.Root, "div")
	require.Len(t, div.Children, 3)
	assert.Equal(t, "span", div.Children[2].TagName)
}

func TestParser_AutoCloseParagraph(t *testing.T) {
	doc := mustParse(t, `<p>first<div>block</div>`)
	body := findOne(t, doc.Root, "body")
	require.Len(t, body.Children, 2)
	assert.Equal(t, "p", body.Children[0].TagName)
	assert.Equal(t, "div", body.Children[1].TagName)
}

func TestParser_RepairsMisnestedTable(t *testing.T) {
	doc := mustParse(t, `<table><tr><td>cell</td></tr></table>`)
	tr := findOne(t, doc.Root, "tr")
	assert.Equal(t, "tbody", tr.Parent.TagName)
}

func TestParser_StyleTag(t *testing.T) {
	doc := mustParse(t, `<style>div > p { color: red; }</style><div></div>`)

	assert.Empty(t, findAll(doc.Root, "style"), "style is kept out of the tree")
	assert.Len(t, findAll(doc.Root, "div"), 1)
	assert.Equal(t, []string{"div > p { color: red; }"}, doc.Stylesheets)
}

func TestParser_ScriptsInOrder(t *testing.T) {
	doc := mustParse(t, `<div id="a"></div>
		<script>var a = 1 < 2;</script>
		<script src="ext.js"></script>
		<script type="text/template"><b>not run</b></script>
		<script>var b = "</div>";</script>`)

	assert.Equal(t, []string{`var a = 1 < 2;`, `var b = "</div>";`}, doc.Scripts)

	scripts := findAll(doc.Root, "script")
	require.Len(t, scripts, 4)
	assert.Equal(t, "var a = 1 < 2;", scripts[0].TextContent())
	assert.Equal(t, `<script>var a = 1 < 2;</script>`, scripts[0].SerializeOuter())
}

func TestParser_DropsCommentsAndDoctype(t *testing.T) {
	doc := mustParse(t, `<!DOCTYPE html><!-- top --><p>x<!-- inner --></p>`)
	require.Len(t, doc.Root.Children, 1)
	assert.Equal(t, "x", findOne(t, doc.Root, "p").TextContent())
}

func TestParser_DocumentTagIsOrdinaryElement(t *testing.T) {
	doc := mustParse(t, `<document id="d"><span>in</span></document>`)

	el := findOne(t, doc.Root, "document")
	assert.Equal(t, ElementNode, el.Type)
	assert.False(t, el.IsRoot())
	assert.Equal(t, "body", el.Parent.TagName)
	assert.Equal(t, `<document id="d"><span>in</span></document>`, el.SerializeOuter())
}

func TestDocumentRootSerializesChildrenOnly(t *testing.T) {
	doc := mustParse(t, `<p>x</p>`)
	assert.Equal(t, doc.Root.Serialize(), doc.Root.SerializeOuter())
	assert.Equal(t, "<html><head></head><body><p>x</p></body></html>", doc.Root.Serialize())
}
