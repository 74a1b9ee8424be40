package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domkit/pkg/html"
)

func TestCloneCopiesPresentationFields(t *testing.T) {
	doc := mustParse(t, `<div id="a" class="box"><b>x</b></div>`)
	e := doc.GetElementByID("a")
	e.TabIndex = 3
	e.OffsetWidth = 50
	e.OffsetHeight = 20
	e.OffsetLeft = 7
	e.OffsetTop = 9
	e.ClientWidth = 48
	e.ClientHeight = 18

	clone := e.CloneNode(false)
	require.NotSame(t, e, clone)
	assert.Equal(t, 3, clone.TabIndex)
	assert.Equal(t, 50, clone.OffsetWidth)
	assert.Equal(t, 20, clone.OffsetHeight)
	assert.Equal(t, 7, clone.OffsetLeft)
	assert.Equal(t, 9, clone.OffsetTop)
	assert.Equal(t, 48, clone.ClientWidth)
	assert.Equal(t, 18, clone.ClientHeight)

	assert.Equal(t, "box", func() string { v, _ := clone.GetAttribute("class"); return v }())
	assert.Empty(t, clone.Node().Children, "shallow clone has no children")
	assert.Nil(t, clone.Node().Parent)
	assert.Same(t, doc, clone.OwnerDocument())
	assert.Same(t, clone, doc.Element(clone.Node()))

	clone.TabIndex = 8
	assert.Equal(t, 3, e.TabIndex)
}

func TestDeepCloneCopiesDescendantFields(t *testing.T) {
	doc := mustParse(t, `<ul id="list"><li id="one">1</li><li id="two">2</li></ul>`)
	doc.GetElementByID("two").TabIndex = 4

	clone := doc.GetElementByID("list").CloneNode(true)
	require.Len(t, clone.Children(), 2)
	assert.Equal(t, "12", clone.InnerText())
	assert.Equal(t, -1, clone.Children()[0].TabIndex)
	assert.Equal(t, 4, clone.Children()[1].TabIndex)
	assert.NotSame(t, doc.GetElementByID("two"), clone.Children()[1])
}

func TestCloneStyleCacheIndependence(t *testing.T) {
	doc := mustParse(t, `<div id="a" style="color: red"></div>`)
	e := doc.GetElementByID("a")
	orig := mustStyle(t, e)

	clone := e.CloneNode(false)
	assert.Nil(t, clone.style)

	cloned := mustStyle(t, clone)
	assert.NotSame(t, orig, cloned)
	assert.Equal(t, "red", cloned.GetPropertyValue("color"))

	orig.SetProperty("color", "blue", "")
	assert.Equal(t, "red", mustStyle(t, clone).GetPropertyValue("color"))
	v, _ := clone.GetAttribute("style")
	assert.Equal(t, "color: red", v)

	cloned.SetProperty("width", "1px", "")
	assert.Equal(t, "", mustStyle(t, e).GetPropertyValue("width"))
	v, _ = e.GetAttribute("style")
	assert.Equal(t, "color: blue;", v)
}

func TestCloneDoesNotCopyListeners(t *testing.T) {
	doc := NewDocument(nil)
	e := doc.CreateElement("button")
	calls := 0
	e.AddEventListener("click", func(*Event) error { calls++; return nil })

	require.NoError(t, e.CloneNode(true).Click())
	assert.Zero(t, calls)
}

func TestCloneWithRunsHooksInOrder(t *testing.T) {
	doc := NewDocument(nil)
	e := doc.CreateElement("div")
	e.OffsetTop = 5
	var order []string
	clone := cloneWith(e, false,
		func(src, dst *Element) { order = append(order, "first"); dst.OffsetTop = src.OffsetTop * 2 },
		func(src, dst *Element) { order = append(order, "second"); dst.OffsetTop++ },
	)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 11, clone.OffsetTop)
}

func TestCloneWithSkipsTextNodes(t *testing.T) {
	doc := mustParse(t, `<p id="p">a<b>b</b>c</p>`)
	doc.GetElementByID("p").Children()[0].OffsetLeft = 2

	clone := doc.GetElementByID("p").CloneNode(true)
	require.Len(t, clone.Node().Children, 3)
	assert.Equal(t, html.TextNode, clone.Node().Children[0].Type)
	assert.Equal(t, 2, clone.Children()[0].OffsetLeft)
}
