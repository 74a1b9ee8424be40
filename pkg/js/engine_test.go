package js

import (
	"context"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"domkit/pkg/dom"
)

// runScript parses src, runs script against it and fails the test on any
// script error.
func runScript(t *testing.T, src, script string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(src)
	require.NoError(t, err)
	doc.Tree().Scripts = append(doc.Tree().Scripts, script)
	require.NoError(t, New().Execute(context.Background(), doc))
	return doc
}

// bindPage parses src and binds it to a fresh engine.
func bindPage(t *testing.T, src string) (*Engine, *dom.Document) {
	t.Helper()
	doc, err := dom.Parse(src)
	require.NoError(t, err)
	e := New()
	e.Bind(doc)
	return e, doc
}

// eval runs src and exports its completion value.
func eval(t *testing.T, e *Engine, src string) interface{} {
	t.Helper()
	v, err := e.RunString(context.Background(), src)
	require.NoError(t, err)
	return v.Export()
}

func TestGetElementById(t *testing.T) {
	runScript(t, `<div id="foo">hello</div>`, `
		var el = document.getElementById("foo");
		if (el === null) throw new Error("element not found");
		if (el.id !== "foo") throw new Error("wrong id: " + el.id);
		if (el.tagName !== "DIV") throw new Error("wrong tagName: " + el.tagName);
	`)
}

func TestGetElementByIdNotFound(t *testing.T) {
	runScript(t, `<div>hello</div>`, `
		var el = document.getElementById("nonexistent");
		if (el !== null) throw new Error("expected null, got: " + el);
	`)
}

func TestGetElementsByTagName(t *testing.T) {
	runScript(t, `<p>one</p><p>two</p><div>three</div>`, `
		var ps = document.getElementsByTagName("p");
		if (ps.length !== 2) throw new Error("expected 2 p tags, got: " + ps.length);
	`)
}

func TestGetElementsByClassName(t *testing.T) {
	runScript(t, `<div class="a b">one</div><div class="a">two</div><div class="c">three</div>`, `
		var els = document.getElementsByClassName("a");
		if (els.length !== 2) throw new Error("expected 2 elements with class a, got: " + els.length);
	`)
}

func TestSetTextContent(t *testing.T) {
	doc := runScript(t, `<p id="target">original</p>`, `
		document.getElementById("target").textContent = "changed";
	`)
	assert.Equal(t, "changed", doc.GetElementByID("target").InnerText())
}

func TestStyleIdentity(t *testing.T) {
	runScript(t, `<div id="a" style="color: red"></div>`, `
		var el = document.getElementById("a");
		if (el.style !== el.style) throw new Error("style should be cached");
		if (el.style.color !== "red") throw new Error("color: " + el.style.color);
	`)
}

func TestStyleInvalidatedBySetAttribute(t *testing.T) {
	runScript(t, `<div id="a" style="color: red"></div>`, `
		var el = document.getElementById("a");
		var before = el.style;
		el.setAttribute("style", "color: blue");
		var after = el.style;
		if (before === after) throw new Error("style should be rebuilt");
		if (after.color !== "blue") throw new Error("color: " + after.color);
		el.setAttribute("style", "color: blue");
		if (el.style !== after) throw new Error("same text should keep the cache");
	`)
}

func TestStyleProxiesBoundedPerElement(t *testing.T) {
	doc, err := dom.Parse(`<div id="a" style="color: red"></div><p id="b"></p>`)
	require.NoError(t, err)
	e := New()
	e.Bind(doc)
	_, err = e.RunString(context.Background(), `
		var a = document.getElementById("a");
		for (var i = 0; i < 50; i++) {
			a.setAttribute("style", "width: " + i + "px");
			if (a.style.width !== i + "px") throw new Error("width: " + a.style.width);
		}
		document.getElementById("b").style.color = "blue";
	`)
	require.NoError(t, err)
	assert.Len(t, e.dom.styles, 2)

	entry := e.dom.styles[doc.GetElementByID("a")]
	current, err := doc.GetElementByID("a").Style()
	require.NoError(t, err)
	assert.Same(t, current, entry.decl)
}

func TestStyleWithoutAttribute(t *testing.T) {
	doc := runScript(t, `<div id="a"></div>`, `
		var el = document.getElementById("a");
		if (el.style.cssText !== "") throw new Error("cssText: " + el.style.cssText);
		if (el.hasAttribute("style")) throw new Error("reading style must not add the attribute");
		var absent = el.style;
		el.setAttribute("style", "");
		if (el.style === absent) throw new Error("empty attribute is not the same as no attribute");
	`)
	_, ok := doc.GetElementByID("a").GetAttribute("style")
	assert.True(t, ok)
}

func TestStyleCamelCaseReflected(t *testing.T) {
	doc := runScript(t, `<div id="box"></div>`, `
		var el = document.getElementById("box");
		el.style.backgroundColor = "blue";
		el.style.setProperty("margin-top", "4px", "important");
		if (el.style.getPropertyPriority("margin-top") !== "important") throw new Error("priority lost");
		if (el.style.length !== 2) throw new Error("length: " + el.style.length);
	`)
	style, _ := doc.GetElementByID("box").GetAttribute("style")
	assert.Equal(t, "background-color: blue; margin-top: 4px !important;", style)
}

func TestStyleCSSText(t *testing.T) {
	doc := runScript(t, `<div id="box" style="color: red"></div>`, `
		var el = document.getElementById("box");
		var s = el.style;
		s.cssText = "display: none; width: 10px";
		if (s.display !== "none") throw new Error("display: " + s.display);
		if (el.style !== s) throw new Error("own write should keep the cache");
		el.style = "height: 2px";
		if (el.style.height !== "2px") throw new Error("height: " + el.style.height);
	`)
	style, _ := doc.GetElementByID("box").GetAttribute("style")
	assert.Equal(t, "height: 2px;", style)
}

func TestInnerText(t *testing.T) {
	doc := runScript(t, `<p id="p">one<b>two</b></p>`, `
		var p = document.getElementById("p");
		if (p.innerText !== "onetwo") throw new Error("innerText: " + p.innerText);
		p.innerText = "<i>plain</i>";
		if (p.children.length !== 0) throw new Error("innerText must not parse markup");
	`)
	assert.Equal(t, "<i>plain</i>", doc.GetElementByID("p").InnerText())
	assert.Equal(t, "&lt;i&gt;plain&lt;/i&gt;", doc.GetElementByID("p").InnerHTML())
}

func TestCloneNodeCopiesPresentation(t *testing.T) {
	runScript(t, `<div id="a" style="color: red"><span id="s"></span></div>`, `
		var el = document.getElementById("a");
		el.tabIndex = 3;
		el.offsetWidth = 40;
		el.clientHeight = 7;
		var s = el.style;
		var c = el.cloneNode(false);
		if (c === el) throw new Error("clone is a new node");
		if (c.tabIndex !== 3) throw new Error("tabIndex: " + c.tabIndex);
		if (c.offsetWidth !== 40) throw new Error("offsetWidth: " + c.offsetWidth);
		if (c.clientHeight !== 7) throw new Error("clientHeight: " + c.clientHeight);
		if (c.children.length !== 0) throw new Error("shallow clone has children");
		if (c.style === s) throw new Error("clone must not share the style cache");
		if (c.style.color !== "red") throw new Error("clone color: " + c.style.color);
		c.style.color = "blue";
		if (el.style.color !== "red") throw new Error("clone write leaked into source");

		document.getElementById("s").tabIndex = 9;
		var deep = el.cloneNode(true);
		if (deep.firstElementChild.tabIndex !== 9) throw new Error("deep tabIndex: " + deep.firstElementChild.tabIndex);
	`)
}

func TestInteractionEvents(t *testing.T) {
	for _, typ := range []string{"click", "focus", "blur"} {
		t.Run(typ, func(t *testing.T) {
			runScript(t, `<div id="outer"><button id="b"></button></div>`, `
				var b = document.getElementById("b");
				var outer = document.getElementById("outer");
				var seen = [];
				b.addEventListener("`+typ+`", function (e) {
					if (!e.bubbles) throw new Error("bubbles");
					if (!e.composed) throw new Error("composed");
					if (e.target !== b) throw new Error("target");
					if (e.currentTarget !== b) throw new Error("currentTarget");
					if (e.type !== "`+typ+`") throw new Error("type: " + e.type);
					seen.push("b");
				});
				outer.addEventListener("`+typ+`", function (e) {
					if (e.target !== b) throw new Error("bubbled target");
					if (e.currentTarget !== outer) throw new Error("bubbled currentTarget");
					seen.push("outer");
				});
				document.addEventListener("`+typ+`", function () { seen.push("document"); });
				b.`+typ+`();
				if (seen.join(",") !== "b,outer,document") throw new Error("order: " + seen.join(","));
			`)
		})
	}
}

func TestListenerExceptionCaughtByScript(t *testing.T) {
	runScript(t, `<button id="b"></button>`, `
		var b = document.getElementById("b");
		b.addEventListener("click", function () { throw new Error("boom"); });
		var caught = null;
		try { b.click(); } catch (e) { caught = e; }
		if (caught === null || caught.message !== "boom") throw new Error("listener error not rethrown");
	`)
}

func TestListenerExceptionSurfacesInGo(t *testing.T) {
	doc, err := dom.Parse(`<button id="b"></button>`)
	require.NoError(t, err)
	e := New()
	e.Bind(doc)
	_, err = e.RunString(context.Background(), `
		document.getElementById("b").addEventListener("click", function () {
			throw new Error("from listener");
		});
	`)
	require.NoError(t, err)

	b := doc.GetElementByID("b")
	err = e.Run(context.Background(), b.Click)
	require.Error(t, err)
	var exc *goja.Exception
	require.True(t, errors.As(err, &exc))
	assert.Contains(t, exc.Error(), "from listener")
}

func TestGoClickSeenByScript(t *testing.T) {
	doc, err := dom.Parse(`<button id="b"></button>`)
	require.NoError(t, err)
	e := New()
	e.Bind(doc)
	_, err = e.RunString(context.Background(), `
		var clicks = 0;
		var lastTarget = null;
		document.getElementById("b").addEventListener("click", function (ev) {
			clicks++;
			lastTarget = ev.target;
		});
	`)
	require.NoError(t, err)

	b := doc.GetElementByID("b")
	require.NoError(t, e.Run(context.Background(), b.Click))
	require.NoError(t, e.Run(context.Background(), b.Click))

	v, err := e.RunString(context.Background(), `clicks + ":" + (lastTarget === document.getElementById("b"))`)
	require.NoError(t, err)
	assert.Equal(t, "2:true", v.String())
}

func TestEventConstructorAndDispatch(t *testing.T) {
	runScript(t, `<div id="p"><span id="c"></span></div>`, `
		var p = document.getElementById("p");
		var c = document.getElementById("c");
		var got = null;
		p.addEventListener("ping", function (e) { got = e.detail; });
		var quiet = new Event("ping");
		c.dispatchEvent(quiet);
		if (got !== null) throw new Error("non-bubbling event reached parent");
		var ev = new CustomEvent("ping", { bubbles: true, cancelable: true, detail: 42 });
		c.addEventListener("ping", function (e) { e.preventDefault(); });
		var result = c.dispatchEvent(ev);
		if (got !== 42) throw new Error("detail: " + got);
		if (result !== false) throw new Error("dispatchEvent should report cancellation");
		if (ev.eventPhase !== 0) throw new Error("phase after dispatch: " + ev.eventPhase);
		if (ev.currentTarget !== null) throw new Error("currentTarget after dispatch");
	`)
}

func TestRemoveEventListener(t *testing.T) {
	runScript(t, `<div id="a"></div>`, `
		var a = document.getElementById("a");
		var n = 0;
		function inc() { n++; }
		a.addEventListener("click", inc);
		a.addEventListener("click", inc);
		a.click();
		a.removeEventListener("click", inc);
		a.click();
		if (n !== 1) throw new Error("count: " + n);
	`)
}

func TestNestedDispatchRejected(t *testing.T) {
	runScript(t, `<div id="a"></div>`, `
		var a = document.getElementById("a");
		var ev = new Event("x");
		var name = null;
		a.addEventListener("x", function () {
			try { a.dispatchEvent(ev); } catch (e) { name = e.name; }
		});
		a.dispatchEvent(ev);
		if (name !== "InvalidStateError") throw new Error("got: " + name);
	`)
}

func TestGetComputedStyle(t *testing.T) {
	doc, err := dom.Parse(`<p id="p" class="note" style="color: green">x</p>`)
	require.NoError(t, err)
	doc.AddStylesheet(`.note { color: red; margin: 2px } p { display: block }`)
	doc.Tree().Scripts = append(doc.Tree().Scripts, `
		var cs = getComputedStyle(document.getElementById("p"));
		if (cs.color !== "green") throw new Error("inline should win: " + cs.color);
		if (cs.getPropertyValue("margin-left") !== "2px") throw new Error("margin-left: " + cs.getPropertyValue("margin-left"));
		if (cs.display !== "block") throw new Error("display: " + cs.display);
	`)
	require.NoError(t, New().Execute(context.Background(), doc))
}

func TestScriptError(t *testing.T) {
	doc, err := dom.Parse(`<div></div>`)
	require.NoError(t, err)
	doc.Tree().Scripts = append(doc.Tree().Scripts, `throw new Error("intentional");`)
	err = New().Execute(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script 0")
	assert.Contains(t, err.Error(), "intentional")
}

func TestScriptExtraction(t *testing.T) {
	doc, err := dom.Parse(`<div id="t">before</div><script>document.getElementById("t").textContent = "after";</script>`)
	require.NoError(t, err)
	require.Len(t, doc.Tree().Scripts, 1)
	require.NoError(t, New().Execute(context.Background(), doc))
	assert.Equal(t, "after", doc.GetElementByID("t").InnerText())
}

func TestTimeoutInterrupts(t *testing.T) {
	e := New(WithTimeout(50 * time.Millisecond))
	e.Bind(dom.NewDocument(nil))
	_, err := e.RunString(context.Background(), `for (;;) {}`)
	require.Error(t, err)
	var interrupted *goja.InterruptedError
	assert.True(t, errors.As(err, &interrupted))

	// The runtime is usable again once the interrupt is cleared.
	v, err := e.RunString(context.Background(), `1 + 1`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v.ToInteger())
}

func TestCancelAtExitDoesNotLeakIntoNextRun(t *testing.T) {
	e := New()
	e.Bind(dom.NewDocument(nil))
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		err := e.Run(ctx, func() error {
			cancel()
			return nil
		})
		require.NoError(t, err)

		v, err := e.RunString(context.Background(), `for (var n = 0; n < 100; n++) {} n`)
		require.NoError(t, err, "run %d", i)
		assert.EqualValues(t, 100, v.ToInteger())
	}
}

func TestInterruptInsideListener(t *testing.T) {
	doc, err := dom.Parse(`<div id="a"></div>`)
	require.NoError(t, err)
	e := New(WithTimeout(50 * time.Millisecond))
	e.Bind(doc)
	_, err = e.RunString(context.Background(), `
		var a = document.getElementById("a");
		a.addEventListener("click", function () { for (;;) {} });
		var after = false;
		try { a.click(); } catch (e) {}
		after = true;
	`)
	require.Error(t, err)
	v, err := e.RunString(context.Background(), `after`)
	require.NoError(t, err)
	assert.False(t, v.ToBoolean())
}

func TestConsoleLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := New(WithLogger(zap.New(core)))
	e.Bind(dom.NewDocument(nil))
	_, err := e.RunString(context.Background(), `
		console.log("hello", 1);
		console.warn("careful");
	`)
	require.NoError(t, err)

	entries := logs.Filter(func(entry observer.LoggedEntry) bool {
		return entry.LoggerName == "js.console"
	}).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello 1", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestEventProxiesPruned(t *testing.T) {
	doc, err := dom.Parse(`<div id="a"></div>`)
	require.NoError(t, err)
	e := New()
	e.Bind(doc)
	_, err = e.RunString(context.Background(), `
		var a = document.getElementById("a");
		a.addEventListener("click", function () {});
		for (var i = 0; i < 10; i++) a.click();
		var kept = new Event("x");
	`)
	require.NoError(t, err)
	assert.Len(t, e.dom.events, 1)
	assert.Len(t, e.dom.constructed, 1)
}

func TestDocumentTagElementInScripts(t *testing.T) {
	doc := runScript(t, `<document id="d"><span id="s"></span></document>`, `
		var d = document.getElementById("d");
		if (d === document) throw new Error("element mistaken for document");
		if (d.nodeType !== 1) throw new Error("nodeType: " + d.nodeType);
		if (d.parentElement.tagName !== "BODY") throw new Error("parent: " + d.parentElement.tagName);
		if (document.getElementById("s").parentNode !== d) throw new Error("span parent");
		if (document.documentElement.parentNode !== document) throw new Error("html parent");
		if (document.documentElement.parentElement !== null) throw new Error("html parentElement");

		var made = document.createElement("document");
		if (made === document || made.nodeType !== 1) throw new Error("created element");
		d.appendChild(made);
		var hits = 0;
		document.addEventListener("click", function () { hits++; });
		made.click();
		if (hits !== 1) throw new Error("hits: " + hits);
	`)
	assert.Len(t, doc.GetElementsByTagName("document"), 2)
}
