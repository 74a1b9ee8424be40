package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "site.css", `.note { color: red }`)
	writeFile(t, dir, "app.js", `document.getElementById("out").textContent += "ext;";`)
	page := writeFile(t, dir, "index.html", `<html><head><link rel="stylesheet" href="site.css"></head><body>
<p id="out" class="note"></p>
<script>document.getElementById("out").textContent += "first;";</script>
<script src="app.js"></script>
<script>document.getElementById("out").textContent += "last;";</script>
</body></html>`)

	p, err := NewLoader().Load(context.Background(), page)
	require.NoError(t, err)

	out := p.Document.GetElementByID("out")
	assert.Equal(t, "first;ext;last;", out.InnerText())
	color, _ := p.Document.ComputedStyle(out).Get("color")
	assert.Equal(t, "red", color)
}

func TestLoadScriptsDisabled(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "index.html", `<p id="out">static</p><script>document.getElementById("out").textContent = "changed";</script>`)

	p, err := NewLoader(WithScripts(false)).Load(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "static", p.Document.GetElementByID("out").InnerText())

	_, err = p.Engine.RunString(context.Background(), `document.getElementById("out").textContent = "bound";`)
	require.NoError(t, err)
	assert.Equal(t, "bound", p.Document.GetElementByID("out").InnerText())
}

func TestLoadURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<link rel="stylesheet" href="../s.css"><div id="d"></div><script src="/a.js"></script>`))
	})
	mux.HandleFunc("/s.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte(`div { display: inline }`))
	})
	mux.HandleFunc("/a.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`document.getElementById("d").setAttribute("data-ran", "yes");`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewLoader().Load(context.Background(), srv.URL+"/page/index.html")
	require.NoError(t, err)
	d := p.Document.GetElementByID("d")
	ran, _ := d.GetAttribute("data-ran")
	assert.Equal(t, "yes", ran)
	display, _ := p.Document.ComputedStyle(d).Get("display")
	assert.Equal(t, "inline", display)
}

func TestMissingStylesheetIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dir := t.TempDir()
	page := writeFile(t, dir, "index.html", `<link rel="stylesheet" href="gone.css"><p id="p">x</p>`)

	p, err := NewLoader(WithLogger(zap.New(core))).Load(context.Background(), page)
	require.NoError(t, err)
	assert.NotNil(t, p.Document.GetElementByID("p"))
	require.Equal(t, 1, logs.FilterMessage("stylesheet skipped").Len())
	assert.Equal(t, "loader", logs.All()[0].LoggerName)
}

func TestLoadScriptError(t *testing.T) {
	p, err := NewLoader().LoadString(context.Background(), `<script>throw new Error("bad");</script>`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	require.NotNil(t, p)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "none.html"))
	require.Error(t, err)
}

func TestNonJavaScriptTypeIgnored(t *testing.T) {
	p, err := NewLoader().LoadString(context.Background(), `<p id="p">x</p><script type="text/template">not js {{</script>`, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Document.Tree().Scripts)
}

func TestFetchCSSRejectsBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	_, err := FetchCSS(context.Background(), NewFetcher(srv.URL, nil), "/x.css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image/png")
}

func TestDefaultFetcherRejectsRelativeWithoutBase(t *testing.T) {
	_, _, err := NewFetcher("", nil).Fetch(context.Background(), "x.css")
	require.Error(t, err)
}
