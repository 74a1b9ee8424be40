// Package resource loads pages from disk or the network into scripted
// documents.
package resource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/dom"
	"domkit/pkg/html"
	"domkit/pkg/js"
	stdnet "domkit/std/net"
)

// Page is a loaded document and the engine bound to it.
type Page struct {
	URI      string
	Document *dom.Document
	Engine   *js.Engine
}

// Loader turns a path or URL into a Page: it parses the markup, pulls in
// linked stylesheets and external scripts, then runs the scripts.
type Loader struct {
	client        *stdnet.Client
	logger        *zap.Logger
	runScripts    bool
	scriptTimeout time.Duration
	docOpts       []dom.Option
}

type LoaderOption func(*Loader)

// WithLogger sets the logger. The loader logs under "loader" and passes
// the logger on to the document and engine.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithClient(client *stdnet.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithScripts turns script execution on or off. Scripts run by default.
func WithScripts(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.runScripts = enabled
	}
}

func WithScriptTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.scriptTimeout = d
	}
}

func WithDocumentOptions(opts ...dom.Option) LoaderOption {
	return func(l *Loader) {
		l.docOpts = append(l.docOpts, opts...)
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:     &stdnet.Client{},
		logger:     zap.NewNop(),
		runScripts: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads target, a file path or http(s) URL, and builds its Page.
func (l *Loader) Load(ctx context.Context, target string) (*Page, error) {
	var (
		src     []byte
		fetcher Fetcher
		err     error
	)
	if stdnet.IsNetworkURL(target) {
		fetcher = NewFetcher(target, l.client)
		src, _, err = fetcher.Fetch(ctx, target)
	} else {
		path := strings.TrimPrefix(target, "file://")
		fetcher = NewFileFetcher(filepath.Dir(path), l.client)
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", target)
	}
	return l.build(ctx, target, string(src), fetcher)
}

// LoadString builds a Page from markup already in memory. Relative
// references resolve through fetcher, which may be nil.
func (l *Loader) LoadString(ctx context.Context, src string, fetcher Fetcher) (*Page, error) {
	return l.build(ctx, "", src, fetcher)
}

func (l *Loader) build(ctx context.Context, uri, src string, fetcher Fetcher) (*Page, error) {
	log := l.logger.Named("loader").With(zap.String("uri", uri))

	opts := append([]dom.Option{dom.WithLogger(l.logger)}, l.docOpts...)
	doc, err := dom.Parse(src, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", uri)
	}

	if fetcher != nil {
		l.linkStylesheets(ctx, doc, fetcher, log)
	}
	doc.Tree().Scripts = l.collectScripts(ctx, doc, fetcher, log)

	engine := js.New(js.WithLogger(l.logger), js.WithTimeout(l.scriptTimeout))
	page := &Page{URI: uri, Document: doc, Engine: engine}
	if !l.runScripts {
		engine.Bind(doc)
		log.Debug("scripts disabled", zap.Int("scripts", len(doc.Tree().Scripts)))
		return page, nil
	}
	if err := engine.Execute(ctx, doc); err != nil {
		return page, errors.Wrapf(err, "running scripts of %s", uri)
	}
	log.Debug("page loaded", zap.Int("scripts", len(doc.Tree().Scripts)))
	return page, nil
}

// linkStylesheets adds every <link rel="stylesheet"> to the document. A
// stylesheet that cannot be fetched is skipped.
func (l *Loader) linkStylesheets(ctx context.Context, doc *dom.Document, fetcher Fetcher, log *zap.Logger) {
	doc.Root().Walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.TagName != "link" {
			return false
		}
		rel, _ := n.GetAttribute("rel")
		href, ok := n.GetAttribute("href")
		if !ok || !hasToken(rel, "stylesheet") {
			return false
		}
		text, err := FetchCSS(ctx, fetcher, href)
		if err != nil {
			log.Warn("stylesheet skipped", zap.String("href", href), zap.Error(err))
			return false
		}
		doc.AddStylesheet(text)
		return false
	})
}

// collectScripts returns the page scripts in document order, with the
// bodies of external scripts fetched in place. Unfetchable scripts are
// skipped, as are non-JavaScript types.
func (l *Loader) collectScripts(ctx context.Context, doc *dom.Document, fetcher Fetcher, log *zap.Logger) []string {
	var scripts []string
	doc.Root().Walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.TagName != "script" {
			return false
		}
		if typ, ok := n.GetAttribute("type"); ok && !html.IsJavaScriptType(typ) {
			return false
		}
		src, external := n.GetAttribute("src")
		if !external {
			scripts = append(scripts, n.TextContent())
			return false
		}
		if fetcher == nil {
			log.Warn("external script skipped", zap.String("src", src))
			return false
		}
		body, _, err := fetcher.Fetch(ctx, src)
		if err != nil {
			log.Warn("external script skipped", zap.String("src", src), zap.Error(err))
			return false
		}
		scripts = append(scripts, string(body))
		return false
	})
	return scripts
}


func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
