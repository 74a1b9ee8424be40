package js

import (
	"context"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/dom"
)

// Engine executes JavaScript against a document. One Engine owns one goja
// runtime and is not safe for concurrent use.
type Engine struct {
	vm      *goja.Runtime
	logger  *zap.Logger
	timeout time.Duration
	dom     *domContext
}

type Option func(*Engine)

// WithLogger sets the logger. The engine logs under the "js" name and
// console output goes to "js.console".
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.Named("js")
		}
	}
}

// WithTimeout bounds every script run. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates a new JS engine with a fresh goja runtime.
func New(opts ...Option) *Engine {
	e := &Engine{
		vm:     goja.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	c := &consoleAPI{logger: e.logger.Named("console")}
	c.register(e.vm)
	e.vm.Set("window", e.vm.GlobalObject())

	return e
}

func (e *Engine) Runtime() *goja.Runtime {
	return e.vm
}

// Bind exposes doc to scripts as the global document. Binding a new
// document drops the proxies of the previous one.
func (e *Engine) Bind(doc *dom.Document) {
	e.dom = registerDocument(e.vm, doc, e.logger)
}

// Execute binds doc and runs its scripts in document order, stopping at
// the first failing script.
func (e *Engine) Execute(ctx context.Context, doc *dom.Document) error {
	e.Bind(doc)
	for i, script := range doc.Tree().Scripts {
		if _, err := e.RunString(ctx, script); err != nil {
			return errors.Wrapf(err, "script %d", i)
		}
		e.logger.Debug("script executed", zap.Int("index", i), zap.Int("bytes", len(script)))
	}
	return nil
}

// RunString evaluates src. Cancelling ctx or exceeding the engine timeout
// interrupts the runtime.
func (e *Engine) RunString(ctx context.Context, src string) (goja.Value, error) {
	var result goja.Value
	err := e.Run(ctx, func() error {
		var err error
		result, err = e.vm.RunString(src)
		return err
	})
	return result, err
}

// Run calls fn with the interrupt guard armed, for Go code that may call
// back into script listeners, such as Element.Click.
func (e *Engine) Run(ctx context.Context, fn func() error) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// The watchdog must have exited before the interrupt is cleared, or a
	// late Interrupt would land on the next run.
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-exited
		e.vm.ClearInterrupt()
	}()

	err := fn()
	if e.dom != nil {
		e.dom.pruneEvents()
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		e.logger.Warn("script interrupted", zap.Any("reason", interrupted.Value()))
	}
	return err
}
