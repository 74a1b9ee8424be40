package dom

import (
	"go.uber.org/zap"

	"domkit/pkg/css"
)

type Option func(*Document)

// WithLogger sets the logger. The document logs under the "dom" name.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger.Named("dom")
		}
	}
}

// WithDeclarationFactory replaces the parser used to build style
// declarations from style attributes.
func WithDeclarationFactory(factory css.Factory) Option {
	return func(d *Document) {
		if factory != nil {
			d.factory = factory
		}
	}
}
