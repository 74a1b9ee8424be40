package dom

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/css"
)

// styleKey is the style attribute a declaration was parsed from. An absent
// attribute and an empty one are different keys.
type styleKey struct {
	text    string
	present bool
}

func (k styleKey) equal(other styleKey) bool {
	return k.present == other.present && k.text == other.text
}

type styleCache struct {
	key  styleKey
	decl *css.Declaration
}

func (e *Element) currentStyleKey() styleKey {
	text, ok := e.node.GetAttribute("style")
	return styleKey{text: text, present: ok}
}

// Style returns the parsed inline style. The same declaration is returned
// for as long as the style attribute is unchanged; writes through the
// declaration update the attribute and keep it current. If parsing fails
// the previous cache is kept and the error returned.
func (e *Element) Style() (*css.Declaration, error) {
	key := e.currentStyleKey()
	if e.style != nil && e.style.key.equal(key) {
		return e.style.decl, nil
	}

	decl, err := e.doc.factory(key.text, key.present)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing style of <%s>", e.node.TagName)
	}
	if decl == nil {
		return nil, errors.Errorf("parsing style of <%s>: factory returned no declaration", e.node.TagName)
	}

	if e.style != nil {
		e.style.decl.OnChange(nil)
	}
	cache := &styleCache{key: key, decl: decl}
	decl.OnChange(func(text string) {
		e.node.SetAttribute("style", text)
		cache.key = styleKey{text: text, present: true}
	})
	e.style = cache

	e.doc.logger.Debug("style parsed",
		zap.String("tag", e.node.TagName),
		zap.Bool("present", key.present),
		zap.Int("properties", decl.Length()),
	)
	return decl, nil
}
