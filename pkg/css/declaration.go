package css

import (
	"strings"
)

// Declaration is a mutable, ordered CSS declaration block such as the one
// behind an element's style attribute. Every mutation is reported through
// the OnChange hook with the re-serialized text.
type Declaration struct {
	props    []property
	onChange func(cssText string)
}

type property struct {
	name     string
	value    string
	priority string
}

// PriorityImportant is the only non-empty priority a property can carry.
const PriorityImportant = "important"

// Factory builds a declaration from a style attribute. present is false
// when the attribute is absent, in which case cssText is empty.
type Factory func(cssText string, present bool) (*Declaration, error)

// DefaultFactory parses cssText leniently and never fails.
func DefaultFactory(cssText string, present bool) (*Declaration, error) {
	return ParseDeclaration(cssText), nil
}

func NewDeclaration() *Declaration {
	return &Declaration{}
}

// ParseDeclaration parses the body of a declaration block. Malformed
// declarations are dropped the way a browser drops them.
func ParseDeclaration(cssText string) *Declaration {
	d := NewDeclaration()
	d.parse(cssText)
	return d
}

// OnChange installs fn to be called after every mutation. Passing nil
// removes the hook.
func (d *Declaration) OnChange(fn func(cssText string)) {
	d.onChange = fn
}

func (d *Declaration) changed() {
	if d.onChange != nil {
		d.onChange(d.CSSText())
	}
}

// CSSText serializes the block as "name: value; name: value !important;".
func (d *Declaration) CSSText() string {
	if len(d.props) == 0 {
		return ""
	}
	parts := make([]string, len(d.props))
	for i, p := range d.props {
		s := p.name + ": " + p.value
		if p.priority != "" {
			s += " !" + p.priority
		}
		parts[i] = s + ";"
	}
	return strings.Join(parts, " ")
}

// SetCSSText replaces every property with the ones parsed from text.
func (d *Declaration) SetCSSText(text string) {
	d.props = nil
	d.parse(text)
	d.changed()
}

func (d *Declaration) Length() int {
	return len(d.props)
}

// Item returns the name of the i-th property, or "" when out of range.
func (d *Declaration) Item(i int) string {
	if i < 0 || i >= len(d.props) {
		return ""
	}
	return d.props[i].name
}

// Properties returns the property names in declaration order.
func (d *Declaration) Properties() []string {
	names := make([]string, len(d.props))
	for i, p := range d.props {
		names[i] = p.name
	}
	return names
}

func (d *Declaration) GetPropertyValue(name string) string {
	if i := d.index(normalizeName(name)); i >= 0 {
		return d.props[i].value
	}
	return ""
}

func (d *Declaration) GetPropertyPriority(name string) string {
	if i := d.index(normalizeName(name)); i >= 0 {
		return d.props[i].priority
	}
	return ""
}

// SetProperty sets name to value. An empty value removes the property. A
// priority other than "" or "important" leaves the block unchanged.
func (d *Declaration) SetProperty(name, value, priority string) {
	name = normalizeName(name)
	if name == "" {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		d.RemoveProperty(name)
		return
	}
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority != "" && priority != PriorityImportant {
		return
	}
	d.set(name, value, priority, true)
	d.changed()
}

// RemoveProperty deletes name and returns its previous value.
func (d *Declaration) RemoveProperty(name string) string {
	i := d.index(normalizeName(name))
	if i < 0 {
		return ""
	}
	old := d.props[i].value
	d.props = append(d.props[:i], d.props[i+1:]...)
	d.changed()
	return old
}

// Style returns the block with shorthands expanded into longhands.
func (d *Declaration) Style() *Style {
	style := NewStyle()
	for _, p := range d.props {
		expandShorthand(style, p.name, p.value)
	}
	return style
}

func (d *Declaration) index(name string) int {
	for i, p := range d.props {
		if p.name == name {
			return i
		}
	}
	return -1
}

// set stores a property. When override is false an important value is not
// replaced by a normal one, which is the rule inside a single block.
func (d *Declaration) set(name, value, priority string, override bool) {
	if i := d.index(name); i >= 0 {
		if !override && d.props[i].priority == PriorityImportant && priority == "" {
			return
		}
		d.props[i].value = value
		d.props[i].priority = priority
		return
	}
	d.props = append(d.props, property{name: name, value: value, priority: priority})
}

func (d *Declaration) parse(text string) {
	for _, decl := range splitDeclarations(stripComments(text)) {
		idx := strings.IndexByte(decl, ':')
		if idx < 0 {
			continue
		}
		name := normalizeName(decl[:idx])
		value, priority := splitPriority(strings.TrimSpace(decl[idx+1:]))
		if name == "" || value == "" || !isValidName(name) {
			continue
		}
		d.set(name, value, priority, false)
	}
}

// splitDeclarations splits on ';' outside of quotes, parentheses and
// brackets so values like url("a;b") survive.
func splitDeclarations(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			if depth > 0 {
				depth--
			}
		case ch == ';' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// stripComments removes /* ... */ comments. An unterminated comment runs to
// the end of input.
func stripComments(s string) string {
	if !strings.Contains(s, "/*") {
		return s
	}
	var sb strings.Builder
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:start])
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			break
		}
		s = s[start+2+end+2:]
	}
	return sb.String()
}

func splitPriority(value string) (string, string) {
	bang := strings.LastIndexByte(value, '!')
	if bang < 0 {
		return value, ""
	}
	if strings.EqualFold(strings.TrimSpace(value[bang+1:]), PriorityImportant) {
		return strings.TrimSpace(value[:bang]), PriorityImportant
	}
	return value, ""
}

// normalizeName lowercases property names except custom properties,
// which are case-sensitive.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	return strings.ToLower(name)
}

func isValidName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '-' && c != '_' {
			return false
		}
	}
	return true
}
