package css

import (
	"strings"
)

// Selector is a complex selector: compound parts joined by combinators,
// left to right as written.
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator // len(Parts)-1 entries
	Specificity int
}

// SelectorPart is one compound selector such as div.note#main[title].
type SelectorPart struct {
	Element       string
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []string
}

type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "^=", "$=", "*=", "~=", "|="
	Value    string
}

type Combinator int

const (
	DescendantCombinator      Combinator = iota // a b
	ChildCombinator                             // a > b
	AdjacentSiblingCombinator                   // a + b
	GeneralSiblingCombinator                    // a ~ b
)

// SplitSelectorGroup splits "a, b > c" into its comma-separated selectors,
// ignoring commas inside brackets, parentheses and quotes.
func SplitSelectorGroup(group string) []string {
	var result []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(group); i++ {
		ch := group[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '[' || ch == '(':
			depth++
		case ch == ']' || ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == ',' && depth == 0:
			if s := strings.TrimSpace(group[start:i]); s != "" {
				result = append(result, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(group[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

// ParseSelector parses a single complex selector. An unparseable selector
// yields a Selector with no parts, which matches nothing.
func ParseSelector(raw string) Selector {
	sel := Selector{Raw: strings.TrimSpace(raw)}
	p := &selectorParser{input: sel.Raw}

	for {
		hadSpace := p.skipSpace()
		if p.done() {
			break
		}
		if len(sel.Parts) > 0 {
			comb, explicit := p.combinator()
			if !explicit && !hadSpace {
				return Selector{Raw: sel.Raw}
			}
			p.skipSpace()
			if p.done() {
				return Selector{Raw: sel.Raw}
			}
			sel.Combinators = append(sel.Combinators, comb)
		}
		part, ok := p.compound()
		if !ok {
			return Selector{Raw: sel.Raw}
		}
		sel.Parts = append(sel.Parts, part)
	}

	if len(sel.Parts) == 0 {
		return sel
	}
	for _, part := range sel.Parts {
		sel.Specificity += partSpecificity(part)
	}
	return sel
}

func partSpecificity(part SelectorPart) int {
	score := 0
	if part.ID != "" {
		score += 100
	}
	score += 10 * (len(part.Classes) + len(part.Attributes) + len(part.PseudoClasses))
	if part.Element != "" && part.Element != "*" {
		score++
	}
	return score
}

type selectorParser struct {
	input string
	pos   int
}

func (p *selectorParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *selectorParser) skipSpace() bool {
	start := p.pos
	for !p.done() && isSpace(p.input[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *selectorParser) combinator() (Combinator, bool) {
	switch p.input[p.pos] {
	case '>':
		p.pos++
		return ChildCombinator, true
	case '+':
		p.pos++
		return AdjacentSiblingCombinator, true
	case '~':
		p.pos++
		return GeneralSiblingCombinator, true
	}
	return DescendantCombinator, false
}

func (p *selectorParser) compound() (SelectorPart, bool) {
	var part SelectorPart
	start := p.pos
	if !p.done() && p.input[p.pos] == '*' {
		part.Element = "*"
		p.pos++
	} else if name := p.ident(); name != "" {
		part.Element = strings.ToLower(name)
	}

	for !p.done() {
		switch p.input[p.pos] {
		case '#':
			p.pos++
			id := p.ident()
			if id == "" {
				return part, false
			}
			part.ID = id
		case '.':
			p.pos++
			cls := p.ident()
			if cls == "" {
				return part, false
			}
			part.Classes = append(part.Classes, cls)
		case '[':
			attr, ok := p.attribute()
			if !ok {
				return part, false
			}
			part.Attributes = append(part.Attributes, attr)
		case ':':
			p.pos++
			for !p.done() && p.input[p.pos] == ':' {
				p.pos++
			}
			name := p.ident()
			if name == "" {
				return part, false
			}
			name = strings.ToLower(name)
			if !p.done() && p.input[p.pos] == '(' {
				end := strings.IndexByte(p.input[p.pos:], ')')
				if end < 0 {
					return part, false
				}
				name += "(" + strings.TrimSpace(p.input[p.pos+1:p.pos+end]) + ")"
				p.pos += end + 1
			}
			part.PseudoClasses = append(part.PseudoClasses, name)
		default:
			return part, p.pos > start
		}
	}
	return part, p.pos > start
}

func (p *selectorParser) attribute() (AttributeSelector, bool) {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return AttributeSelector{}, false
	}
	body := strings.TrimSpace(p.input[p.pos+1 : p.pos+end])
	p.pos += end + 1

	for _, op := range []string{"^=", "$=", "*=", "~=", "|=", "="} {
		if i := strings.Index(body, op); i > 0 {
			value := strings.TrimSpace(body[i+len(op):])
			value = strings.Trim(value, `"'`)
			return AttributeSelector{
				Name:     strings.ToLower(strings.TrimSpace(body[:i])),
				Operator: op,
				Value:    value,
			}, true
		}
	}
	if body == "" {
		return AttributeSelector{}, false
	}
	return AttributeSelector{Name: strings.ToLower(body)}, true
}

func (p *selectorParser) ident() string {
	start := p.pos
	for !p.done() {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c >= 0x80 {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
