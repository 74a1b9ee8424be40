package css

import (
	"strings"

	"github.com/pkg/errors"
)

// Rule is one style rule. A rule written with a selector group
// ("h1, h2 { ... }") is split into one Rule per selector so each carries
// its own specificity.
type Rule struct {
	Selector     Selector
	Declarations *Declaration
	Order        int // source position, used to break specificity ties
}

// Stylesheet is a parsed author stylesheet. At-rules are skipped.
type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses stylesheet text into rules. Malformed rules are
// skipped; an unbalanced closing brace is reported.
func ParseStylesheet(text string) (*Stylesheet, error) {
	sheet := &Stylesheet{}
	text = strings.TrimSpace(stripComments(text))
	if text == "" {
		return sheet, nil
	}

	blocks, err := splitRules(text)
	if err != nil {
		return sheet, err
	}

	order := 0
	for _, block := range blocks {
		brace := strings.IndexByte(block, '{')
		if brace < 0 {
			continue
		}
		prelude := strings.TrimSpace(block[:brace])
		if prelude == "" || strings.HasPrefix(prelude, "@") {
			continue
		}
		body := block[brace+1 : strings.LastIndexByte(block, '}')]
		for _, raw := range SplitSelectorGroup(prelude) {
			sel := ParseSelector(raw)
			if len(sel.Parts) == 0 {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Declarations: ParseDeclaration(body),
				Order:        order,
			})
			order++
		}
	}
	return sheet, nil
}

// splitRules splits stylesheet text into top-level "prelude { body }"
// blocks. A block left open at end of input is closed implicitly.
func splitRules(text string) ([]string, error) {
	var rules []string
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth < 0 {
				return rules, errors.Errorf("unexpected '}' at offset %d", i)
			}
			if depth == 0 {
				if r := strings.TrimSpace(text[start : i+1]); r != "" {
					rules = append(rules, r)
				}
				start = i + 1
			}
		}
	}
	if depth > 0 {
		rules = append(rules, strings.TrimSpace(text[start:])+strings.Repeat("}", depth))
	}
	return rules, nil
}
