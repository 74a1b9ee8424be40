package css

import (
	"sort"

	"domkit/pkg/html"
)

// applyUserAgentStyles applies the handful of defaults the cascade knows
// about before author rules.
func applyUserAgentStyles(node *html.Node, style *Style) {
	switch node.TagName {
	case "a":
		style.Set("color", "#0645ad")
		style.Set("text-decoration", "underline")
	case "script", "style", "head", "title", "meta", "link", "template":
		style.Set("display", "none")
	}
	if node.HasAttribute("hidden") {
		style.Set("display", "none")
	}
}

type cascadeEntry struct {
	name        string
	value       string
	important   bool
	specificity int
	order       int
}

// ComputeStyle resolves the final style of node from user agent defaults,
// matching author rules and the inline style attribute. Important author
// declarations beat normal inline ones; important inline beats everything.
func ComputeStyle(node *html.Node, sheets []*Stylesheet) *Style {
	final := NewStyle()
	if node.Type != html.ElementNode {
		return final
	}
	applyUserAgentStyles(node, final)

	var entries []cascadeEntry
	order := 0
	for _, sheet := range sheets {
		for _, rule := range sheet.Rules {
			if !MatchesSelector(node, rule.Selector) {
				continue
			}
			entries = appendEntries(entries, rule.Declarations, rule.Selector.Specificity, order)
			order++
		}
	}

	if text, ok := node.GetAttribute("style"); ok {
		entries = appendEntries(entries, ParseDeclaration(text), 1000, order)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.important != b.important {
			return !a.important
		}
		if a.specificity != b.specificity {
			return a.specificity < b.specificity
		}
		return a.order < b.order
	})

	for _, e := range entries {
		expandShorthand(final, e.name, e.value)
	}
	return final
}

func appendEntries(entries []cascadeEntry, decl *Declaration, specificity, order int) []cascadeEntry {
	for _, p := range decl.props {
		entries = append(entries, cascadeEntry{
			name:        p.name,
			value:       p.value,
			important:   p.priority == PriorityImportant,
			specificity: specificity,
			order:       order,
		})
	}
	return entries
}

// ParseStylesheets parses every stylesheet collected from a document,
// skipping the ones that fail.
func ParseStylesheets(texts []string) []*Stylesheet {
	sheets := make([]*Stylesheet, 0, len(texts))
	for _, text := range texts {
		sheet, err := ParseStylesheet(text)
		if err != nil && len(sheet.Rules) == 0 {
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// ApplyStylesToDocument computes the style of every element in doc.
func ApplyStylesToDocument(doc *html.Document) map[*html.Node]*Style {
	sheets := ParseStylesheets(doc.Stylesheets)
	styles := make(map[*html.Node]*Style)
	doc.Root.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			styles[n] = ComputeStyle(n, sheets)
		}
		return false
	})
	return styles
}
