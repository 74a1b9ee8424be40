package css

import (
	"strconv"
	"strings"

	"domkit/pkg/html"
)

// MatchesSelector reports whether node matches the complex selector.
func MatchesSelector(node *html.Node, selector Selector) bool {
	if node.Type != html.ElementNode {
		return false
	}

	if len(selector.Parts) == 0 {
		return false
	}

	// Start matching from the rightmost part (the target element)
	return matchesCompoundSelector(node, selector, len(selector.Parts)-1)
}

// matchesCompoundSelector checks if the node matches the selector at the given part index
// and all ancestor requirements
func matchesCompoundSelector(node *html.Node, selector Selector, partIndex int) bool {
	// Match the current part against the node
	if !matchesSelectorPart(node, selector.Parts[partIndex]) {
		return false
	}

	// If this is the first part, we're done
	if partIndex == 0 {
		return true
	}

	// Check the combinator with the previous part
	combinator := selector.Combinators[partIndex-1]
	prevPartIndex := partIndex - 1

	switch combinator {
	case DescendantCombinator:
		// Match any ancestor
		return matchesAncestor(node, selector, prevPartIndex)

	case ChildCombinator:
		// Direct parent only; the document node never matches.
		if node.Parent != nil && node.Parent.Type == html.ElementNode {
			return matchesCompoundSelector(node.Parent, selector, prevPartIndex)
		}
		return false

	case AdjacentSiblingCombinator:
		// Match immediate previous sibling
		prevSibling := getPreviousSibling(node)
		if prevSibling != nil {
			return matchesCompoundSelector(prevSibling, selector, prevPartIndex)
		}
		return false

	case GeneralSiblingCombinator:
		// Match any previous sibling
		return matchesPreviousSibling(node, selector, prevPartIndex)
	}

	return false
}

// matchesSelectorPart checks if a node matches a single selector part
func matchesSelectorPart(node *html.Node, part SelectorPart) bool {
	// Match element
	if part.Element != "" && part.Element != "*" {
		if node.TagName != part.Element {
			return false
		}
	}

	// Match ID
	if part.ID != "" {
		if id, ok := node.GetAttribute("id"); !ok || id != part.ID {
			return false
		}
	}

	// Match classes
	if len(part.Classes) > 0 {
		classAttr, ok := node.GetAttribute("class")
		if !ok {
			return false
		}
		nodeClasses := strings.Fields(classAttr)
		for _, requiredClass := range part.Classes {
			found := false
			for _, nodeClass := range nodeClasses {
				if nodeClass == requiredClass {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}

	// Match attributes
	for _, attrSel := range part.Attributes {
		if !matchesAttributeSelector(node, attrSel) {
			return false
		}
	}

	for _, pc := range part.PseudoClasses {
		if !matchesPseudoClass(node, pc) {
			return false
		}
	}

	return true
}

// matchesPseudoClass handles the structural pseudo-classes and :not().
// Dynamic ones such as hover and unknown ones never match since there is
// no user interaction state to consult.
func matchesPseudoClass(node *html.Node, pc string) bool {
	if open := strings.IndexByte(pc, '('); open > 0 && strings.HasSuffix(pc, ")") {
		name, arg := pc[:open], pc[open+1:len(pc)-1]
		switch name {
		case "nth-child":
			return matchesNth(arg, elementPosition(node, false))
		case "nth-last-child":
			return matchesNth(arg, elementPosition(node, true))
		case "not":
			return !MatchesGroup(node, arg)
		}
		return false
	}
	switch pc {
	case "first-child":
		return getPreviousSibling(node) == nil
	case "last-child":
		return getNextSibling(node) == nil
	case "only-child":
		return getPreviousSibling(node) == nil && getNextSibling(node) == nil
	case "empty":
		return len(node.Children) == 0
	}
	return false
}

// matchesAttributeSelector checks if a node matches an attribute selector
func matchesAttributeSelector(node *html.Node, attr AttributeSelector) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}

	// If no operator, just check existence
	if attr.Operator == "" {
		return true
	}

	switch attr.Operator {
	case "=":
		// Exact match
		return value == attr.Value
	case "^=":
		// Starts with
		return strings.HasPrefix(value, attr.Value)
	case "$=":
		// Ends with
		return strings.HasSuffix(value, attr.Value)
	case "*=":
		// Contains
		return strings.Contains(value, attr.Value)
	case "~=":
		// Word match (whitespace-separated)
		words := strings.Fields(value)
		for _, word := range words {
			if word == attr.Value {
				return true
			}
		}
		return false
	case "|=":
		// Language prefix (starts with value or value-)
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}

	return false
}

// matchesAncestor checks if any ancestor matches the selector part
func matchesAncestor(node *html.Node, selector Selector, partIndex int) bool {
	for ancestor := node.Parent; ancestor != nil; ancestor = ancestor.Parent {
		if ancestor.Type == html.ElementNode {
			if matchesCompoundSelector(ancestor, selector, partIndex) {
				return true
			}
		}
	}
	return false
}

// matchesPreviousSibling checks if any previous sibling matches the selector part
func matchesPreviousSibling(node *html.Node, selector Selector, partIndex int) bool {
	for sibling := getPreviousSibling(node); sibling != nil; sibling = getPreviousSibling(sibling) {
		if matchesCompoundSelector(sibling, selector, partIndex) {
			return true
		}
	}
	return false
}

// getPreviousSibling returns the previous element sibling of a node
func getPreviousSibling(node *html.Node) *html.Node {
	if node.Parent == nil {
		return nil
	}

	foundCurrent := false
	var prevElement *html.Node

	for _, sibling := range node.Parent.Children {
		if sibling == node {
			foundCurrent = true
			break
		}
		if sibling.Type == html.ElementNode {
			prevElement = sibling
		}
	}

	if foundCurrent {
		return prevElement
	}
	return nil
}

// getNextSibling returns the next element sibling of a node
func getNextSibling(node *html.Node) *html.Node {
	if node.Parent == nil {
		return nil
	}
	siblings := node.Parent.Children
	for i := node.IndexInParent() + 1; i > 0 && i < len(siblings); i++ {
		if siblings[i].Type == html.ElementNode {
			return siblings[i]
		}
	}
	return nil
}

// MatchesGroup reports whether node matches any selector of a
// comma-separated group such as "p.note, #main > a".
func MatchesGroup(node *html.Node, group string) bool {
	for _, raw := range SplitSelectorGroup(group) {
		if MatchesSelector(node, ParseSelector(raw)) {
			return true
		}
	}
	return false
}

// elementPosition returns the 1-based index of node among its element
// siblings, counted from the end when fromEnd is set.
func elementPosition(node *html.Node, fromEnd bool) int {
	if node.Parent == nil {
		return 1
	}
	pos := 0
	found := 0
	for _, sibling := range node.Parent.Children {
		if sibling.Type != html.ElementNode {
			continue
		}
		pos++
		if sibling == node {
			found = pos
		}
	}
	if fromEnd {
		return pos - found + 1
	}
	return found
}

// matchesNth evaluates an An+B expression ("odd", "even", "3", "2n+1",
// "-n+3") against a 1-based position.
func matchesNth(expr string, pos int) bool {
	expr = strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	switch expr {
	case "odd":
		expr = "2n+1"
	case "even":
		expr = "2n"
	}

	n := strings.IndexByte(expr, 'n')
	if n < 0 {
		b, err := strconv.Atoi(expr)
		return err == nil && pos == b
	}

	a := 1
	switch coef := expr[:n]; coef {
	case "", "+":
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(coef)
		if err != nil {
			return false
		}
		a = v
	}
	b := 0
	if rest := expr[n+1:]; rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil {
			return false
		}
		b = v
	}

	if a == 0 {
		return pos == b
	}
	diff := pos - b
	return diff%a == 0 && diff/a >= 0
}
