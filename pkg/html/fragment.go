package html

import (
	"strings"

	"github.com/pkg/errors"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an innerHTML string in a <body> context and returns
// the resulting top-level nodes, detached. Comments and doctypes are
// dropped since the tree has no node type for them.
func ParseFragment(src string) ([]*Node, error) {
	context := &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	parsed, err := nethtml.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, errors.Wrap(err, "parsing fragment")
	}

	c := &converter{}
	nodes := make([]*Node, 0, len(parsed))
	for _, n := range parsed {
		if converted := c.convert(n); converted != nil {
			nodes = append(nodes, converted)
		}
	}
	return nodes, nil
}
