// Package xmltree turns an XML document into a tree of labeled nodes.
// Only element structure, attributes and trimmed character data survive;
// comments, processing instructions and mixed-content ordering do not.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Attr is one attribute as it appeared on an element.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the parsed document. Children keep document
// order; Attrs keep attribute order. Nodes are not mutated after Parse
// returns.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// ParseFile reads and parses the XML document at path.
func ParseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return root, nil
}

// Parse decodes one XML document from r into a Node tree.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: rawName(t.Name)}
			for _, a := range t.Attr {
				// Namespace declarations are not data.
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Name: rawName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if cur.Text == "" {
				cur.Text = strings.TrimSpace(string(t))
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty document: no root element")
	}
	return root, nil
}

// Count returns the total number of elements in the tree rooted at n.
func Count(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += Count(c)
	}
	return total
}

// rawName renders a resolved XML name back into the {namespace}local
// form so namespace stripping stays the sanitizer's concern.
func rawName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return "{" + name.Space + "}" + name.Local
}
