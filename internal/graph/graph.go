// Package graph derives the directed class-relation graph from the
// class model and serializes it as DOT for an external renderer.
package graph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emicklei/dot"

	"github.com/modyf01/xml2go/internal/schema"
)

// FileName is the DOT artifact written next to the other outputs.
const FileName = "class_dependencies.dot"

// Edge is one directed class relation, labeled with its cardinality.
type Edge struct {
	From string
	To   string
	Card schema.Cardinality
}

// Build emits one edge per relation field of every class, in model
// order. Self-edges and cycles between classes are preserved: the class
// graph is structural and not guaranteed acyclic even though the
// instance graph is a tree.
func Build(m *schema.Model) []Edge {
	var edges []Edge
	for _, spec := range m.Classes() {
		for _, rel := range spec.Relations {
			edges = append(edges, Edge{From: spec.Name, To: rel.Target, Card: rel.Card})
		}
	}
	return edges
}

// DOT renders the class dependency graph, one node per class and one
// cardinality-labeled edge per relation, laid out left to right.
func DOT(m *schema.Model) string {
	g := dot.NewGraph(dot.Directed)
	g.ID("Dependencies")
	g.Attr("rankdir", "LR")

	nodes := make(map[string]dot.Node)
	for _, spec := range m.Classes() {
		nodes[spec.Name] = g.Node(spec.Name)
	}
	for _, e := range Build(m) {
		g.Edge(nodes[e.From], nodes[e.To]).Label(string(e.Card))
	}
	return g.String()
}

// WriteFile writes the DOT artifact into dir and returns its path.
func WriteFile(dir string, m *schema.Model) (string, error) {
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(DOT(m)), 0644); err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	return path, nil
}
