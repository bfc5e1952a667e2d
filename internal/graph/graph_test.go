package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modyf01/xml2go/internal/schema"
	"github.com/modyf01/xml2go/internal/xmltree"
)

func model(t *testing.T, doc string) *schema.Model {
	t.Helper()
	root, err := xmltree.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	a := schema.NewAnalyzer()
	a.Scan(root)
	m, err := schema.Build(a.Profiles())
	require.NoError(t, err)
	return m
}

func TestBuildEdges(t *testing.T) {
	m := model(t, `<library><book id="1"/><book id="2"/><owner/></library>`)

	edges := Build(m)
	assert.Equal(t, []Edge{
		{From: "Library", To: "Book", Card: schema.Repeated},
		{From: "Library", To: "Owner", Card: schema.Single},
	}, edges)
}

func TestBuildSelfEdge(t *testing.T) {
	m := model(t, `<dir><dir/></dir>`)

	edges := Build(m)
	require.Len(t, edges, 1)
	assert.Equal(t, Edge{From: "Dir", To: "Dir", Card: schema.Single}, edges[0])
}

func TestDOT(t *testing.T) {
	m := model(t, `<library><book id="1"/><book id="2"/></library>`)

	out := DOT(m)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "rankdir")
	assert.Contains(t, out, "Library")
	assert.Contains(t, out, "Book")
	assert.Contains(t, out, "repeated")
}

func TestWriteFile(t *testing.T) {
	m := model(t, `<a><b/></a>`)
	dir := t.TempDir()

	path, err := WriteFile(dir, m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
}
