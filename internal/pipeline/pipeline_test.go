package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeInput(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestRunEndToEnd(t *testing.T) {
	input := writeInput(t, `<library name="city"><book id="1"/><book id="2"/></library>`)
	out := filepath.Join(t.TempDir(), "out")
	dbPath := filepath.Join(t.TempDir(), "out.db")

	summary, err := Run(Options{Input: input, OutDir: out, DBPath: dbPath}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Classes)
	assert.Equal(t, 3, summary.Instances)
	assert.Equal(t, out, summary.OutDir)

	for _, name := range []string{
		"go.mod",
		"base_model.go",
		"library.go",
		"book.go",
		"generated_main.go",
		"Library.csv",
		"Book.csv",
		"class_dependencies.dot",
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestRunSkipGraph(t *testing.T) {
	input := writeInput(t, `<a><b/></a>`)
	out := filepath.Join(t.TempDir(), "out")

	_, err := Run(Options{Input: input, OutDir: out, SkipGraph: true}, zap.NewNop())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "class_dependencies.dot"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunInputErrorsAbort(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "malformed document", doc: "<a><b></a>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeInput(t, tt.doc)
			out := filepath.Join(t.TempDir(), "out")

			_, err := Run(Options{Input: input, OutDir: out}, zap.NewNop())
			require.Error(t, err)

			// No partial artifacts on input errors.
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunMissingInput(t *testing.T) {
	_, err := Run(Options{Input: "no/such/file.xml", OutDir: t.TempDir()}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunModelErrorAborts(t *testing.T) {
	// Attribute b and child tag b clash as one field name with two
	// kinds: a fatal model-consistency error before any artifact.
	input := writeInput(t, `<root b="x"><b/></root>`)
	out := filepath.Join(t.TempDir(), "out")

	_, err := Run(Options{Input: input, OutDir: out}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both scalar and relation")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
