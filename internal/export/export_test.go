package export

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modyf01/xml2go/internal/instance"
	"github.com/modyf01/xml2go/internal/schema"
	"github.com/modyf01/xml2go/internal/xmltree"
)

func generate(t *testing.T, doc string) (*schema.Model, *instance.Set) {
	t.Helper()
	root, err := xmltree.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	a := schema.NewAnalyzer()
	a.Scan(root)
	model, err := schema.Build(a.Profiles())
	require.NoError(t, err)

	set, err := instance.Generate(root, model)
	require.NoError(t, err)
	return model, set
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVLibraryExample(t *testing.T) {
	model, set := generate(t, `<library><book id="1"/><book id="2"/></library>`)
	dir := t.TempDir()

	require.NoError(t, CSV(dir, model, set))

	books := readCSV(t, filepath.Join(dir, "Book.csv"))
	require.Len(t, books, 3)
	assert.Equal(t, []string{"uuid", "parent_uuid", "id"}, books[0])
	assert.Equal(t, "1", books[1][2])
	assert.Equal(t, "2", books[2][2])

	lib := set.Of("Library")[0]
	for _, row := range books[1:] {
		assert.Equal(t, lib.ID, row[1], "book rows carry the parent identifier")
	}

	libraries := readCSV(t, filepath.Join(dir, "Library.csv"))
	require.Len(t, libraries, 2)
	assert.Equal(t, []string{"uuid", "parent_uuid"}, libraries[0])
	assert.Equal(t, lib.ID, libraries[1][0])
	assert.Empty(t, libraries[1][1])
}

func TestCSVRowOrderIsCreationOrder(t *testing.T) {
	model, set := generate(t, `<library><shelf><book id="1"/></shelf><shelf><book id="2"/><book id="3"/></shelf></library>`)
	dir := t.TempDir()

	require.NoError(t, CSV(dir, model, set))

	rows := readCSV(t, filepath.Join(dir, "Book.csv"))
	require.Len(t, rows, 4)
	var ids []string
	for _, row := range rows[1:] {
		ids = append(ids, row[2])
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestCSVMissingScalarEmpty(t *testing.T) {
	model, set := generate(t, `<root><p a="1" b="2"/><p a="3"/></root>`)
	dir := t.TempDir()

	require.NoError(t, CSV(dir, model, set))

	rows := readCSV(t, filepath.Join(dir, "P.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"uuid", "parent_uuid", "a", "b"}, rows[0])
	assert.Equal(t, "2", rows[1][3])
	assert.Empty(t, rows[2][3])
}

func TestCSVBadDirectory(t *testing.T) {
	model, set := generate(t, `<a><b/></a>`)

	err := CSV(filepath.Join(t.TempDir(), "missing"), model, set)
	require.Error(t, err)
	// Both tables fail independently and both failures are reported.
	assert.Contains(t, err.Error(), "table A")
	assert.Contains(t, err.Error(), "table B")
}

func TestSQLiteExport(t *testing.T) {
	model, set := generate(t, `<library><book id="1"/><book id="2"/></library>`)
	path := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, SQLite(path, model, set))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var books int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "Book"`).Scan(&books))
	assert.Equal(t, 2, books)

	var id string
	require.NoError(t, db.QueryRow(`SELECT "id" FROM "Book" WHERE "parent_uuid" = ? ORDER BY rowid LIMIT 1`, set.RootID).Scan(&id))
	assert.Equal(t, "1", id)

	var links int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM links WHERE parent_uuid = ? AND field = 'book'`, set.RootID).Scan(&links))
	assert.Equal(t, 2, links)
}

func TestCSVIdentityNamedAttributes(t *testing.T) {
	// Attributes named after the identity columns must not produce an
	// ambiguous header.
	model, set := generate(t, `<item uuid="x" parent_uuid="y"/>`)
	dir := t.TempDir()

	require.NoError(t, CSV(dir, model, set))

	rows := readCSV(t, filepath.Join(dir, "Item.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"uuid", "parent_uuid", "uuid_", "parent_uuid_"}, rows[0])
	assert.Equal(t, "x", rows[1][2])
	assert.Equal(t, "y", rows[1][3])
	assert.NotEqual(t, "x", rows[1][0], "identity column keeps the instance id")
}

func TestSQLiteIdentityNamedAttributes(t *testing.T) {
	model, set := generate(t, `<item uuid="x" parent_uuid="y"/>`)
	path := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, SQLite(path, model, set))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var uuid, attr string
	require.NoError(t, db.QueryRow(`SELECT "uuid", "uuid_" FROM "Item"`).Scan(&uuid, &attr))
	assert.Equal(t, "x", attr)
	assert.NotEqual(t, "x", uuid)
}

func TestSQLiteKeywordColumn(t *testing.T) {
	// SQL keyword attribute names survive because columns are quoted.
	model, set := generate(t, `<item order="first" select="yes"/>`)
	path := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, SQLite(path, model, set))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var order string
	require.NoError(t, db.QueryRow(`SELECT "order" FROM "Item"`).Scan(&order))
	assert.Equal(t, "first", order)
}
