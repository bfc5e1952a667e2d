package export

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modyf01/xml2go/internal/instance"
	"github.com/modyf01/xml2go/internal/schema"
)

//go:embed schema.sql
var baseSchema string

// DB wraps the SQLite database holding the exported instance tables.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) the database at path and initializes the
// base schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(baseSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Save creates one table per class and inserts every instance, plus one
// links row per parent/child relation in document order.
func (d *DB) Save(model *schema.Model, set *instance.Set) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, class := range set.Classes() {
		spec := model.Class(class)
		if spec == nil {
			return fmt.Errorf("class %s missing from model", class)
		}
		if err := saveClass(tx, spec, set.Of(class)); err != nil {
			return fmt.Errorf("save class %s: %w", class, err)
		}
	}
	if err := saveLinks(tx, model, set); err != nil {
		return fmt.Errorf("save links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func saveClass(tx *sql.Tx, spec *schema.ClassSpec, rows []*instance.Instance) error {
	// Field names are sanitized identifiers, but identifiers can still
	// be SQL keywords, so every column is quoted. Scalars named after
	// the identity columns are stepped aside by columnNames.
	names := columnNames(spec)
	cols := []string{`"uuid"`, `"parent_uuid"`}
	for _, s := range spec.Scalars {
		cols = append(cols, `"`+names[s.Name]+`"`)
	}

	create := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (%s)`,
		spec.Name,
		strings.Join(append([]string{`"uuid" TEXT PRIMARY KEY`, `"parent_uuid" TEXT`}, textColumns(spec, names)...), ", "),
	)
	if _, err := tx.Exec(create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO %q (%s) VALUES (%s)`,
		spec.Name,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range rows {
		args := []any{inst.ID, inst.ParentID}
		for _, s := range spec.Scalars {
			args = append(args, inst.Scalars[s.Name])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return nil
}

func textColumns(spec *schema.ClassSpec, names map[string]string) []string {
	var cols []string
	for _, s := range spec.Scalars {
		cols = append(cols, fmt.Sprintf("%q TEXT", names[s.Name]))
	}
	return cols
}

func saveLinks(tx *sql.Tx, model *schema.Model, set *instance.Set) error {
	stmt, err := tx.Prepare(`INSERT INTO links (parent_uuid, child_uuid, field, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range set.All() {
		spec := model.Class(inst.Class)
		for _, rel := range spec.Relations {
			for i, childID := range inst.Relations[rel.Name] {
				if _, err := stmt.Exec(inst.ID, childID, rel.Name, i); err != nil {
					return fmt.Errorf("insert link: %w", err)
				}
			}
		}
	}
	return nil
}

// SQLite writes the full instance set into a database file at path.
func SQLite(path string, model *schema.Model, set *instance.Set) error {
	d, err := OpenDB(path)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Save(model, set)
}
