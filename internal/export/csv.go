// Package export writes per-class instance tables: one CSV file per
// class, and optionally the same tables into a SQLite database.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modyf01/xml2go/internal/instance"
	"github.com/modyf01/xml2go/internal/schema"
)

// CSV writes one <Class>.csv per class into dir: columns are the
// instance identifier, the parent identifier and the scalar fields in
// ClassSpec order; rows follow first-created order. Tables are
// independent artifacts, so a failed one does not stop the rest.
func CSV(dir string, model *schema.Model, set *instance.Set) error {
	var errs []error
	for _, class := range set.Classes() {
		spec := model.Class(class)
		if spec == nil {
			errs = append(errs, fmt.Errorf("table %s: class missing from model", class))
			continue
		}
		if err := writeTable(dir, spec, set.Of(class)); err != nil {
			errs = append(errs, fmt.Errorf("table %s: %w", class, err))
		}
	}
	return errors.Join(errs...)
}

func writeTable(dir string, spec *schema.ClassSpec, rows []*instance.Instance) error {
	f, err := os.Create(filepath.Join(dir, spec.Name+".csv"))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := columnNames(spec)
	head := []string{"uuid", "parent_uuid"}
	for _, s := range spec.Scalars {
		head = append(head, cols[s.Name])
	}
	if err := w.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, inst := range rows {
		rec := []string{inst.ID, inst.ParentID}
		for _, s := range spec.Scalars {
			rec = append(rec, inst.Scalars[s.Name])
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
