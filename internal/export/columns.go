package export

import "github.com/modyf01/xml2go/internal/schema"

// columnNames maps scalar field names to table column names, stepping
// around the identity columns every table carries. A scalar that
// sanitized to "uuid" or "parent_uuid" is suffixed until free, the same
// way the generated structs dodge their identity fields.
func columnNames(spec *schema.ClassSpec) map[string]string {
	reserved := map[string]bool{"uuid": true, "parent_uuid": true}
	used := make(map[string]bool)

	out := make(map[string]string, len(spec.Scalars))
	for _, s := range spec.Scalars {
		col := s.Name
		for reserved[col] || used[col] {
			col += "_"
		}
		used[col] = true
		out[s.Name] = col
	}
	return out
}
