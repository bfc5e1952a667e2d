// Package gen emits the generated Go program: one source file per
// class, a shared base file, and an aggregating main that rebuilds the
// instance graph and exports every class table to CSV.
package gen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/modyf01/xml2go/internal/instance"
	"github.com/modyf01/xml2go/internal/schema"
)

const header = "// Code generated by xml2go. DO NOT EDIT.\n\n"

// goFields carries the per-class mapping from model field names to the
// names actually used in the generated struct. They differ only when a
// model field collides with the identity fields every struct carries.
type goFields map[string]string

// Emit writes the generated program into dir. Files are independent
// artifacts: a failed file is reported but does not stop the others.
func Emit(dir string, model *schema.Model, set *instance.Set) error {
	fields := make(map[string]goFields, model.Len())
	for _, spec := range model.Classes() {
		fields[spec.Name] = fieldNames(spec)
	}

	var errs []error
	write := func(name, src string) {
		if err := writeSource(filepath.Join(dir, name), src); err != nil {
			errs = append(errs, fmt.Errorf("emit %s: %w", name, err))
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module genmodel\n\ngo 1.25\n"), 0644); err != nil {
		errs = append(errs, fmt.Errorf("emit go.mod: %w", err))
	}
	write("base_model.go", baseSource)

	for _, spec := range model.Classes() {
		src, err := classSource(spec, fields[spec.Name])
		if err != nil {
			errs = append(errs, fmt.Errorf("render class %s: %w", spec.Name, err))
			continue
		}
		write(classFileName(spec.Name), src)
	}

	write("generated_main.go", mainSource(model, set, fields))

	return errors.Join(errs...)
}

// fieldNames assigns a generated struct field name to every model
// field, stepping around the identity fields.
func fieldNames(spec *schema.ClassSpec) goFields {
	reserved := map[string]bool{"uuid": true, "parentUUID": true}
	used := make(map[string]bool)

	out := make(goFields)
	assign := func(name string) {
		goName := name
		for reserved[goName] || used[goName] {
			goName += "_"
		}
		used[goName] = true
		out[name] = goName
	}
	for _, s := range spec.Scalars {
		assign(s.Name)
	}
	for _, r := range spec.Relations {
		assign(r.Name)
	}
	return out
}

func classFileName(class string) string {
	name := strings.ToLower(class)
	if name == "base_model" || name == "generated_main" {
		name += "_class"
	}
	return name + ".go"
}

// varPrefix is the lower-cased class name used for generated variables.
func varPrefix(class string) string {
	return strings.ToLower(class)
}

// writeSource formats src with goimports and writes it to path.
func writeSource(path, src string) error {
	formatted, err := imports.Process(path, []byte(src), nil)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

const baseSource = header + `package main

import (
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"os"
)

// newID returns a process-unique identifier for one instance.
func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	return w.WriteAll(rows)
}
`

var classTmpl = template.Must(template.New("class").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(header + `package main

import "path/filepath"

// {{.Name}} mirrors <{{.Tag}}> elements.
type {{.Name}} struct {
	uuid       string
	parentUUID string
{{- range .Fields}}
	{{.GoName}} {{.Type}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
}

var {{.Var}}Instances []*{{.Name}}

func new{{.Name}}(parentUUID string) *{{.Name}} {
	v := &{{.Name}}{uuid: newID(), parentUUID: parentUUID}
	{{.Var}}Instances = append({{.Var}}Instances, v)
	return v
}

func write{{.Name}}CSV(dir string) error {
	rows := make([][]string, 0, len({{.Var}}Instances)+1)
	rows = append(rows, []string{ {{join .Headers ", "}} })
	for _, v := range {{.Var}}Instances {
		rows = append(rows, []string{ {{join .Cells ", "}} })
	}
	return writeCSV(filepath.Join(dir, "{{.Name}}.csv"), rows)
}
`))

type classField struct {
	GoName  string
	Type    string
	Comment string
}

func classSource(spec *schema.ClassSpec, names goFields) (string, error) {
	data := struct {
		Name    string
		Tag     string
		Var     string
		Fields  []classField
		Headers []string
		Cells   []string
	}{
		Name:    spec.Name,
		Tag:     spec.Tag,
		Var:     varPrefix(spec.Name),
		Headers: []string{`"uuid"`, `"parent_uuid"`},
		Cells:   []string{"v.uuid", "v.parentUUID"},
	}

	// Header names step aside from the identity columns the same way
	// the struct fields do.
	usedCols := map[string]bool{"uuid": true, "parent_uuid": true}
	for _, s := range spec.Scalars {
		col := s.Name
		for usedCols[col] {
			col += "_"
		}
		usedCols[col] = true
		data.Fields = append(data.Fields, classField{GoName: names[s.Name], Type: "string"})
		data.Headers = append(data.Headers, strconv.Quote(col))
		data.Cells = append(data.Cells, "v."+names[s.Name])
	}
	for _, r := range spec.Relations {
		f := classField{GoName: names[r.Name], Type: "string", Comment: "uuid of the " + r.Target + " child"}
		if r.Card == schema.Repeated {
			f.Type = "[]string"
			f.Comment = "uuids of the " + r.Target + " children"
		}
		data.Fields = append(data.Fields, f)
	}

	var b strings.Builder
	if err := classTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// mainSource renders the aggregating unit: package-level instance
// declarations in document order, field and link assignments, and the
// per-class CSV export calls.
func mainSource(model *schema.Model, set *instance.Set, fields map[string]goFields) string {
	vars := varNames(set)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("package main\n\nimport (\n\t\"log\"\n\t\"os\"\n)\n\n")

	b.WriteString("// Instances, in document order.\nvar (\n")
	for _, inst := range set.All() {
		parent := `""`
		if inst.ParentID != "" {
			parent = vars[inst.ParentID] + ".uuid"
		}
		fmt.Fprintf(&b, "\t%s = new%s(%s)\n", vars[inst.ID], inst.Class, parent)
	}
	b.WriteString(")\n\n")

	b.WriteString("func main() {\n\tout := \".\"\n\tif len(os.Args) > 1 {\n\t\tout = os.Args[1]\n\t}\n\n")

	b.WriteString("\t// Field values.\n")
	for _, inst := range set.All() {
		spec := model.Class(inst.Class)
		names := fields[inst.Class]
		for _, s := range spec.Scalars {
			if v, ok := inst.Scalars[s.Name]; ok {
				fmt.Fprintf(&b, "\t%s.%s = %s\n", vars[inst.ID], names[s.Name], strconv.Quote(v))
			}
		}
	}

	b.WriteString("\n\t// Links, in document order.\n")
	for _, inst := range set.All() {
		spec := model.Class(inst.Class)
		names := fields[inst.Class]
		for _, r := range spec.Relations {
			for _, childID := range inst.Relations[r.Name] {
				v, f := vars[inst.ID], names[r.Name]
				if r.Card == schema.Repeated {
					fmt.Fprintf(&b, "\t%s.%s = append(%s.%s, %s.uuid)\n", v, f, v, f, vars[childID])
				} else {
					fmt.Fprintf(&b, "\t%s.%s = %s.uuid\n", v, f, vars[childID])
				}
			}
		}
	}

	b.WriteString("\n\t// Save all instances to CSV.\n")
	for _, spec := range model.Classes() {
		fmt.Fprintf(&b, "\tif err := write%sCSV(out); err != nil {\n\t\tlog.Fatal(err)\n\t}\n", spec.Name)
	}
	b.WriteString("}\n")
	return b.String()
}

// varNames gives every instance a variable name derived from its class
// and identifier, extending the identifier slice on the rare prefix
// collision.
func varNames(set *instance.Set) map[string]string {
	used := make(map[string]bool)
	out := make(map[string]string, set.Len())
	for _, inst := range set.All() {
		id := strings.ReplaceAll(inst.ID, "-", "")
		n := 8
		name := varPrefix(inst.Class) + "_" + id[:n]
		for used[name] && n < len(id) {
			n += 4
			if n > len(id) {
				n = len(id)
			}
			name = varPrefix(inst.Class) + "_" + id[:n]
		}
		used[name] = true
		out[inst.ID] = name
	}
	return out
}
