package schema

import "fmt"

// ScalarField is a text-valued field sourced from an attribute or from
// element character data. Attributes appear at most once per element,
// so scalar cardinality is always Single.
type ScalarField struct {
	Name string
	Raw  string
	Card Cardinality
}

// RelationField links a class to the class of one child tag.
type RelationField struct {
	Name   string
	Target string
	Card   Cardinality
}

// ClassSpec is the frozen schema of one distinct tag.
type ClassSpec struct {
	Name      string
	Tag       string
	Scalars   []ScalarField
	Relations []RelationField

	scalarByRaw map[string]string          // raw attribute name -> field name
	relByTag    map[string]*RelationField  // raw child tag -> relation
	textField   string
}

// ScalarForRaw resolves a raw attribute name to its field name.
func (c *ClassSpec) ScalarForRaw(raw string) (string, bool) {
	name, ok := c.scalarByRaw[raw]
	return name, ok
}

// RelationForTag resolves a raw child tag to its relation field.
func (c *ClassSpec) RelationForTag(tag string) (*RelationField, bool) {
	r, ok := c.relByTag[tag]
	return r, ok
}

// TextField returns the field name holding element text, or "" when no
// element of this class ever carried text.
func (c *ClassSpec) TextField() string {
	return c.textField
}

// Model is the finalized class model: one ClassSpec per distinct tag,
// in first-seen order.
type Model struct {
	classes map[string]*ClassSpec
	byTag   map[string]string
	order   []string
}

// Classes returns every ClassSpec in first-seen order.
func (m *Model) Classes() []*ClassSpec {
	out := make([]*ClassSpec, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.classes[name])
	}
	return out
}

// Class returns the ClassSpec for a class name.
func (m *Model) Class(name string) *ClassSpec {
	return m.classes[name]
}

// ClassForTag returns the ClassSpec owning a raw tag.
func (m *Model) ClassForTag(tag string) *ClassSpec {
	return m.classes[m.byTag[tag]]
}

// Len returns the number of classes in the model.
func (m *Model) Len() int {
	return len(m.order)
}

// Build converts accumulated profiles into a finalized Model. It is a
// pure transformation of the profiles; the document is not touched.
// Violated invariants here are analyzer bugs, not user input problems,
// and fail the run outright.
func Build(profiles []*Profile) (*Model, error) {
	m := &Model{
		classes: make(map[string]*ClassSpec),
		byTag:   make(map[string]string),
	}

	for _, p := range profiles {
		spec := &ClassSpec{
			Name:        p.Class,
			Tag:         p.Tag,
			scalarByRaw: make(map[string]string),
			relByTag:    make(map[string]*RelationField),
		}
		for _, st := range p.scalars {
			spec.Scalars = append(spec.Scalars, ScalarField{Name: st.name, Raw: st.raw, Card: Single})
			spec.scalarByRaw[st.raw] = st.name
			if st.raw == TextRaw {
				spec.textField = st.name
			}
		}
		for _, st := range p.relations {
			if st.conflict {
				return nil, fmt.Errorf("model inconsistency: field %s of class %s maps to more than one class", st.name, p.Class)
			}
			card := Single
			if st.maxPerParent > 1 {
				card = Repeated
			}
			spec.Relations = append(spec.Relations, RelationField{Name: st.name, Target: st.target, Card: card})
		}
		// Relations is fully grown here, so the pointers stay valid.
		for i, st := range p.relations {
			for _, tag := range st.rawTags {
				spec.relByTag[tag] = &spec.Relations[i]
			}
		}
		m.classes[p.Class] = spec
		m.byTag[p.Tag] = p.Class
		m.order = append(m.order, p.Class)
	}

	// Consistency checks over the finished mapping.
	for _, spec := range m.Classes() {
		for _, rel := range spec.Relations {
			if _, ok := m.classes[rel.Target]; !ok {
				return nil, fmt.Errorf("model inconsistency: class %s relates to unprofiled class %s", spec.Name, rel.Target)
			}
			if spec.hasScalar(rel.Name) {
				return nil, fmt.Errorf("model inconsistency: field %s of class %s is both scalar and relation", rel.Name, spec.Name)
			}
		}
	}
	return m, nil
}

func (c *ClassSpec) hasScalar(name string) bool {
	for _, s := range c.Scalars {
		if s.Name == name {
			return true
		}
	}
	return false
}
