// Package instance materializes the object graph: one Instance per
// document element, linked to its children through the class model's
// relation fields.
package instance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/modyf01/xml2go/internal/schema"
	"github.com/modyf01/xml2go/internal/xmltree"
)

// Instance is one generated object. It is only ever mutated to append
// identifiers of newly created children.
type Instance struct {
	ID       string
	Class    string
	ParentID string // "" for the root

	Scalars   map[string]string
	Relations map[string][]string // field name -> child IDs in document order
}

// Set is the arena holding every Instance of a run in creation order,
// overall and per class. Creation order is document traversal order,
// which downstream table export relies on for row order.
type Set struct {
	RootID string

	all     []*Instance
	byClass map[string][]*Instance
	order   []string
}

// Len returns the total number of instances.
func (s *Set) Len() int { return len(s.all) }

// All returns every instance in creation order.
func (s *Set) All() []*Instance { return s.all }

// Classes returns class names in first-created order.
func (s *Set) Classes() []string { return s.order }

// Of returns the instances of one class in first-created order.
func (s *Set) Of(class string) []*Instance { return s.byClass[class] }

func (s *Set) add(inst *Instance) {
	if _, ok := s.byClass[inst.Class]; !ok {
		s.order = append(s.order, inst.Class)
	}
	s.all = append(s.all, inst)
	s.byClass[inst.Class] = append(s.byClass[inst.Class], inst)
}

// Generate walks the tree in document order and instantiates one object
// per element under the frozen class model. Every instance belongs to
// exactly one class and at most one parent; the result mirrors the
// source tree and the total count equals the element count.
func Generate(root *xmltree.Node, model *schema.Model) (*Set, error) {
	set := &Set{byClass: make(map[string][]*Instance)}
	rootInst, err := generate(root, "", model, set)
	if err != nil {
		return nil, err
	}
	set.RootID = rootInst.ID
	return set, nil
}

func generate(n *xmltree.Node, parentID string, model *schema.Model, set *Set) (*Instance, error) {
	spec := model.ClassForTag(n.Tag)
	if spec == nil {
		return nil, fmt.Errorf("model inconsistency: no class for tag %s", n.Tag)
	}

	inst := &Instance{
		ID:        uuid.New().String(),
		Class:     spec.Name,
		ParentID:  parentID,
		Scalars:   make(map[string]string),
		Relations: make(map[string][]string),
	}

	for _, attr := range n.Attrs {
		field, ok := spec.ScalarForRaw(attr.Name)
		if !ok {
			return nil, fmt.Errorf("model inconsistency: attribute %s of %s was never profiled", attr.Name, spec.Name)
		}
		inst.Scalars[field] = attr.Value
	}
	if n.Text != "" && spec.TextField() != "" {
		if _, taken := inst.Scalars[spec.TextField()]; !taken {
			inst.Scalars[spec.TextField()] = n.Text
		}
	}

	set.add(inst)

	for _, c := range n.Children {
		child, err := generate(c, inst.ID, model, set)
		if err != nil {
			return nil, err
		}
		rel, ok := spec.RelationForTag(c.Tag)
		if !ok {
			return nil, fmt.Errorf("model inconsistency: child tag %s of %s was never profiled", c.Tag, spec.Name)
		}
		inst.Relations[rel.Name] = append(inst.Relations[rel.Name], child.ID)
	}
	return inst, nil
}
