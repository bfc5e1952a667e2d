// Package schema infers a class model from a document tree: one class
// per distinct tag, scalar fields from attributes and text, relation
// fields from child tags with document-globally inferred cardinality.
package schema

import (
	"slices"
	"strings"

	"github.com/modyf01/xml2go/internal/ident"
	"github.com/modyf01/xml2go/internal/xmltree"
)

// Cardinality says whether a field holds one value or an ordered
// sequence.
type Cardinality string

const (
	Single   Cardinality = "single"
	Repeated Cardinality = "repeated"
)

// TextRaw is the raw name under which element character data is
// profiled as an implicit scalar field.
const TextRaw = "text"

type scalarStat struct {
	name  string // sanitized field name
	raw   string // raw attribute name (or TextRaw)
	count int    // elements of this class carrying the field
}

type relationStat struct {
	name         string   // sanitized field name
	target       string   // child class name
	rawTags      []string // raw child tags observed for this field
	maxPerParent int      // document-global max children under one parent
	conflict     bool     // two targets claimed the same field name
}

// Profile is the per-class field and cardinality profile accumulated
// over the whole document. Counts only ever grow.
type Profile struct {
	Class string
	Tag   string // raw tag of the first element seen for this class

	scalars     []*scalarStat
	scalarIdx   map[string]*scalarStat
	relations   []*relationStat
	relationIdx map[string]*relationStat
}

// Analyzer performs the first pass: a single traversal per root that
// builds one Profile per distinct tag. Scan may be called on several
// roots; profiles accumulate across all of them.
type Analyzer struct {
	classes *ident.Sanitizer
	fields  *ident.Sanitizer

	profiles map[string]*Profile
	order    []string
}

// NewAnalyzer returns an Analyzer with fresh naming registries.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		classes:  ident.NewCapitalized(),
		fields:   ident.New(),
		profiles: make(map[string]*Profile),
	}
}

// Scan walks the tree rooted at n once, folding every element into the
// profile of its class.
func (a *Analyzer) Scan(n *xmltree.Node) {
	if n == nil {
		return
	}
	p := a.profile(n.Tag)

	for _, attr := range n.Attrs {
		p.bumpScalar(a.fields.Name(attr.Name), attr.Name)
	}
	if n.Text != "" {
		p.bumpScalar(a.fields.Name(TextRaw), TextRaw)
	}

	// Children of the same tag share one relation field; the widest
	// sibling group seen anywhere in the document decides cardinality.
	perTag := make(map[string]int)
	for _, c := range n.Children {
		perTag[c.Tag]++
	}
	seen := make(map[string]bool)
	for _, c := range n.Children {
		if seen[c.Tag] {
			continue
		}
		seen[c.Tag] = true
		field := a.fields.Name(strings.ToLower(c.Tag))
		target := a.classes.Name(c.Tag)
		p.bumpRelation(field, target, c.Tag, perTag[c.Tag])
	}

	for _, c := range n.Children {
		a.Scan(c)
	}
}

// Profiles returns the accumulated profiles in first-seen class order.
func (a *Analyzer) Profiles() []*Profile {
	out := make([]*Profile, 0, len(a.order))
	for _, class := range a.order {
		out = append(out, a.profiles[class])
	}
	return out
}

func (a *Analyzer) profile(tag string) *Profile {
	class := a.classes.Name(tag)
	p, ok := a.profiles[class]
	if !ok {
		p = &Profile{
			Class:       class,
			Tag:         tag,
			scalarIdx:   make(map[string]*scalarStat),
			relationIdx: make(map[string]*relationStat),
		}
		a.profiles[class] = p
		a.order = append(a.order, class)
	}
	return p
}

func (p *Profile) bumpScalar(name, raw string) {
	st, ok := p.scalarIdx[name]
	if !ok {
		st = &scalarStat{name: name, raw: raw}
		p.scalarIdx[name] = st
		p.scalars = append(p.scalars, st)
	}
	st.count++
}

func (p *Profile) bumpRelation(name, target, rawTag string, count int) {
	st, ok := p.relationIdx[name]
	if !ok {
		st = &relationStat{name: name, target: target}
		p.relationIdx[name] = st
		p.relations = append(p.relations, st)
	}
	if st.target != target {
		st.conflict = true
	}
	if !slices.Contains(st.rawTags, rawTag) {
		st.rawTags = append(st.rawTags, rawTag)
	}
	if count > st.maxPerParent {
		st.maxPerParent = count
	}
}
