// Package pipeline runs the two-pass generation: profile the whole
// document, freeze the class model, then generate instances and fan out
// to the artifact writers.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/modyf01/xml2go/internal/export"
	"github.com/modyf01/xml2go/internal/gen"
	"github.com/modyf01/xml2go/internal/graph"
	"github.com/modyf01/xml2go/internal/instance"
	"github.com/modyf01/xml2go/internal/schema"
	"github.com/modyf01/xml2go/internal/xmltree"
)

// Options configures one run.
type Options struct {
	Input     string
	OutDir    string
	SkipGraph bool
	DBPath    string // empty disables the SQLite export
}

// Summary reports what a completed run produced.
type Summary struct {
	Classes   int
	Instances int
	OutDir    string
}

// Run executes the pipeline. Input and model errors abort before any
// artifact is written; artifact writers then run independently and
// their failures are collected rather than aborting the rest.
func Run(opts Options, log *zap.Logger) (*Summary, error) {
	root, err := xmltree.ParseFile(opts.Input)
	if err != nil {
		return nil, err
	}
	elements := xmltree.Count(root)
	log.Info("document parsed", zap.String("input", opts.Input), zap.Int("elements", elements))

	// Pass 1: the profile must see the whole document before any class
	// is finalized, because cardinality depends on the global maximum.
	analyzer := schema.NewAnalyzer()
	analyzer.Scan(root)
	model, err := schema.Build(analyzer.Profiles())
	if err != nil {
		return nil, err
	}
	log.Info("class model built", zap.Int("classes", model.Len()))

	// Pass 2: strictly document-ordered instance generation.
	set, err := instance.Generate(root, model)
	if err != nil {
		return nil, err
	}
	if set.Len() != elements {
		return nil, fmt.Errorf("model inconsistency: %d instances for %d elements", set.Len(), elements)
	}
	log.Info("instances generated", zap.Int("instances", set.Len()))

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var errs []error
	report := func(artifact string, err error) {
		if err != nil {
			log.Error("artifact failed", zap.String("artifact", artifact), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", artifact, err))
			return
		}
		log.Info("artifact written", zap.String("artifact", artifact))
	}

	report("generated code", gen.Emit(opts.OutDir, model, set))
	report("csv tables", export.CSV(opts.OutDir, model, set))
	if !opts.SkipGraph {
		_, err := graph.WriteFile(opts.OutDir, model)
		report("dependency graph", err)
	}
	if opts.DBPath != "" {
		report("sqlite database", export.SQLite(opts.DBPath, model, set))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Summary{Classes: model.Len(), Instances: set.Len(), OutDir: opts.OutDir}, nil
}
