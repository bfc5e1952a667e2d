package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modyf01/xml2go/internal/pipeline"
	"github.com/modyf01/xml2go/internal/schema"
	"github.com/modyf01/xml2go/internal/xmltree"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "xml2go",
		Short: "Generate Go classes, CSV tables and a dependency graph from an XML document",
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func generateCmd() *cobra.Command {
	var out string
	var noGraph bool
	var dbPath string

	cmd := &cobra.Command{
		Use:   "generate [input.xml]",
		Short: "Generate all artifacts from an XML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			summary, err := pipeline.Run(pipeline.Options{
				Input:     args[0],
				OutDir:    out,
				SkipGraph: noGraph,
				DBPath:    dbPath,
			}, log)
			if err != nil {
				return err
			}

			fmt.Printf("Generated %d classes and %d instances\n", summary.Classes, summary.Instances)
			fmt.Printf("Artifacts written to %s\n", summary.OutDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "generated_code", "output directory")
	cmd.Flags().BoolVar(&noGraph, "no-graph", false, "skip the dependency graph artifact")
	cmd.Flags().StringVar(&dbPath, "db", "", "also export instance tables to a SQLite database at this path")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [input.xml]",
		Short: "Print the inferred class model without generating artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := xmltree.ParseFile(args[0])
			if err != nil {
				return err
			}

			analyzer := schema.NewAnalyzer()
			analyzer.Scan(root)
			model, err := schema.Build(analyzer.Profiles())
			if err != nil {
				return err
			}

			for _, spec := range model.Classes() {
				fmt.Printf("%s (<%s>)\n", spec.Name, spec.Tag)
				for _, s := range spec.Scalars {
					fmt.Printf("  %-20s %-8s scalar\n", s.Name, s.Card)
				}
				for _, r := range spec.Relations {
					fmt.Printf("  %-20s %-8s -> %s\n", r.Name, r.Card, r.Target)
				}
			}
			return nil
		},
	}
}
