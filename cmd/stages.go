package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/report"
)

var (
	stagesCatalog  string
	stagesValidate bool
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Print the stage catalog and its ambiguous local codes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := stagesCatalog
		if path == "" {
			path = cfg.Catalog.Path
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}
		if stagesValidate {
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s ok: %d codes, %d canonical stages, %d conflicts\n",
				cat.Version(), len(cat.Entries()), len(cat.CanonicalStages()), len(cat.Conflicts()))
			return nil
		}

		out := cmd.OutOrStdout()
		codes := report.Table{Header: []string{"code", "canonical stage", "outcome"}}
		for _, e := range cat.Entries() {
			codes.Rows = append(codes.Rows, []string{e.Code, e.Canonical, outcomeLabel(cat, e.Canonical)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "catalog %s\n", cat.Version())
		report.Render(out, codes)

		if conflicts := cat.Conflicts(); len(conflicts) > 0 {
			t := report.Table{Header: []string{"local code", "stages by pipeline"}}
			for _, c := range conflicts {
				parts := make([]string, 0, len(c.ByPrefix))
				for _, prefix := range sortedKeys(c.ByPrefix) {
					parts = append(parts, prefix+"="+c.ByPrefix[prefix])
				}
				t.Rows = append(t.Rows, []string{c.LocalCode, strings.Join(parts, ", ")})
			}
			report.Render(out, t)
		}
		return nil
	},
}

func outcomeLabel(cat *catalog.Catalog, canonical string) string {
	switch {
	case cat.IsSuccess(canonical):
		return "SUCCESS"
	case cat.IsFailure(canonical):
		return "FAILURE"
	}
	return "IN_PROGRESS"
}

func init() {
	stagesCmd.Flags().StringVar(&stagesCatalog, "catalog", "", "catalog YAML (default from config, else embedded)")
	stagesCmd.Flags().BoolVar(&stagesValidate, "validate", false, "only validate the catalog and print a summary")
	rootCmd.AddCommand(stagesCmd)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
