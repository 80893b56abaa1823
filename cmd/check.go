package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/dbml-render/internal/graph"
	"github.com/hurou927/dbml-render/internal/render"
)

var checkNoCycles bool

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Validate DBML files without rendering",
	Long: `Parses and resolves each file, reporting the first dangling table or column
reference and any table claimed by more than one group.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			s, err := render.Load(path, string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if checkNoCycles {
				if err := graph.Build(s).TopoSortAll().Err(); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", path, s.Summary())
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkNoCycles, "no-cycles", false, "fail when relationships form a cycle")
	rootCmd.AddCommand(checkCmd)
}
