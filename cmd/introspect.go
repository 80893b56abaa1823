package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurou927/dbml-render/internal/db"
	"github.com/hurou927/dbml-render/internal/output"
	"github.com/hurou927/dbml-render/internal/resolve"
	"github.com/hurou927/dbml-render/internal/schema"
)

var (
	introspectFormat string
	introspectOutput string
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Render the schema of a live PostgreSQL database",
	Long: `Connects with the configured connection, reads tables, columns, primary keys,
foreign keys and enum types from the catalogs of the configured schemas, and
renders them like a DBML file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat(introspectFormat)
		if err != nil {
			return err
		}
		if err := cfg.ValidateForIntrospect(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx := cmd.Context()
		pool, err := db.Open(ctx, &cfg.Connection, logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		entities, err := schema.Introspect(ctx, pool, cfg.Schemas, cfg.ExcludeSet())
		if err != nil {
			return fmt.Errorf("introspecting schema: %w", err)
		}
		s, err := resolve.Resolve(entities)
		if err != nil {
			return err
		}
		logger.Debug("introspected", zap.Strings("schemas", cfg.Schemas), zap.String("summary", s.Summary()))

		data, err := newRenderer().Render(ctx, s, format)
		if err != nil {
			return err
		}
		return output.WriteTo(cmd.OutOrStdout(), introspectOutput, data)
	},
}

func init() {
	introspectCmd.Flags().StringVarP(&introspectFormat, "format", "f", "", "output format (default from config, svg)")
	introspectCmd.Flags().StringVarP(&introspectOutput, "output", "o", "-", `output file, "-" for stdout`)
	rootCmd.AddCommand(introspectCmd)
}
