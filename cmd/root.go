package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hurou927/dbml-render/internal/config"
	"github.com/hurou927/dbml-render/internal/diagram"
	"github.com/hurou927/dbml-render/internal/render"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dbml-render",
	Short: "Render DBML schemas as entity-relationship diagrams",
	Long: `dbml-render checks DBML schema files for dangling references and
compiles them into Graphviz DOT, which is returned as-is or laid out by the
dot executable into SVG, PNG, PDF or JSON. Live PostgreSQL schemas can be
rendered the same way.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(verbose); err != nil {
			return err
		}
		if err := config.LoadEnv(".env"); err != nil {
			return err
		}
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("path", cfgPath), zap.String("format", cfg.Format))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}

// newRenderer builds a renderer from the loaded config.
func newRenderer() *render.Renderer {
	return &render.Renderer{
		Engine: render.NewGraphviz(cfg.Engine.Path, cfg.Engine.Timeout, logger),
		Options: diagram.Options{
			RankDir:     cfg.Theme.RankDir,
			HeaderColor: cfg.Theme.HeaderColor,
			FontName:    cfg.Theme.FontName,
		},
		Logger: logger,
	}
}

// resolveFormat returns the --format flag value, or the configured default.
func resolveFormat(flag string) (render.Format, error) {
	if flag == "" {
		flag = cfg.Format
	}
	return render.ParseFormat(flag)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
