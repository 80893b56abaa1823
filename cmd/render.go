package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurou927/dbml-render/internal/output"
	"github.com/hurou927/dbml-render/internal/render"
)

var (
	renderFormat string
	renderOutput string
	renderOutDir string
	renderWatch  bool
)

var renderCmd = &cobra.Command{
	Use:   "render FILE...",
	Short: "Render DBML files to a diagram",
	Long: `Parses and resolves each DBML file and renders it in the requested format.
With a single input, --output selects the destination ("-" for stdout).
Otherwise each output is written next to its input, or into --out-dir.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat(renderFormat)
		if err != nil {
			return err
		}
		if renderOutput != "" && len(args) > 1 {
			return fmt.Errorf("--output needs exactly one input, got %d", len(args))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := newRenderer()
		jobs := renderJobs(args, format)

		run := func(jobs []render.Job) error {
			if renderOutput == "" {
				return r.RenderFiles(ctx, jobs)
			}
			return renderOne(ctx, cmd, r, jobs[0])
		}

		if err := run(jobs); err != nil {
			if !renderWatch {
				return err
			}
			logger.Error("render failed", zap.Error(err))
		}
		if !renderWatch {
			return nil
		}
		return watch(ctx, jobs, run)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "output format: dot, svg, png, pdf, json, mermaid or text (default from config, svg)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", `output file for a single input, "-" for stdout`)
	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", "", "directory for rendered files (default: config output_dir, or next to each input)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render when an input file changes")
	rootCmd.AddCommand(renderCmd)
}

func renderJobs(inputs []string, format render.Format) []render.Job {
	outDir := renderOutDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	jobs := make([]render.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = render.Job{
			Input:  in,
			Output: output.Destination(in, outDir, format.Ext()),
			Format: format,
		}
	}
	return jobs
}

func renderOne(ctx context.Context, cmd *cobra.Command, r *render.Renderer, job render.Job) error {
	src, err := os.ReadFile(job.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", job.Input, err)
	}
	data, err := r.RenderSource(ctx, job.Input, string(src), job.Format)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Input, err)
	}
	return output.WriteTo(cmd.OutOrStdout(), renderOutput, data)
}

// watch re-renders the job of every input that changes until ctx is done.
// Directories are watched so editors that replace files are handled.
func watch(ctx context.Context, jobs []render.Job, run func([]render.Job) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	byPath := make(map[string]render.Job, len(jobs))
	dirs := make(map[string]bool)
	for _, job := range jobs {
		abs, err := filepath.Abs(job.Input)
		if err != nil {
			return err
		}
		byPath[abs] = job
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	logger.Info("watching for changes", zap.Int("files", len(jobs)))

	const settle = 100 * time.Millisecond
	pending := make(map[string]render.Job)
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if job, ok := byPath[abs]; ok {
				pending[abs] = job
				timer.Reset(settle)
			}
		case <-timer.C:
			batch := make([]render.Job, 0, len(pending))
			for path, job := range pending {
				batch = append(batch, job)
				delete(pending, path)
			}
			if err := run(batch); err != nil {
				logger.Error("render failed", zap.Error(err))
				continue
			}
			logger.Info("re-rendered", zap.Int("files", len(batch)))
		}
	}
}
