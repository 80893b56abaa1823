package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/dbml-render/internal/diagram"
	"github.com/hurou927/dbml-render/internal/graph"
	"github.com/hurou927/dbml-render/internal/output"
	"github.com/hurou927/dbml-render/internal/parser"
	"github.com/hurou927/dbml-render/internal/resolve"
)

// ErrNoEngine is returned when a format needs a layout engine and none is set.
var ErrNoEngine = errors.New("no layout engine configured")

// Renderer runs the parse, resolve, compile and layout pipeline.
type Renderer struct {
	Engine  Engine
	Options diagram.Options
	Logger  *zap.Logger
	// Workers bounds RenderFiles concurrency, runtime.NumCPU when zero.
	Workers int
}

// Render produces s in format. The DOT text is returned unchanged for
// FormatDot and handed to the engine for image formats.
func (r *Renderer) Render(ctx context.Context, s *resolve.Schema, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatMermaid:
		if err := graph.WriteMermaid(&buf, graph.Build(s)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatText:
		if err := graph.WriteText(&buf, graph.Build(s)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	dot, err := diagram.Compile(s, r.Options)
	if err != nil {
		return nil, fmt.Errorf("compiling diagram: %w", err)
	}
	if format == FormatDot {
		return []byte(dot), nil
	}
	if !format.NeedsEngine() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if r.Engine == nil {
		return nil, ErrNoEngine
	}
	return r.Engine.Layout(ctx, dot, format)
}

// RenderSource parses and resolves src, then renders it. name is used in
// parse error positions.
func (r *Renderer) RenderSource(ctx context.Context, name, src string, format Format) ([]byte, error) {
	s, err := Load(name, src)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, s, format)
}

// Load parses and resolves src.
func Load(name, src string) (*resolve.Schema, error) {
	entities, err := parser.ParseNamed(name, src)
	if err != nil {
		return nil, err
	}
	return resolve.Resolve(entities)
}

// Job is one file of a batch render.
type Job struct {
	Input  string
	Output string
	Format Format
}

// RenderFiles renders every job concurrently. The first failure cancels
// jobs that have not started.
func (r *Renderer) RenderFiles(ctx context.Context, jobs []Job) error {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, job := range jobs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return r.renderFile(ctx, job)
			}
		})
	}

	return eg.Wait()
}

func (r *Renderer) renderFile(ctx context.Context, job Job) error {
	start := time.Now()
	src, err := os.ReadFile(job.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", job.Input, err)
	}

	data, err := r.RenderSource(ctx, job.Input, string(src), job.Format)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Input, err)
	}
	if err := output.WriteFile(job.Output, data); err != nil {
		return err
	}

	r.logger().Info("rendered",
		zap.String("input", job.Input),
		zap.String("output", job.Output),
		zap.String("format", string(job.Format)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (r *Renderer) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
