package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engine lays out DOT source into a rendered format.
type Engine interface {
	Layout(ctx context.Context, dot string, format Format) ([]byte, error)
}

// EngineError reports a failed layout run. Stderr holds the engine's own
// diagnostics, unmodified.
type EngineError struct {
	Format Format
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("layout engine failed for %s: %v", e.Format, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

const (
	DefaultGraphvizPath = "dot"
	DefaultTimeout      = 30 * time.Second
)

// Graphviz runs the Graphviz command line tool with the dot layout.
type Graphviz struct {
	Path    string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewGraphviz returns a Graphviz engine with defaults for empty fields.
func NewGraphviz(path string, timeout time.Duration, logger *zap.Logger) *Graphviz {
	if path == "" {
		path = DefaultGraphvizPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graphviz{Path: path, Timeout: timeout, Logger: logger}
}

// Layout pipes dot through the executable and returns its stdout.
func (g *Graphviz) Layout(ctx context.Context, dot string, format Format) ([]byte, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	args := []string{"-Kdot", "-T" + string(format)}
	cmd := exec.CommandContext(ctx, g.Path, args...)
	cmd.Stdin = strings.NewReader(dot)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	g.logger().Debug("graphviz finished",
		zap.String("path", g.Path),
		zap.Strings("args", args),
		zap.Int("input_bytes", len(dot)),
		zap.Int("output_bytes", stdout.Len()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &EngineError{Format: format, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

func (g *Graphviz) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
