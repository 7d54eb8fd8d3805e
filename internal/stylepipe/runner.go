package isp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stages that report library warnings log through the runner's logger.
type loggerSetter interface {
	setLogger(Logger)
}

type RunnerOptions struct {
	// Defaults to DefaultRegistry().
	Registry *Registry

	// Defaults to the package logger.
	Logger Logger

	// Allows descriptors whose stages are not import, future-syntax, minify.
	AllowCustomOrder bool
}

// Runner executes a Descriptor's stages in order against one document at a
// time. Transformers are built once, up front, so a Runner may be shared by
// concurrent Run calls.
type Runner struct {
	descriptor   *Descriptor
	transformers []Transformer
	logger       Logger
}

// NewRunner validates the stage order and builds every stage.
func NewRunner(d *Descriptor, opts *RunnerOptions) (*Runner, error) {
	if d == nil || d.Len() == 0 {
		return nil, ErrEmptyDescriptor
	}
	if opts == nil {
		opts = &RunnerOptions{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = Log
	}

	if !opts.AllowCustomOrder {
		if err := d.ValidateOrder(); err != nil {
			return nil, err
		}
	}

	r := &Runner{descriptor: d, logger: logger}
	for i, stage := range d.stages {
		t, err := registry.Make(stage.Name, stage.Options)
		if err != nil {
			return nil, fmt.Errorf("error building stage %d: %w", i, err)
		}
		if ls, ok := t.(loggerSetter); ok {
			ls.setLogger(logger)
		}
		r.transformers = append(r.transformers, t)
	}
	return r, nil
}

func (r *Runner) Descriptor() *Descriptor { return r.descriptor }

// Run feeds doc through every stage. Each stage's output is the next
// stage's input. The first failure stops the run and is returned as a
// *StageError.
func (r *Runner) Run(ctx context.Context, doc Document) (Document, error) {
	runID := uuid.NewString()
	runStart := time.Now()
	out := doc

	for i, t := range r.transformers {
		if err := ctx.Err(); err != nil {
			return Document{}, &StageError{Index: i, Stage: t.Name(), Err: err}
		}
		start := time.Now()
		inSize := len(out.Contents)
		next, err := t.Transform(ctx, out)
		if err != nil {
			r.logger.Debugf("run %s: stage %d (%s) failed after %v", runID, i, t.Name(), time.Since(start))
			return Document{}, &StageError{Index: i, Stage: t.Name(), Err: err}
		}
		r.logger.Debugf(
			"run %s: stage %d (%s) %s: %d -> %d bytes in %v",
			runID, i, t.Name(), out.sourcefile(), inSize, len(next.Contents), time.Since(start),
		)
		out = next
	}

	r.logger.Debugf("run %s: %s done in %v", runID, doc.sourcefile(), time.Since(runStart))
	return out, nil
}

// RunFile reads path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string) (Document, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	return r.Run(ctx, doc)
}
