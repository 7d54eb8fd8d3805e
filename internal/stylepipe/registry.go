package isp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Transformer is a configured stage, ready to run.
type Transformer interface {
	Name() string
	Transform(ctx context.Context, doc Document) (Document, error)
}

// Maker builds a Transformer from a stage's options.
type Maker func(opts Options) (Transformer, error)

// Registry maps stage names to makers. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	makers map[string]Maker
}

func NewRegistry() *Registry {
	return &Registry{makers: make(map[string]Maker)}
}

// Register adds a maker under name, replacing any existing one.
func (r *Registry) Register(name string, maker Maker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.makers[name] = maker
}

// Make builds the stage called name. Option errors are tagged with the
// stage name.
func (r *Registry) Make(name string, opts Options) (Transformer, error) {
	r.mu.RLock()
	maker, ok := r.makers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	t, err := maker(opts.clone())
	if err != nil {
		var optErr *OptionError
		if errors.As(err, &optErr) && optErr.Stage == "" {
			optErr.Stage = name
		}
		return nil, err
	}
	return t, nil
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.makers))
	for n := range r.makers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for n, m := range r.makers {
		c.makers[n] = m
	}
	return c
}

var defaultRegistry = NewRegistry()

// DefaultRegistry holds the built-in import, future-syntax and minify stages.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a maker to the default registry.
func Register(name string, maker Maker) {
	defaultRegistry.Register(name, maker)
}

type transformerFunc struct {
	name string
	fn   func(context.Context, Document) (Document, error)
}

func (t *transformerFunc) Name() string { return t.name }

func (t *transformerFunc) Transform(ctx context.Context, doc Document) (Document, error) {
	return t.fn(ctx, doc)
}

// TransformerFunc adapts a plain function into a named Transformer.
func TransformerFunc(name string, fn func(context.Context, Document) (Document, error)) Transformer {
	return &transformerFunc{name: name, fn: fn}
}
