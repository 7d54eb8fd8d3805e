package isp

import (
	"fmt"
	"strings"
)

// Stage is one named, independently configured step of a pipeline.
type Stage struct {
	Name    string
	Options Options
}

// Descriptor is an ordered, immutable list of stages. It only declares
// order and options; a Runner executes it.
type Descriptor struct {
	stages []Stage
}

// NewDescriptor copies stages into a new Descriptor.
func NewDescriptor(stages ...Stage) (*Descriptor, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyDescriptor
	}
	d := &Descriptor{stages: make([]Stage, len(stages))}
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d: empty name", i)
		}
		d.stages[i] = Stage{Name: s.Name, Options: s.Options.clone()}
	}
	return d, nil
}

// DefaultDescriptor resolves bare imports against "node_modules", runs the
// future-syntax transform with its defaults, then minifies without
// vendor-prefixing.
func DefaultDescriptor() *Descriptor {
	return NewDefaultDescriptor(defaultImportRoot)
}

// NewDefaultDescriptor is DefaultDescriptor with a custom import root.
func NewDefaultDescriptor(importRoot string) *Descriptor {
	if importRoot == "" {
		importRoot = defaultImportRoot
	}
	d, _ := NewDescriptor(
		Stage{Name: StageImport, Options: Options{OptionRoot: importRoot}},
		Stage{Name: StageFutureSyntax},
		Stage{Name: StageMinify, Options: Options{OptionAutoprefixer: false}},
	)
	return d
}

// Stages returns a copy of the stage list.
func (d *Descriptor) Stages() []Stage {
	out := make([]Stage, len(d.stages))
	for i, s := range d.stages {
		out[i] = Stage{Name: s.Name, Options: s.Options.clone()}
	}
	return out
}

func (d *Descriptor) Len() int { return len(d.stages) }

// Names returns the stage names in order.
func (d *Descriptor) Names() []string {
	names := make([]string, len(d.stages))
	for i, s := range d.stages {
		names[i] = s.Name
	}
	return names
}

// ValidateOrder returns an error wrapping ErrStageOrder unless the stages
// are exactly import, future-syntax, minify.
func (d *Descriptor) ValidateOrder() error {
	names := d.Names()
	if len(names) == len(canonicalStageOrder) {
		ok := true
		for i, n := range names {
			if n != canonicalStageOrder[i] {
				ok = false
				break
			}
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: got [%s]", ErrStageOrder, strings.Join(names, ", "))
}

func (d *Descriptor) String() string {
	return strings.Join(d.Names(), " -> ")
}
