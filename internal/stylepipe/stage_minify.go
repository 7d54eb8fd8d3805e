package isp

import (
	"context"
	"fmt"

	"github.com/dchest/cssmin"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

func init() {
	Register(StageMinify, makeMinifyStage)
}

type minifyStage struct {
	engine       string
	autoprefixer bool
	prefixer     *futureSyntaxStage
	m            *minify.M
}

func makeMinifyStage(opts Options) (Transformer, error) {
	autoprefixer, err := opts.Bool(OptionAutoprefixer, false)
	if err != nil {
		return nil, err
	}
	engine, err := opts.String(OptionEngine, EngineTdewolff)
	if err != nil {
		return nil, err
	}
	precision, err := opts.Int(OptionPrecision, 0)
	if err != nil {
		return nil, err
	}
	if precision < 0 {
		return nil, &OptionError{Option: OptionPrecision, Err: fmt.Errorf("must not be negative, got %d", precision)}
	}

	s := &minifyStage{engine: engine, autoprefixer: autoprefixer}

	switch engine {
	case EngineTdewolff:
		s.m = minify.New()
		s.m.Add(cssMimeType, &css.Minifier{Precision: precision})
	case EngineCSSMin:
	default:
		return nil, &OptionError{Option: OptionEngine, Err: fmt.Errorf("unknown engine %q", engine)}
	}

	if autoprefixer {
		// Prefix for the same targets the future-syntax stage defaults to.
		s.prefixer, err = newFutureSyntaxStage(Options{})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *minifyStage) Name() string { return StageMinify }

func (s *minifyStage) setLogger(l Logger) {
	if s.prefixer != nil {
		s.prefixer.setLogger(l)
	}
}

func (s *minifyStage) Transform(ctx context.Context, doc Document) (Document, error) {
	in := doc
	if s.autoprefixer {
		var err error
		if in, err = s.prefixer.Transform(ctx, doc); err != nil {
			return Document{}, fmt.Errorf("error prefixing: %w", err)
		}
	}

	out, err := s.minify(in.Contents)
	if err != nil {
		return Document{}, fmt.Errorf("error minifying CSS: %w", err)
	}

	if !s.autoprefixer {
		before, after := CountVendorPrefixes(in.Contents), CountVendorPrefixes(out)
		if after > before {
			return Document{}, fmt.Errorf("%w: %d before, %d after", ErrPrefixIntroduced, before, after)
		}
	}
	return in.withContents(out), nil
}

func (s *minifyStage) minify(b []byte) ([]byte, error) {
	if s.engine == EngineCSSMin {
		return cssmin.Minify(b), nil
	}
	return s.m.Bytes(cssMimeType, b)
}
