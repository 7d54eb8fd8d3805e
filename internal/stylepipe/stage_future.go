package isp

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

func init() {
	Register(StageFutureSyntax, makeFutureSyntaxStage)
}

var defaultBrowsers = []string{"chrome58", "edge16", "firefox57", "safari11"}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

type futureSyntaxStage struct {
	engines []api.Engine
	logger  Logger
}

func makeFutureSyntaxStage(opts Options) (Transformer, error) {
	return newFutureSyntaxStage(opts)
}

func newFutureSyntaxStage(opts Options) (*futureSyntaxStage, error) {
	browsers, err := opts.Strings(OptionBrowsers, defaultBrowsers)
	if err != nil {
		return nil, err
	}
	engines, err := parseEngines(browsers)
	if err != nil {
		return nil, &OptionError{Option: OptionBrowsers, Err: err}
	}
	return &futureSyntaxStage{engines: engines, logger: Log}, nil
}

func (s *futureSyntaxStage) Name() string { return StageFutureSyntax }

func (s *futureSyntaxStage) setLogger(l Logger) { s.logger = l }

// Transform lowers syntax the target browsers lack (nesting, modern color
// notation, etc.) and inserts the vendor prefixes they need.
func (s *futureSyntaxStage) Transform(_ context.Context, doc Document) (Document, error) {
	result := api.Transform(string(doc.Contents), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    s.engines,
		Sourcefile: doc.sourcefile(),
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return Document{}, &MessageError{Messages: result.Errors}
	}
	logWarnings(s.logger, StageFutureSyntax, result.Warnings)
	return doc.withContents(result.Code), nil
}

// parseEngines turns strings like "chrome58" or "safari11.1" into esbuild
// engines.
func parseEngines(browsers []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		b = strings.ToLower(strings.TrimSpace(b))
		i := strings.IndexAny(b, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("invalid browser %q, want e.g. \"chrome58\"", b)
		}
		name, ok := engineNames[b[:i]]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q", b[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: b[i:]})
	}
	return engines, nil
}
