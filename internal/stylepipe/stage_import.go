package isp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

func init() {
	Register(StageImport, makeImportStage)
}

// Asset url()s are not CSS and must not be pulled into the bundle.
var defaultExternals = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp", "*.avif", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf", "*.eot",
}

type importStage struct {
	root     string
	external []string
	logger   Logger
}

func makeImportStage(opts Options) (Transformer, error) {
	root, err := opts.String(OptionRoot, defaultImportRoot)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &OptionError{Option: OptionRoot, Err: err}
	}
	external, err := opts.Strings(OptionExternal, defaultExternals)
	if err != nil {
		return nil, err
	}
	return &importStage{
		root:     absRoot,
		external: external,
		logger:   Log,
	}, nil
}

func (s *importStage) Name() string { return StageImport }

func (s *importStage) setLogger(l Logger) { s.logger = l }

// Transform inlines every resolvable @import, recursively. Relative paths
// resolve from doc.ResolveDir (then from the root); bare package paths
// resolve from the root. Remote imports (http://, https://, //) are left
// in place by esbuild.
func (s *importStage) Transform(_ context.Context, doc Document) (Document, error) {
	resolveDir, err := doc.absResolveDir()
	if err != nil {
		return Document{}, fmt.Errorf("error resolving directory %q: %w", doc.ResolveDir, err)
	}

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   string(doc.Contents),
			ResolveDir: resolveDir,
			Sourcefile: doc.sourcefile(),
			Loader:     api.LoaderCSS,
		},
		Bundle:    true,
		Write:     false,
		NodePaths: []string{s.root},
		External:  s.external,
		LogLevel:  api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return Document{}, &MessageError{Messages: result.Errors}
	}
	logWarnings(s.logger, StageImport, result.Warnings)

	if len(result.OutputFiles) == 0 {
		return doc.withContents([]byte{}), nil
	}
	return doc.withContents(result.OutputFiles[0].Contents), nil
}
