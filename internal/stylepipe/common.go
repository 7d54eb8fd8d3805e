package isp

import (
	"path/filepath"
)

const (
	StageImport       = "import"
	StageFutureSyntax = "future-syntax"
	StageMinify       = "minify"

	OptionRoot         = "root"
	OptionExternal     = "external"
	OptionBrowsers     = "browsers"
	OptionAutoprefixer = "autoprefixer"
	OptionEngine       = "engine"
	OptionPrecision    = "precision"

	EngineTdewolff = "tdewolff"
	EngineCSSMin   = "cssmin"

	ManifestFile = "stylepipe_manifest.json"

	defaultImportRoot  = "node_modules"
	defaultOutDir      = "dist/css"
	defaultConcurrency = 4
	cssMimeType        = "text/css"
	cssExt             = ".css"
)

var canonicalStageOrder = []string{StageImport, StageFutureSyntax, StageMinify}

func (c *Config) getCleanRootDir() string {
	return filepath.Clean(c.RootDir)
}

func (c *Config) getCleanOutDir() string {
	if c.OutDir == "" {
		return filepath.Clean(defaultOutDir)
	}
	return filepath.Clean(c.OutDir)
}

func (c *Config) getImportRoot() string {
	if c.ImportRoot != "" {
		return filepath.Clean(c.ImportRoot)
	}
	return filepath.Join(c.getCleanRootDir(), defaultImportRoot)
}

func (c *Config) getConcurrency() int {
	if c.Concurrency < 1 {
		return defaultConcurrency
	}
	return c.Concurrency
}
