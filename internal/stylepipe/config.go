package isp

import (
	"time"

	"github.com/sjc5/stylepipe/internal/util"
)

type Logger = util.Logger

// Log is the default logger used when Config.Logger is nil.
var Log = util.Log

type Config struct {
	/*
		RootDir is the directory entry globs are resolved against, and the
		directory that gets watched in watch mode. It should be set relative
		to where you run your build commands from (e.g., "." or "./web").
		We run filepath.Clean on it, so an empty RootDir means ".".
	*/
	RootDir string

	// Entries are glob patterns, relative to RootDir, naming the CSS files
	// to run through the pipeline (e.g., "styles/*.css"). Supports "**".
	// Each matched file produces one output file.
	Entries []string

	// OutDir is where built CSS is written, relative to the working
	// directory (not RootDir). Defaults to "dist/css".
	OutDir string

	// DescriptorFile optionally points at a YAML pipeline descriptor. When
	// empty, the default import -> future-syntax -> minify pipeline is used.
	DescriptorFile string

	// ImportRoot is the base directory for bare @import paths when the
	// default descriptor is used. Defaults to "<RootDir>/node_modules".
	// Ignored when DescriptorFile is set (set the import stage's "root"
	// option there instead).
	ImportRoot string

	// If true, output files are named "<name>_<hash>.css" and stale hashed
	// siblings are removed on each build.
	HashOutput bool

	// PublicPathPrefix is the URL path OutDir is served under, used when
	// rendering <link> elements for built entries. Defaults to "/".
	PublicPathPrefix string

	// Concurrency bounds how many entry files are processed at once.
	// Each entry's pipeline is always sequential. Defaults to 4.
	Concurrency int

	WatchConfig *WatchConfig

	Logger Logger
}

type WatchConfig struct {
	// Glob patterns (relative to Config.RootDir) for directories that should
	// not be watched. "**/.git", "**/node_modules" and OutDir are always ignored.
	IgnoreDirs []string

	// Glob patterns (relative to Config.RootDir) for files whose changes
	// should not trigger a rebuild.
	IgnoreFiles []string

	// If non-zero, a websocket reload server is started on (or near) this port.
	ReloadPort int

	// Defaults to 30ms.
	Debounce time.Duration
}

func (c *Config) logger() Logger {
	if c.Logger == nil {
		return Log
	}
	return c.Logger
}
