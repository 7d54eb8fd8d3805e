package stylepipe

import (
	"context"
	"html/template"

	isp "github.com/sjc5/stylepipe/internal/stylepipe"
)

type Config = isp.Config
type WatchConfig = isp.WatchConfig
type Logger = isp.Logger

type Stage = isp.Stage
type Options = isp.Options
type Descriptor = isp.Descriptor
type Document = isp.Document
type Transformer = isp.Transformer
type Maker = isp.Maker
type Registry = isp.Registry
type Runner = isp.Runner
type RunnerOptions = isp.RunnerOptions
type Manifest = isp.Manifest

type StageError = isp.StageError
type OptionError = isp.OptionError
type MessageError = isp.MessageError

type ReloadHub = isp.ReloadHub
type ReloadPayload = isp.ReloadPayload

type Stylepipe struct {
	Config *isp.Config
}

func New(config *isp.Config) *Stylepipe {
	if config.Logger == nil {
		config.Logger = isp.Log
	}
	return &Stylepipe{
		Config: config,
	}
}

// Build runs every entry through the pipeline and writes the results.
func (s Stylepipe) Build() (Manifest, error) {
	return s.Config.Build(context.Background())
}
func (s Stylepipe) BuildContext(ctx context.Context) (Manifest, error) {
	return s.Config.Build(ctx)
}

// Watch blocks, rebuilding on CSS changes until ctx is done.
func (s Stylepipe) Watch(ctx context.Context) error {
	return s.Config.Watch(ctx)
}
func (s Stylepipe) MustWatch() {
	s.Config.MustWatch()
}

func (s Stylepipe) NewRunner() (*Runner, error) {
	return s.Config.NewRunner()
}
func (s Stylepipe) LoadManifest() (Manifest, error) {
	return s.Config.LoadManifest()
}

func (s Stylepipe) GetStyleSheetURL(entry string) string {
	return s.Config.GetStyleSheetURL(entry)
}
func (s Stylepipe) GetStyleSheetLinkElement(entry string) template.HTML {
	return s.Config.GetStyleSheetLinkElement(entry)
}
func (s Stylepipe) GetInlineStyleElement(entry string) template.HTML {
	return s.Config.GetInlineStyleElement(entry)
}

const (
	StageImport       = isp.StageImport
	StageFutureSyntax = isp.StageFutureSyntax
	StageMinify       = isp.StageMinify

	OptionRoot         = isp.OptionRoot
	OptionExternal     = isp.OptionExternal
	OptionBrowsers     = isp.OptionBrowsers
	OptionAutoprefixer = isp.OptionAutoprefixer
	OptionEngine       = isp.OptionEngine
	OptionPrecision    = isp.OptionPrecision

	EngineTdewolff = isp.EngineTdewolff
	EngineCSSMin   = isp.EngineCSSMin

	ManifestFile        = isp.ManifestFile
	StyleSheetElementID = isp.StyleSheetElementID
	InlineCSSElementID  = isp.InlineCSSElementID
)

var (
	ErrStageOrder       = isp.ErrStageOrder
	ErrUnknownStage     = isp.ErrUnknownStage
	ErrEmptyDescriptor  = isp.ErrEmptyDescriptor
	ErrPrefixIntroduced = isp.ErrPrefixIntroduced
)

var DefaultDescriptor = isp.DefaultDescriptor
var NewDefaultDescriptor = isp.NewDefaultDescriptor
var NewDescriptor = isp.NewDescriptor
var ParseDescriptor = isp.ParseDescriptor
var LoadDescriptor = isp.LoadDescriptor

var NewRegistry = isp.NewRegistry
var DefaultRegistry = isp.DefaultRegistry
var Register = isp.Register
var TransformerFunc = isp.TransformerFunc

var NewRunner = isp.NewRunner
var ReadDocument = isp.ReadDocument

var CountImports = isp.CountImports
var CountVendorPrefixes = isp.CountVendorPrefixes

var NewReloadHub = isp.NewReloadHub
var GetReloadScript = isp.GetReloadScript
