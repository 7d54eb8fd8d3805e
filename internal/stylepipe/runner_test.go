package isp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// recordingRegistry returns a registry whose stages append their name to
// the document and to calls.
func recordingRegistry(calls *[]string) *Registry {
	r := NewRegistry()
	for _, name := range canonicalStageOrder {
		name := name
		r.Register(name, func(Options) (Transformer, error) {
			return TransformerFunc(name, func(_ context.Context, doc Document) (Document, error) {
				*calls = append(*calls, name)
				return doc.withContents(append(doc.Contents, "|"+name...)), nil
			}), nil
		})
	}
	return r
}

func TestRunnerRunsStagesInOrder(t *testing.T) {
	var calls []string
	r, err := NewRunner(DefaultDescriptor(), &RunnerOptions{Registry: recordingRegistry(&calls)})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	out, err := r.Run(context.Background(), Document{Contents: []byte("src")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "src|import|future-syntax|minify"; string(out.Contents) != want {
		t.Errorf("Run() = %q, want %q", out.Contents, want)
	}
	if !reflect.DeepEqual(calls, canonicalStageOrder) {
		t.Errorf("calls = %v, want %v", calls, canonicalStageOrder)
	}
}

func TestRunnerRejectsCustomOrder(t *testing.T) {
	d, _ := NewDescriptor(Stage{Name: StageMinify}, Stage{Name: StageFutureSyntax}, Stage{Name: StageImport})

	if _, err := NewRunner(d, nil); !errors.Is(err, ErrStageOrder) {
		t.Fatalf("NewRunner() error = %v, want ErrStageOrder", err)
	}

	var calls []string
	r, err := NewRunner(d, &RunnerOptions{Registry: recordingRegistry(&calls), AllowCustomOrder: true})
	if err != nil {
		t.Fatalf("NewRunner(AllowCustomOrder) error = %v", err)
	}
	if _, err := r.Run(context.Background(), Document{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{StageMinify, StageFutureSyntax, StageImport}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRunnerNilDescriptor(t *testing.T) {
	if _, err := NewRunner(nil, nil); !errors.Is(err, ErrEmptyDescriptor) {
		t.Errorf("NewRunner(nil) error = %v, want ErrEmptyDescriptor", err)
	}
}

func TestRunnerBuildErrorNamesStage(t *testing.T) {
	d, _ := NewDescriptor(
		Stage{Name: StageImport},
		Stage{Name: StageFutureSyntax},
		Stage{Name: StageMinify, Options: Options{OptionEngine: "nope"}},
	)

	_, err := NewRunner(d, nil)
	var optErr *OptionError
	if !errors.As(err, &optErr) || optErr.Stage != StageMinify {
		t.Fatalf("NewRunner() error = %v, want minify *OptionError", err)
	}
	if !strings.Contains(err.Error(), "stage 2") {
		t.Errorf("error %q does not name the stage index", err)
	}
}

func TestRunnerWrapsStageErrors(t *testing.T) {
	boom := errors.New("boom")
	reached := false

	r := NewRegistry()
	r.Register(StageImport, func(Options) (Transformer, error) {
		return TransformerFunc(StageImport, func(_ context.Context, doc Document) (Document, error) {
			return doc, nil
		}), nil
	})
	r.Register(StageFutureSyntax, func(Options) (Transformer, error) {
		return TransformerFunc(StageFutureSyntax, func(context.Context, Document) (Document, error) {
			return Document{}, boom
		}), nil
	})
	r.Register(StageMinify, func(Options) (Transformer, error) {
		return TransformerFunc(StageMinify, func(_ context.Context, doc Document) (Document, error) {
			reached = true
			return doc, nil
		}), nil
	})

	runner, err := NewRunner(DefaultDescriptor(), &RunnerOptions{Registry: r})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	_, err = runner.Run(context.Background(), Document{Contents: []byte("a{}")})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want *StageError", err)
	}
	if stageErr.Index != 1 || stageErr.Stage != StageFutureSyntax {
		t.Errorf("StageError = {%d, %q}, want {1, %q}", stageErr.Index, stageErr.Stage, StageFutureSyntax)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Run() error does not wrap the stage error")
	}
	if reached {
		t.Errorf("minify ran after an earlier stage failed")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	var calls []string
	r, err := NewRunner(DefaultDescriptor(), &RunnerOptions{Registry: recordingRegistry(&calls)})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, Document{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(calls) != 0 {
		t.Errorf("stages ran after cancel: %v", calls)
	}
}

func TestRunnerDefaultPipeline(t *testing.T) {
	env := setupTestEnv(t)
	env.createTestFile(t, "styles/a.css", ".y { color: blue }\n")
	entry := env.createTestFile(t, "styles/main.css", "@import \"a.css\";\n.x { color: red }\n")

	r, err := NewRunner(NewDefaultDescriptor(env.config.ImportRoot), nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	out, err := r.RunFile(context.Background(), entry)
	if err != nil {
		t.Fatalf("RunFile() error = %v", err)
	}
	got := string(out.Contents)

	if n := CountImports(out.Contents); n != 0 {
		t.Errorf("output still has %d @import rules: %q", n, got)
	}
	if !strings.Contains(got, ".x{color:red}") {
		t.Errorf("output %q is missing the minified .x rule", got)
	}
	y, x := strings.Index(got, ".y{color:"), strings.Index(got, ".x{")
	if y < 0 || x < 0 || y > x {
		t.Errorf("output %q should contain the imported .y rule before .x", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("output %q is not minified", got)
	}
	if n := CountVendorPrefixes(out.Contents); n != 0 {
		t.Errorf("output %q gained %d vendor prefixes", got, n)
	}
}

func TestRunnerIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	env.createTestFile(t, "styles/a.css", ".y { color: blue; margin: 0 auto }\n")
	entry := env.createTestFile(t, "styles/main.css", "@import \"a.css\";\n.x { color: red; padding: 1px 2px }\n")

	r, err := NewRunner(NewDefaultDescriptor(env.config.ImportRoot), nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	once, err := r.RunFile(context.Background(), entry)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	twice, err := r.Run(context.Background(), once)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if !bytes.Equal(once.Contents, twice.Contents) {
		t.Errorf("second run changed output:\n%q\n%q", once.Contents, twice.Contents)
	}
}

func TestRunnerOrderChangesOutput(t *testing.T) {
	env := setupTestEnv(t)
	env.createTestFile(t, "styles/a.css", ".y { color: blue }\n")
	entry := env.createTestFile(t, "styles/main.css", "@import \"a.css\";\n.x { color: red }\n")

	canonical, err := NewRunner(NewDefaultDescriptor(env.config.ImportRoot), nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	swapped, err := NewDescriptor(
		Stage{Name: StageMinify},
		Stage{Name: StageFutureSyntax},
		Stage{Name: StageImport, Options: Options{OptionRoot: env.config.ImportRoot}},
	)
	if err != nil {
		t.Fatalf("NewDescriptor() error = %v", err)
	}
	custom, err := NewRunner(swapped, &RunnerOptions{AllowCustomOrder: true})
	if err != nil {
		t.Fatalf("NewRunner(custom) error = %v", err)
	}

	a, err := canonical.RunFile(context.Background(), entry)
	if err != nil {
		t.Fatalf("canonical run error = %v", err)
	}
	b, err := custom.RunFile(context.Background(), entry)
	if err != nil {
		t.Fatalf("custom run error = %v", err)
	}
	if bytes.Equal(a.Contents, b.Contents) {
		t.Errorf("reordered stages produced identical output %q", a.Contents)
	}
}

// recordingLogger counts warnings and drops everything else.
type recordingLogger struct {
	warnings int
}

func (l *recordingLogger) Debugf(string, ...any)   {}
func (l *recordingLogger) Infof(string, ...any)    {}
func (l *recordingLogger) Warningf(string, ...any) { l.warnings++ }
func (l *recordingLogger) Errorf(string, ...any)   {}
func (l *recordingLogger) Panicf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

func TestRunnerPassesLoggerToStages(t *testing.T) {
	logger := &recordingLogger{}
	d, err := NewDescriptor(
		Stage{Name: StageImport},
		Stage{Name: StageFutureSyntax},
		Stage{Name: StageMinify, Options: Options{OptionAutoprefixer: true}},
	)
	if err != nil {
		t.Fatalf("NewDescriptor() error = %v", err)
	}
	r, err := NewRunner(d, &RunnerOptions{Logger: logger})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	if got := r.transformers[0].(*importStage).logger; got != logger {
		t.Errorf("import stage logger = %v, want the runner's", got)
	}
	if got := r.transformers[1].(*futureSyntaxStage).logger; got != logger {
		t.Errorf("future-syntax stage logger = %v, want the runner's", got)
	}
	if got := r.transformers[2].(*minifyStage).prefixer.logger; got != logger {
		t.Errorf("minify prefixer logger = %v, want the runner's", got)
	}
}

func TestRunFileMissing(t *testing.T) {
	r, err := NewRunner(DefaultDescriptor(), nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if _, err := r.RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.css")); err == nil {
		t.Errorf("RunFile() on a missing file should fail")
	}
}
