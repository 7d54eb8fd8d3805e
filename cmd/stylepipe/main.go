package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sjc5/stylepipe"
)

const (
	rootEnvKey = "STYLEPIPE_ROOT"
	outEnvKey  = "STYLEPIPE_OUT"
)

var (
	fRoot       = flag.String("root", "", "directory entry globs are relative to (env "+rootEnvKey+", default \".\")")
	fOut        = flag.String("out", "", "output directory (env "+outEnvKey+", default \"dist/css\")")
	fConfig     = flag.String("config", "", "YAML pipeline descriptor (default: import -> future-syntax -> minify)")
	fImportRoot = flag.String("import-root", "", "base directory for bare @imports (default \"<root>/node_modules\")")
	fHash       = flag.Bool("hash", false, "content-hash output file names")
	fReloadPort = flag.Int("reload-port", 0, "start a websocket reload server near this port when watching")
)

var Usage = func() {
	fmt.Printf(`usage: stylepipe command [options] entry-glob...

Commands:
  build  - run the pipeline once for every entry
  watch  - build, then rebuild on CSS changes

Options:
`)
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	flag.Usage = Usage

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	command := os.Args[1]
	os.Args = os.Args[1:]

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("! error loading .env: %s", err)
		}
	}

	flag.Parse()

	config := &stylepipe.Config{
		RootDir:        firstNonEmpty(*fRoot, os.Getenv(rootEnvKey), "."),
		OutDir:         firstNonEmpty(*fOut, os.Getenv(outEnvKey)),
		Entries:        flag.Args(),
		DescriptorFile: *fConfig,
		ImportRoot:     *fImportRoot,
		HashOutput:     *fHash,
	}
	if len(config.Entries) == 0 {
		config.Entries = []string{"**/*.css"}
	}

	sp := stylepipe.New(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "build":
		if _, err := sp.BuildContext(ctx); err != nil {
			log.Fatalf("! %s", err)
		}
	case "watch":
		config.WatchConfig = &stylepipe.WatchConfig{ReloadPort: *fReloadPort}
		if err := sp.Watch(ctx); err != nil {
			log.Fatalf("! %s", err)
		}
	default:
		fmt.Printf("unknown command %q\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
