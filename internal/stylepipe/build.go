package isp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sjc5/stylepipe/internal/util"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Manifest maps each entry (slash path relative to RootDir) to its output
// file (slash path relative to OutDir).
type Manifest map[string]string

type buildResult struct {
	entry  string
	output string
}

// NewRunner builds a Runner from DescriptorFile, or from the default
// descriptor rooted at ImportRoot.
func (c *Config) NewRunner() (*Runner, error) {
	descriptor := NewDefaultDescriptor(c.getImportRoot())
	if c.DescriptorFile != "" {
		var err error
		descriptor, err = LoadDescriptor(c.DescriptorFile)
		if err != nil {
			return nil, fmt.Errorf("error loading descriptor: %w", err)
		}
	}
	return NewRunner(descriptor, &RunnerOptions{Logger: c.logger()})
}

// Build runs the pipeline for every entry and writes the results to
// OutDir. Entries run concurrently up to Concurrency; the first failure
// cancels the rest.
func (c *Config) Build(ctx context.Context) (Manifest, error) {
	a := time.Now()

	runner, err := c.NewRunner()
	if err != nil {
		return nil, err
	}

	entries, err := c.expandEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		c.logger().Warningf("no entry files matched %v in %s", c.Entries, c.getCleanRootDir())
	}

	cleanOutDir := c.getCleanOutDir()
	if err := os.MkdirAll(cleanOutDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	sem := semaphore.NewWeighted(int64(c.getConcurrency()))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make([]buildResult, 0, len(entries))

	for _, entry := range entries {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := c.buildEntry(gctx, runner, entry)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest := Manifest{}
	for _, r := range results {
		manifest[r.entry] = r.output
	}
	if err := c.writeManifest(manifest); err != nil {
		return nil, err
	}
	c.storeManifest(manifest)

	c.logger().Infof("built %d CSS file(s) in %v", len(manifest), time.Since(a))
	return manifest, nil
}

func (c *Config) buildEntry(ctx context.Context, runner *Runner, entry string) (buildResult, error) {
	rel, err := filepath.Rel(c.getCleanRootDir(), entry)
	if err != nil {
		return buildResult{}, fmt.Errorf("error relativizing %s: %w", entry, err)
	}

	doc, err := runner.RunFile(ctx, entry)
	if err != nil {
		return buildResult{}, fmt.Errorf("error building %s: %w", filepath.ToSlash(rel), err)
	}

	outRel := rel
	if c.HashOutput {
		outRel = filepath.Join(filepath.Dir(rel), util.GetHashedFilename(doc.Contents, filepath.Base(rel)))
	}
	outPath := filepath.Join(c.getCleanOutDir(), outRel)

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return buildResult{}, fmt.Errorf("error creating output directory: %w", err)
	}
	if c.HashOutput {
		if err := removeStaleHashedSiblings(outPath, filepath.Base(rel)); err != nil {
			return buildResult{}, err
		}
	}
	if err := os.WriteFile(outPath, doc.Contents, 0644); err != nil {
		return buildResult{}, fmt.Errorf("error writing %s: %w", outPath, err)
	}

	return buildResult{entry: filepath.ToSlash(rel), output: filepath.ToSlash(outRel)}, nil
}

// removeStaleHashedSiblings deletes earlier hashed builds of the same entry,
// keeping keep.
func removeStaleHashedSiblings(keep string, originalName string) error {
	dir := filepath.Dir(keep)
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("error reading output directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || f.Name() == filepath.Base(keep) || !util.GetIsHashedSibling(f.Name(), originalName) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing old CSS file: %w", err)
		}
	}
	return nil
}

func (c *Config) writeManifest(manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}
	path := filepath.Join(c.getCleanOutDir(), ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing manifest: %w", err)
	}
	c.logger().Debugf("wrote manifest %s (%d entries)", path, len(manifest))
	return nil
}

// LoadManifest reads the manifest written by the last Build.
func (c *Config) LoadManifest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(c.getCleanOutDir(), ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding manifest: %w", err)
	}
	return m, nil
}
