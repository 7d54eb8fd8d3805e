package isp

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sjc5/kit/pkg/typed"
)

var cache = struct {
	matchResults typed.SyncMap[string, bool]
}{
	matchResults: typed.SyncMap[string, bool]{},
}

func (c *Config) getIsMatch(pattern string, path string) bool {
	combined := pattern + "\x00" + path

	if hit, isCached := cache.matchResults.Load(combined); isCached {
		return hit
	}

	matches, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path))
	if err != nil {
		c.logger().Errorf("error: failed to match file: %v", err)
		return false
	}

	actualValue, _ := cache.matchResults.LoadOrStore(combined, matches)
	return actualValue
}

func (c *Config) getIsIgnored(path string, ignoredPatterns []string) bool {
	for _, pattern := range ignoredPatterns {
		if c.getIsMatch(pattern, path) {
			return true
		}
	}
	return false
}

// Imported dependencies are never entries of their own.
var naiveIgnoreEntryPatterns = []string{"**/node_modules/**", "**/.git/**"}

// expandEntries resolves Config.Entries into a sorted, de-duplicated list of
// CSS file paths (joined with RootDir). Files inside OutDir are skipped so a
// build never consumes its own output.
func (c *Config) expandEntries() ([]string, error) {
	cleanRootDir := c.getCleanRootDir()
	cleanOutDir := c.getCleanOutDir()
	fsys := os.DirFS(cleanRootDir)

	seen := map[string]bool{}
	var entries []string

	for _, pattern := range c.Entries {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid entry pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error expanding entry pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if filepath.Ext(m) != cssExt {
				continue
			}
			if c.getIsIgnored(m, naiveIgnoreEntryPatterns) {
				continue
			}
			full := filepath.Join(cleanRootDir, filepath.FromSlash(m))
			if isWithinDir(full, cleanOutDir) || seen[full] {
				continue
			}
			if info, err := fs.Stat(fsys, m); err != nil || info.IsDir() {
				continue
			}
			seen[full] = true
			entries = append(entries, full)
		}
	}

	sort.Strings(entries)
	return entries, nil
}

func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
