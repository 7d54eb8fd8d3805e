package isp

import (
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sjc5/kit/pkg/typed"
)

const (
	StyleSheetElementID = "__stylepipe-css"
	InlineCSSElementID  = "__stylepipe-inline-css"
)

// Manifests from the most recent Build, per config.
var manifests = typed.SyncMap[*Config, Manifest]{}

func (c *Config) storeManifest(m Manifest) {
	manifests.Store(c, m)
}

// manifest returns the last built manifest, falling back to the one on disk.
func (c *Config) manifest() Manifest {
	if hit, isCached := manifests.Load(c); isCached {
		return hit
	}
	m, err := c.LoadManifest()
	if err != nil {
		c.logger().Errorf("error loading manifest: %v", err)
		return nil
	}
	actual, _ := manifests.LoadOrStore(c, m)
	return actual
}

func (c *Config) getPublicPathPrefix() string {
	if c.PublicPathPrefix == "" {
		return "/"
	}
	return strings.TrimSuffix(c.PublicPathPrefix, "/") + "/"
}

// GetStyleSheetURL returns the public URL of the built output for entry (a
// slash path relative to RootDir, as in the manifest), or "" if entry was
// not built.
func (c *Config) GetStyleSheetURL(entry string) string {
	out, ok := c.manifest()[path.Clean(strings.TrimPrefix(entry, "./"))]
	if !ok {
		return ""
	}
	return c.getPublicPathPrefix() + out
}

func (c *Config) GetStyleSheetLinkElement(entry string) template.HTML {
	url := c.GetStyleSheetURL(entry)
	if url == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<link rel="stylesheet" href="`)
	sb.WriteString(template.HTMLEscapeString(url))
	sb.WriteString(`" id="`)
	sb.WriteString(StyleSheetElementID)
	sb.WriteString(`" />`)
	return template.HTML(sb.String())
}

// GetInlineStyleElement returns the built CSS for entry wrapped in a <style>
// element, for stylesheets small enough to inline into the page head.
func (c *Config) GetInlineStyleElement(entry string) template.HTML {
	out, ok := c.manifest()[path.Clean(strings.TrimPrefix(entry, "./"))]
	if !ok {
		return ""
	}

	content, err := os.ReadFile(filepath.Join(c.getCleanOutDir(), filepath.FromSlash(out)))
	if err != nil {
		c.logger().Errorf("error reading built CSS: %v", err)
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<style id="`)
	sb.WriteString(InlineCSSElementID)
	sb.WriteString(`">`)
	sb.Write(content)
	sb.WriteString("</style>")
	return template.HTML(sb.String())
}
