package isp

import (
	"os"
	"path/filepath"
)

const stdinSourcefile = "<stdin>"

// Document is the unit of work passed from stage to stage.
type Document struct {
	Contents []byte

	// ResolveDir is the directory relative @imports resolve against.
	// Empty means the working directory.
	ResolveDir string

	// Sourcefile names the document in error messages.
	Sourcefile string
}

// ReadDocument loads a CSS file, resolving its imports from its own directory.
func ReadDocument(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Contents:   content,
		ResolveDir: filepath.Dir(path),
		Sourcefile: filepath.ToSlash(path),
	}, nil
}

func (d Document) withContents(contents []byte) Document {
	d.Contents = contents
	return d
}

func (d Document) sourcefile() string {
	if d.Sourcefile == "" {
		return stdinSourcefile
	}
	return d.Sourcefile
}

func (d Document) absResolveDir() (string, error) {
	dir := d.ResolveDir
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}
