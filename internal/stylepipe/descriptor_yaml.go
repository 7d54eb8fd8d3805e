package isp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type descriptorFile struct {
	Stages []stageRef `yaml:"stages"`
}

// stageRef is either a bare stage name or a {name, options} mapping.
type stageRef struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

func (s *stageRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		s.Name = nameOnly
		return nil
	}
	type raw stageRef
	return value.Decode((*raw)(s))
}

// ParseDescriptor parses a YAML descriptor:
//
//	stages:
//	  - name: import
//	    options: {root: node_modules}
//	  - future-syntax
//	  - name: minify
//	    options: {autoprefixer: false}
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var f descriptorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing descriptor: %w", err)
	}
	stages := make([]Stage, len(f.Stages))
	for i, ref := range f.Stages {
		stages[i] = Stage{Name: ref.Name, Options: Options(ref.Options)}
	}
	return NewDescriptor(stages...)
}

// LoadDescriptor reads and parses a YAML descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
