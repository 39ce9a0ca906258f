package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a YAML schema.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a YAML schema from path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes s as YAML.
func Marshal(s *Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

// Registry holds schemas addressable by table name or file name.
type Registry struct {
	byName map[string]*Schema
	byFile map[string]*Schema
}

// NewRegistry creates a registry from already validated schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Schema),
		byFile: make(map[string]*Schema),
	}
	for _, s := range schemas {
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDir loads every *.yaml and *.yml file in dir.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	r, _ := NewRegistry()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		s, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers s. Names and files are matched case-insensitively.
func (r *Registry) Add(s *Schema) error {
	name := strings.ToLower(s.Name)
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("schema %s registered twice", s.Name)
	}
	r.byName[name] = s
	if s.File != "" {
		r.byFile[strings.ToLower(s.File)] = s
	}
	return nil
}

// Lookup finds a schema by table name, file name, or the base name of a path.
func (r *Registry) Lookup(nameOrPath string) (*Schema, bool) {
	key := strings.ToLower(nameOrPath)
	if s, ok := r.byName[key]; ok {
		return s, true
	}
	base := strings.ToLower(filepath.Base(nameOrPath))
	if s, ok := r.byFile[base]; ok {
		return s, true
	}
	s, ok := r.byName[strings.TrimSuffix(base, filepath.Ext(base))]
	return s, ok
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, s := range r.byName {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.byName)
}
