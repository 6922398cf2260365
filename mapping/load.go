package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the document layout of a mapping file.
//
//	namespace: Zoo.Entities
//	schema: dbo
//	entities:
//	  - name: Zoo
//	    properties:
//	      - {name: Id, dbType: Int32, primaryKey: true, identity: true}
//	      - {name: Name, dbType: String, length: 50}
type File struct {
	Namespace string       `yaml:"namespace,omitempty"`
	Schema    string       `yaml:"schema,omitempty"`
	Entities  []*EntityMap `yaml:"entities"`
}

// Decode reads every YAML document of r into a configuration. The result is
// not resolved.
func Decode(r io.Reader) (*MapConfig, error) {
	c, err := NewConfig()
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	for {
		var f File
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mapping: decoding: %w", err)
		}
		for _, e := range f.Entities {
			if e.Namespace == "" {
				e.Namespace = f.Namespace
			}
			if e.SchemaName == "" {
				e.SchemaName = f.Schema
			}
		}
		if err := c.Add(f.Entities...); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Parse decodes and resolves a configuration held in memory.
func Parse(data []byte) (*MapConfig, error) {
	c, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := c.Resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFiles decodes the given mapping files into one configuration and
// resolves it. Entities may reference entities of other files.
func LoadFiles(paths ...string) (*MapConfig, error) {
	c, err := NewConfig()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("mapping: opening %s: %w", path, err)
		}
		part, err := Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := c.Merge(part); err != nil {
			return nil, err
		}
	}
	if err := c.Resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode writes the configuration as a single mapping document.
func (c *MapConfig) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Entities: c.entities}); err != nil {
		return fmt.Errorf("mapping: encoding: %w", err)
	}
	return enc.Close()
}
