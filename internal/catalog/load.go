package catalog

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"stroop/embedded"
)

const schemaURL = "catalog.schema.json"

type fileData struct {
	Version int         `yaml:"version"`
	Colors  []colorData `yaml:"colors"`
}

type colorData struct {
	Key          string              `yaml:"key"`
	RGB          [3]uint8            `yaml:"rgb"`
	Names        map[string]string   `yaml:"names"`
	Alternatives map[string][]string `yaml:"alternatives"`
}

// Set is a parsed catalog file holding every language it defines.
type Set struct {
	colors []colorData
}

// Default parses the catalog embedded in the binary.
func Default() (*Set, error) {
	return Parse(embedded.Catalog)
}

// LoadFile parses a catalog file from disk.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) (*Set, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &Set{colors: fd.Colors}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(embedded.CatalogSchema)); err != nil {
		return nil, fmt.Errorf("load catalog schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	return schema, nil
}

// Languages lists every language that names all colors, sorted.
func (s *Set) Languages() []string {
	counts := make(map[string]int)
	for _, c := range s.colors {
		for lang := range c.Names {
			counts[lang]++
		}
	}
	var langs []string
	for lang, n := range counts {
		if n == len(s.colors) {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// For builds the catalog for one language. Every color must carry a name in
// that language.
func (s *Set) For(lang string) (Catalog, error) {
	entries := make([]Entry, 0, len(s.colors))
	for _, c := range s.colors {
		name, ok := c.Names[lang]
		if !ok {
			return Catalog{}, fmt.Errorf("color %q has no %s name", c.Key, lang)
		}
		entries = append(entries, Entry{
			Key:          c.Key,
			Name:         name,
			RGB:          c.RGB,
			Alternatives: c.Alternatives[lang],
		})
	}
	return New(entries)
}
