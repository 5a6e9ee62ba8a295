package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("templates: catalog is empty")

// Template is a named content structure the generator can follow.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	UsageCount  int    `yaml:"usage_count" json:"usage_count"`
	Prompt      string `yaml:"prompt" json:"prompt_template"`
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Catalog is an immutable, ordered set of templates.
type Catalog struct {
	list []Template
	byID map[string]Template
}

// Load reads a catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %q: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w (file %q)", err, path)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("templates: unmarshal: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{byID: make(map[string]Template, len(f.Templates))}
	for _, t := range f.Templates {
		t.ID = strings.TrimSpace(t.ID)
		t.Prompt = strings.TrimSpace(t.Prompt)
		if t.ID == "" {
			return nil, errors.New("templates: template id is empty")
		}
		if t.Prompt == "" {
			return nil, fmt.Errorf("templates: template %q has no prompt", t.ID)
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, fmt.Errorf("templates: duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = t
		c.list = append(c.list, t)
	}
	return c, nil
}

// All returns every template in file order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.list))
	copy(out, c.list)
	return out
}

// Get looks a template up by ID.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.byID[strings.TrimSpace(id)]
	return t, ok
}

// Recommendations returns up to n templates ordered by usage, most used first.
func (c *Catalog) Recommendations(n int) []Template {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool { return out[i].UsageCount > out[j].UsageCount })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
