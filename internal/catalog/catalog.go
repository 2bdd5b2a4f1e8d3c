// Package catalog holds the read-only reference data of the plan editor:
// standard labels, standard questions and the field catalog of the graphic
// material inspection step.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

const (
	QuestionYesNo          = "yes_no"
	QuestionScale          = "scale_1_5"
	QuestionText           = "text"
	QuestionMultipleChoice = "multiple_choice"
)

var questionTypes = map[string]bool{
	QuestionYesNo:          true,
	QuestionScale:          true,
	QuestionText:           true,
	QuestionMultipleChoice: true,
}

var graphicFieldTypes = map[string]bool{
	"text":     true,
	"checkbox": true,
	"photo":    true,
	"textarea": true,
}

var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry is a label or question template.
type Entry struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
}

type PhotoTemplate struct {
	Required            bool `yaml:"required" json:"required"`
	Quantity            int  `yaml:"quantity" json:"quantity"`
	AllowAnnotations    bool `yaml:"allow_annotations" json:"allowAnnotations"`
	CompareWithStandard bool `yaml:"compare_with_standard" json:"compareWithStandard"`
}

// GraphicField is a predefined field of the graphic inspection step.
type GraphicField struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Type        string         `yaml:"type" json:"type"`
	Required    bool           `yaml:"required" json:"required"`
	Default     bool           `yaml:"default" json:"default"`
	Description string         `yaml:"description" json:"description"`
	Photo       *PhotoTemplate `yaml:"photo,omitempty" json:"photoConfig,omitempty"`
}

type Catalog struct {
	Labels        []Entry        `yaml:"labels" json:"labels"`
	Questions     []Entry        `yaml:"questions" json:"questions"`
	GraphicFields []GraphicField `yaml:"graphic_fields" json:"graphicFields"`
}

// Default returns the built-in catalog. It panics if the embedded file is
// malformed, which the package tests rule out.
func Default() *Catalog {
	cat, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return cat
}

// Load reads a catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	const op = "catalog.Load"

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	return cat, nil
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	if err := validateEntries("labels", c.Labels, false); err != nil {
		return err
	}
	if err := validateEntries("questions", c.Questions, true); err != nil {
		return err
	}

	ids := make(map[string]bool, len(c.GraphicFields))
	names := make(map[string]bool, len(c.GraphicFields))
	for i, f := range c.GraphicFields {
		if f.ID == "" || f.Name == "" {
			return fmt.Errorf("%w: graphic_fields[%d]: id and name are required", ErrInvalidCatalog, i)
		}
		if ids[f.ID] || names[f.Name] {
			return fmt.Errorf("%w: graphic_fields[%d]: duplicate %q", ErrInvalidCatalog, i, f.ID)
		}
		ids[f.ID], names[f.Name] = true, true

		if !graphicFieldTypes[f.Type] {
			return fmt.Errorf("%w: graphic_fields[%d]: unsupported type %q", ErrInvalidCatalog, i, f.Type)
		}
		if f.Type == "photo" {
			if f.Photo == nil {
				return fmt.Errorf("%w: graphic_fields[%d]: photo settings missing", ErrInvalidCatalog, i)
			}
			if f.Photo.Quantity < 1 || f.Photo.Quantity > 5 {
				return fmt.Errorf("%w: graphic_fields[%d]: photo quantity %d out of 1..5", ErrInvalidCatalog, i, f.Photo.Quantity)
			}
		}
	}

	return nil
}

func validateEntries(list string, entries []Entry, typed bool) error {
	ids := make(map[string]bool, len(entries))
	names := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("%w: %s[%d]: id and name are required", ErrInvalidCatalog, list, i)
		}
		if ids[e.ID] {
			return fmt.Errorf("%w: %s[%d]: duplicate id %q", ErrInvalidCatalog, list, i, e.ID)
		}
		if names[e.Name] {
			return fmt.Errorf("%w: %s[%d]: duplicate name %q", ErrInvalidCatalog, list, i, e.Name)
		}
		ids[e.ID], names[e.Name] = true, true

		if typed && !questionTypes[e.Type] {
			return fmt.Errorf("%w: %s[%d]: unknown question type %q", ErrInvalidCatalog, list, i, e.Type)
		}
	}
	return nil
}

func (c *Catalog) Label(id string) (Entry, bool) {
	return find(c.Labels, id)
}

func (c *Catalog) Question(id string) (Entry, bool) {
	return find(c.Questions, id)
}

func (c *Catalog) GraphicField(id string) (GraphicField, bool) {
	for _, f := range c.GraphicFields {
		if f.ID == id {
			return f, true
		}
	}
	return GraphicField{}, false
}

// DefaultGraphicFields returns the fields a new graphic step starts with,
// in catalog order.
func (c *Catalog) DefaultGraphicFields() []GraphicField {
	var out []GraphicField
	for _, f := range c.GraphicFields {
		if f.Default {
			out = append(out, f)
		}
	}
	return out
}

// IsGraphicFieldName reports whether name belongs to a catalog graphic field.
func (c *Catalog) IsGraphicFieldName(name string) bool {
	for _, f := range c.GraphicFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// QuestionsByCategory groups questions, keeping catalog order inside each
// group. Questions without a category go to "Outros".
func (c *Catalog) QuestionsByCategory() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, q := range c.Questions {
		category := q.Category
		if category == "" {
			category = "Outros"
		}
		out[category] = append(out[category], q)
	}
	return out
}

func find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
