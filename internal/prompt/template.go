// Package prompt holds the static category-to-instruction table.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/bluecaller/internal/domain"
)

// Slot is the placeholder replaced by the user's input.
const Slot = "{input}"

//go:embed templates.yaml
var defaultTable []byte

var (
	errUnknownLabel   = errors.New("unknown category label")
	errDuplicateLabel = errors.New("duplicate category label")
	errSlotCount      = errors.New("format must contain exactly one " + Slot + " slot")
	errMissing        = errors.New("category has no template")
)

// Template is the instruction used for one category.
type Template struct {
	Category domain.Category
	Key      string
	format   string
}

// Format substitutes input into the template's single slot.
func (t Template) Format(input string) string {
	return strings.Replace(t.format, Slot, input, 1)
}

// Raw returns the unformatted template text.
func (t Template) Raw() string {
	return t.format
}

type tableFile struct {
	Templates []struct {
		Label  string `yaml:"label"`
		Key    string `yaml:"key"`
		Format string `yaml:"format"`
	} `yaml:"templates"`
}

// Table is an immutable category lookup. The zero value resolves nothing.
type Table struct {
	byCategory map[domain.Category]Template
}

// Default returns the built-in table. It panics if the embedded YAML is
// malformed, which is a build defect.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic("prompt: embedded templates: " + err.Error())
	}
	return t
}

// Parse builds a table from YAML. Every known category must be present once
// and every format must carry exactly one slot.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	byCategory := make(map[domain.Category]Template, len(f.Templates))
	for _, raw := range f.Templates {
		c := domain.ParseCategory(raw.Label)
		if !c.Known() {
			return nil, fmt.Errorf("%w: %q", errUnknownLabel, raw.Label)
		}
		if _, dup := byCategory[c]; dup {
			return nil, fmt.Errorf("%w: %q", errDuplicateLabel, raw.Label)
		}
		if strings.Count(raw.Format, Slot) != 1 {
			return nil, fmt.Errorf("%w: %q", errSlotCount, raw.Label)
		}
		byCategory[c] = Template{Category: c, Key: raw.Key, format: raw.Format}
	}

	for _, c := range domain.Categories {
		if _, ok := byCategory[c]; !ok {
			return nil, fmt.Errorf("%w: %q", errMissing, c.Label())
		}
	}

	return &Table{byCategory: byCategory}, nil
}

// Resolve returns the template for c. It returns false for Unrecognized and
// for any category the table does not hold.
func (t *Table) Resolve(c domain.Category) (Template, bool) {
	if t == nil || !c.Known() {
		return Template{}, false
	}
	tmpl, ok := t.byCategory[c]
	return tmpl, ok
}

// ResolveLabel resolves a raw classifier label. Matching is exact; callers
// trim before calling.
func (t *Table) ResolveLabel(label string) (Template, bool) {
	return t.Resolve(domain.ParseCategory(label))
}
