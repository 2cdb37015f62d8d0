// Package validation checks section payloads against JSON Schemas before they reach
// the Draft Cache or the document store.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// Validator holds one compiled schema per section
type Validator struct {
	schemas map[domain.Section]*gojsonschema.Schema
}

// New compiles every section schema
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[domain.Section]*gojsonschema.Schema, len(sectionSchemas))}
	for _, section := range domain.AllSections {
		raw, ok := sectionSchemas[section]
		if !ok {
			return nil, fmt.Errorf("no schema for section %s", section)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", section, err)
		}
		v.schemas[section] = schema
	}
	return v, nil
}

// MustNew is New for static schemas; it panics when a schema does not compile
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Section validates a (possibly partial) section object
func (v *Validator) Section(section domain.Section, data interface{}) error {
	schema, ok := v.schemas[section]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSection, section)
	}

	doc, err := normalize(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrValidation, section, strings.Join(errs, "; "))
	}
	return nil
}

// Patch validates a documentData patch keyed by section data keys (headlineData, ...)
func (v *Validator) Patch(patch map[string]interface{}) error {
	for key, value := range patch {
		section, ok := sectionForKey(key)
		if !ok {
			return fmt.Errorf("%w: unknown documentData key %q", domain.ErrValidation, key)
		}
		if value == nil {
			continue
		}
		if err := v.Section(section, value); err != nil {
			return err
		}
	}
	return nil
}

func sectionForKey(key string) (domain.Section, bool) {
	for _, section := range domain.AllSections {
		if section.DataKey() == key {
			return section, true
		}
	}
	return "", false
}

// normalize turns typed values into the generic JSON shape the loader expects
func normalize(data interface{}) (interface{}, error) {
	switch data.(type) {
	case map[string]interface{}, nil:
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
