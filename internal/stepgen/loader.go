package stepgen

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/stepflow/internal/model"
)

// archetypesYAML is the YAML structure for archetype override files.
type archetypesYAML struct {
	Archetypes []archetypeYAML `yaml:"archetypes"`
}

type archetypeYAML struct {
	Name     string         `yaml:"name"`
	Keywords []string       `yaml:"keywords"`
	Steps    []templateYAML `yaml:"steps"`
}

type templateYAML struct {
	Title              string         `yaml:"title"`
	Description        string         `yaml:"description"`
	InputType          string         `yaml:"input_type"`
	Guidance           string         `yaml:"guidance"`
	ValidationCriteria map[string]any `yaml:"validation_criteria"`
}

// LoadArchetypes loads archetype overrides from a YAML file. The returned
// archetypes are validated by the generator at construction.
func LoadArchetypes(filesystem fs.FS, path string) ([]Archetype, error) {
	data, err := fs.ReadFile(filesystem, path)
	if err != nil {
		return nil, fmt.Errorf("reading archetypes file: %w", err)
	}

	var doc archetypesYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	archetypes := make([]Archetype, 0, len(doc.Archetypes))
	for _, a := range doc.Archetypes {
		if a.Name == "" {
			return nil, fmt.Errorf("archetype name is required: %w", model.ErrNotValid)
		}

		templates := make([]model.StepTemplate, 0, len(a.Steps))
		for i, s := range a.Steps {
			templates = append(templates, model.StepTemplate{
				StepNumber:         i + 1,
				Title:              s.Title,
				Description:        s.Description,
				InputType:          model.InputType(s.InputType),
				Guidance:           s.Guidance,
				ValidationCriteria: s.ValidationCriteria,
			})
		}

		archetypes = append(archetypes, Archetype{
			Name:      a.Name,
			Keywords:  a.Keywords,
			Templates: templates,
		})
	}

	return archetypes, nil
}
