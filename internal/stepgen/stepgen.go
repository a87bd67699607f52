// Package stepgen generates the ordered step templates of a task: an
// enhanced path that asks the completion service to synthesize steps from
// the live task text, and a deterministic archetype path used as fallback.
// Generation never returns an empty list.
package stepgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
)

// GeneratorConfig is the configuration for the step template generator.
type GeneratorConfig struct {
	// Completion is optional. When nil only the archetype path is used.
	Completion completion.Client
	// Overrides extend or replace builtin archetypes, matched by name.
	Overrides []Archetype
	Logger    log.Logger
}

func (c *GeneratorConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stepgen.Generator"})
	return nil
}

// Generator produces ordered step templates for a task.
type Generator struct {
	client     completion.Client
	archetypes []Archetype
	logger     log.Logger
}

// NewGenerator creates a new step template generator. Override archetypes
// are validated here: incompatible validation criteria are a configuration
// error rejected at construction, not at validation time.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	archetypes := builtinArchetypes()
	for _, ov := range cfg.Overrides {
		if len(ov.Templates) == 0 {
			return nil, fmt.Errorf("archetype %q has no templates: %w", ov.Name, model.ErrNotValid)
		}
		for _, t := range ov.Templates {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("archetype %q: %w", ov.Name, err)
			}
		}

		replaced := false
		for i, a := range archetypes {
			if a.Name == ov.Name {
				archetypes[i] = ov
				replaced = true
				break
			}
		}
		if !replaced {
			// New archetypes go before the generic fallback.
			last := len(archetypes) - 1
			archetypes = append(archetypes[:last], ov, archetypes[last])
		}
	}

	return &Generator{
		client:     cfg.Completion,
		archetypes: archetypes,
		logger:     cfg.Logger,
	}, nil
}

// Generate returns the ordered step templates for a task. The enhanced
// completion-backed path is tried first when available; any failure there
// falls back to archetype classification, which always produces a
// non-empty sequence.
func (g *Generator) Generate(ctx context.Context, task model.Task, bctx model.BusinessContext) ([]model.StepTemplate, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title is required: %w", model.ErrNotValid)
	}

	if g.client != nil {
		templates, err := g.enhanced(ctx, task, bctx)
		if err == nil {
			return templates, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warningf("Enhanced step generation failed, using archetype fallback: %s", err)
	}

	archetype := g.classify(task)
	g.logger.Debugf("Task %q classified as archetype %q", task.Title, archetype.Name)

	return archetype.Instantiate(bctx), nil
}

// classify matches the lower-cased task text against the archetype
// keywords, first match wins, generic last.
func (g *Generator) classify(task model.Task) Archetype {
	text := strings.ToLower(task.Title + " " + task.Description)

	for _, a := range g.archetypes {
		if a.Name == GenericArchetypeName {
			continue
		}
		if a.Matches(text) {
			return a
		}
	}

	for _, a := range g.archetypes {
		if a.Name == GenericArchetypeName {
			return a
		}
	}

	// Unreachable, the generic archetype is always registered.
	return g.archetypes[len(g.archetypes)-1]
}
