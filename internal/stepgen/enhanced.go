package stepgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/model"
)

const enhancedSystemPrompt = `You are an expert coordinator that decomposes business tasks for independent cultural creators into specific, actionable steps.

Rules:
1. Produce between 3 and 6 steps.
2. Each step must be concrete and have one clear deliverable.
3. Order the steps logically, earlier steps feed later ones.
4. Use the business context to personalize titles and guidance.

Respond ONLY with a JSON array of objects with these fields:
[{
  "step_number": 1,
  "title": "Specific step title",
  "description": "Detailed, contextual description",
  "input_type": "text|calculation|checklist|file_upload|url|selection",
  "guidance": "Prompt for the step's AI assistant",
  "validation_criteria": {"min_length": 20}
}]

validation_criteria accepts: min_length (text, url), required_fields (any type), min/max (calculation), min_checked/min_items (checklist), min_items (selection), require_url (url, file_upload). Criteria must match the step's input_type.`

type enhancedTemplate struct {
	StepNumber         int            `json:"step_number"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	InputType          string         `json:"input_type"`
	Guidance           string         `json:"guidance"`
	ValidationCriteria map[string]any `json:"validation_criteria"`
}

// enhanced asks the completion service to synthesize step templates from
// the live task text. Every parsing or validation problem is returned as an
// error so the caller can fall back to archetypes.
func (g *Generator) enhanced(ctx context.Context, task model.Task, bctx model.BusinessContext) ([]model.StepTemplate, error) {
	user := fmt.Sprintf("TASK:\nTitle: %q\nDescription: %q\n\nBUSINESS CONTEXT:\n%s",
		task.Title, task.Description, formatContext(bctx))

	raw, err := g.client.Complete(ctx, enhancedSystemPrompt, []completion.Message{
		{Role: completion.RoleUser, Content: user},
	})
	if err != nil {
		return nil, fmt.Errorf("could not complete: %w", err)
	}

	var parsed []enhancedTemplate
	if err := json.Unmarshal([]byte(completion.StripFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable step list: %v: %w", err, model.ErrExternalService)
	}

	if len(parsed) < 3 || len(parsed) > 6 {
		return nil, fmt.Errorf("got %d steps, want 3 to 6: %w", len(parsed), model.ErrExternalService)
	}

	templates := make([]model.StepTemplate, 0, len(parsed))
	for i, p := range parsed {
		t := model.StepTemplate{
			StepNumber:         i + 1, // Renumber, the service sometimes skips numbers.
			Title:              strings.TrimSpace(p.Title),
			Description:        strings.TrimSpace(p.Description),
			InputType:          model.InputType(p.InputType),
			Guidance:           strings.TrimSpace(p.Guidance),
			ValidationCriteria: p.ValidationCriteria,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("generated step %d invalid: %w", i+1, err)
		}
		templates = append(templates, t)
	}

	return templates, nil
}

func formatContext(bctx model.BusinessContext) string {
	var b strings.Builder
	if bctx.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", bctx.Industry)
	}
	if bctx.ProductName != "" {
		fmt.Fprintf(&b, "Product: %s\n", bctx.ProductName)
	}
	for name, cost := range bctx.KnownCosts {
		fmt.Fprintf(&b, "Known cost %s: %.2f\n", name, cost)
	}
	if len(bctx.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(bctx.Goals, ", "))
	}
	if b.Len() == 0 {
		return "Not provided."
	}
	return b.String()
}
