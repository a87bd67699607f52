package model

import (
	"fmt"
	"strings"
)

// Criteria is the declarative validation payload of a step, parsed from its
// weakly typed document. Zero values mean the check is absent.
type Criteria struct {
	// MinLength is the minimum trimmed length of a text answer.
	MinLength int
	// RequiredFields must be present and non-empty/non-null in the raw
	// user input document. Presence only, no deep type checking.
	RequiredFields []string
	// Min and Max bound every numeric field of a calculation answer.
	Min *float64
	Max *float64
	// MinChecked is the minimum number of done checklist items.
	MinChecked int
	// MinItems is the minimum number of checklist items or selections.
	MinItems int
	// RequireURL requires a parseable absolute http(s) URL.
	RequireURL bool
}

// ParseCriteria parses a raw validation criteria document.
func ParseCriteria(raw map[string]any) (Criteria, error) {
	var c Criteria
	if raw == nil {
		return c, nil
	}

	for key, v := range raw {
		switch key {
		case "min_length":
			n, ok := numeric(v)
			if !ok || n < 0 {
				return Criteria{}, fmt.Errorf("min_length is not a positive number: %w", ErrNotValid)
			}
			c.MinLength = int(n)
		case "required_fields":
			fields, err := stringList(v)
			if err != nil {
				return Criteria{}, fmt.Errorf("required_fields: %w", err)
			}
			c.RequiredFields = fields
		case "min":
			n, ok := numeric(v)
			if !ok {
				return Criteria{}, fmt.Errorf("min is not a number: %w", ErrNotValid)
			}
			c.Min = &n
		case "max":
			n, ok := numeric(v)
			if !ok {
				return Criteria{}, fmt.Errorf("max is not a number: %w", ErrNotValid)
			}
			c.Max = &n
		case "min_checked":
			n, ok := numeric(v)
			if !ok || n < 0 {
				return Criteria{}, fmt.Errorf("min_checked is not a positive number: %w", ErrNotValid)
			}
			c.MinChecked = int(n)
		case "min_items":
			n, ok := numeric(v)
			if !ok || n < 0 {
				return Criteria{}, fmt.Errorf("min_items is not a positive number: %w", ErrNotValid)
			}
			c.MinItems = int(n)
		case "require_url":
			b, ok := v.(bool)
			if !ok {
				return Criteria{}, fmt.Errorf("require_url is not a boolean: %w", ErrNotValid)
			}
			c.RequireURL = b
		default:
			return Criteria{}, fmt.Errorf("unknown criteria key %q: %w", key, ErrNotValid)
		}
	}

	return c, nil
}

// CompatibleWith checks that every present criterion applies to the given
// input type. Mismatches (e.g. a numeric bound on a checklist step) are a
// configuration error.
func (c Criteria) CompatibleWith(t InputType) error {
	if c.MinLength > 0 && t != InputTypeText && t != InputTypeURL {
		return fmt.Errorf("min_length does not apply to %q steps: %w", t, ErrNotValid)
	}
	if (c.Min != nil || c.Max != nil) && t != InputTypeCalculation {
		return fmt.Errorf("numeric bounds do not apply to %q steps: %w", t, ErrNotValid)
	}
	if c.MinChecked > 0 && t != InputTypeChecklist {
		return fmt.Errorf("min_checked does not apply to %q steps: %w", t, ErrNotValid)
	}
	if c.MinItems > 0 && t != InputTypeChecklist && t != InputTypeSelection {
		return fmt.Errorf("min_items does not apply to %q steps: %w", t, ErrNotValid)
	}
	if c.RequireURL && t != InputTypeURL && t != InputTypeFileUpload {
		return fmt.Errorf("require_url does not apply to %q steps: %w", t, ErrNotValid)
	}
	return nil
}

// Evaluate runs the criteria against a normalized input and its raw
// document. It returns whether the step data passes and a human readable
// reason when it doesn't. Evaluation never errors: a failed check is an
// expected, user facing outcome.
func (c Criteria) Evaluate(in StepInput, raw map[string]any) (passed bool, reason string) {
	for _, field := range c.RequiredFields {
		v, ok := raw[field]
		if !ok || v == nil {
			return false, fmt.Sprintf("field %q is required", field)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return false, fmt.Sprintf("field %q is required", field)
		}
	}

	switch in.Type {
	case InputTypeText:
		if got := len(strings.TrimSpace(in.Text)); got < c.MinLength {
			return false, fmt.Sprintf("answer is too short: %d characters, at least %d required", got, c.MinLength)
		}

	case InputTypeCalculation:
		if len(in.Numbers) == 0 && (c.Min != nil || c.Max != nil) {
			return false, "at least one numeric value is required"
		}
		for k, n := range in.Numbers {
			if c.Min != nil && n < *c.Min {
				return false, fmt.Sprintf("value %q (%.2f) is below the minimum %.2f", k, n, *c.Min)
			}
			if c.Max != nil && n > *c.Max {
				return false, fmt.Sprintf("value %q (%.2f) is above the maximum %.2f", k, n, *c.Max)
			}
		}

	case InputTypeChecklist:
		if len(in.Checklist) < c.MinItems {
			return false, fmt.Sprintf("%d checklist items present, at least %d required", len(in.Checklist), c.MinItems)
		}
		checked := 0
		for _, item := range in.Checklist {
			if item.Done {
				checked++
			}
		}
		if checked < c.MinChecked {
			return false, fmt.Sprintf("%d items checked, at least %d required", checked, c.MinChecked)
		}

	case InputTypeFileUpload:
		if c.RequireURL && !in.ValidURL() && !fileHasURL(in.File) {
			return false, "a valid file URL is required"
		}

	case InputTypeURL:
		if got := len(strings.TrimSpace(in.URL)); got < c.MinLength {
			return false, fmt.Sprintf("URL is too short: %d characters, at least %d required", got, c.MinLength)
		}
		if c.RequireURL && !in.ValidURL() {
			return false, "a valid http(s) URL is required"
		}

	case InputTypeSelection:
		if len(in.Selection) < c.MinItems {
			return false, fmt.Sprintf("%d options selected, at least %d required", len(in.Selection), c.MinItems)
		}
	}

	return true, ""
}

func fileHasURL(f FileRef) bool {
	u := StepInput{Type: InputTypeURL, URL: f.URL}
	return u.ValidURL()
}

func stringList(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		// Criteria written by hand in YAML overrides may already be typed.
		if typed, isTyped := v.([]string); isTyped {
			return typed, nil
		}
		return nil, fmt.Errorf("not a list of strings: %w", ErrNotValid)
	}
	out := make([]string, 0, len(raw))
	for _, rv := range raw {
		s, ok := rv.(string)
		if !ok {
			return nil, fmt.Errorf("not a list of strings: %w", ErrNotValid)
		}
		out = append(out, s)
	}
	return out, nil
}
