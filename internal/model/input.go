package model

import (
	"fmt"
	"net/url"
	"strings"
)

// ChecklistItem is one entry of a checklist step input.
type ChecklistItem struct {
	Label string
	Done  bool
}

// FileRef points at an uploaded file in the external blob store.
type FileRef struct {
	Name string
	URL  string
}

// StepInput is the strongly typed view of a step's user input document. The
// raw document stays weakly typed at the storage boundary and is normalized
// into this tagged variant at the controller's edge, per input type. Only
// the field matching Type carries data.
type StepInput struct {
	Type      InputType
	Text      string
	Numbers   map[string]float64
	Checklist []ChecklistItem
	File      FileRef
	URL       string
	Selection []string
}

// NormalizeInput converts a raw user input document into a StepInput for
// the given input type. Unknown keys are ignored, shape mismatches on the
// expected keys are invalid.
func NormalizeInput(t InputType, data map[string]any) (StepInput, error) {
	in := StepInput{Type: t}
	if data == nil {
		return in, nil
	}

	switch t {
	case InputTypeText:
		s, err := stringField(data, "text")
		if err != nil {
			return StepInput{}, err
		}
		in.Text = s

	case InputTypeCalculation:
		in.Numbers = map[string]float64{}
		for k, v := range data {
			n, ok := numeric(v)
			if !ok {
				return StepInput{}, fmt.Errorf("calculation field %q is not numeric: %w", k, ErrNotValid)
			}
			in.Numbers[k] = n
		}

	case InputTypeChecklist:
		items, err := checklistField(data)
		if err != nil {
			return StepInput{}, err
		}
		in.Checklist = items

	case InputTypeFileUpload:
		name, err := stringField(data, "name")
		if err != nil {
			return StepInput{}, err
		}
		u, err := stringField(data, "url")
		if err != nil {
			return StepInput{}, err
		}
		in.File = FileRef{Name: name, URL: u}

	case InputTypeURL:
		u, err := stringField(data, "url")
		if err != nil {
			return StepInput{}, err
		}
		if u == "" {
			// Some clients send the URL as plain text.
			u, _ = stringField(data, "text")
		}
		in.URL = strings.TrimSpace(u)

	case InputTypeSelection:
		sel, err := selectionField(data)
		if err != nil {
			return StepInput{}, err
		}
		in.Selection = sel

	default:
		return StepInput{}, fmt.Errorf("unknown input type %q: %w", t, ErrNotValid)
	}

	return in, nil
}

// ValidURL reports whether the normalized URL input parses as an absolute
// http(s) URL.
func (in StepInput) ValidURL() bool {
	u, err := url.Parse(in.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func stringField(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string: %w", key, ErrNotValid)
	}
	return s, nil
}

// numeric accepts the number representations JSON decoding can produce.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func checklistField(data map[string]any) ([]ChecklistItem, error) {
	v, ok := data["items"]
	if !ok || v == nil {
		return nil, nil
	}
	rawItems, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("checklist items is not a list: %w", ErrNotValid)
	}

	items := make([]ChecklistItem, 0, len(rawItems))
	for i, ri := range rawItems {
		m, ok := ri.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("checklist item %d is not an object: %w", i, ErrNotValid)
		}
		label, err := stringField(m, "label")
		if err != nil {
			return nil, fmt.Errorf("checklist item %d: %w", i, err)
		}
		done, _ := m["done"].(bool)
		items = append(items, ChecklistItem{Label: label, Done: done})
	}
	return items, nil
}

func selectionField(data map[string]any) ([]string, error) {
	v, ok := data["selected"]
	if !ok || v == nil {
		return nil, nil
	}
	switch sel := v.(type) {
	case string:
		if sel == "" {
			return nil, nil
		}
		return []string{sel}, nil
	case []any:
		out := make([]string, 0, len(sel))
		for i, rv := range sel {
			s, ok := rv.(string)
			if !ok {
				return nil, fmt.Errorf("selection %d is not a string: %w", i, ErrNotValid)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("selected is not a string or list: %w", ErrNotValid)
	}
}
