package completion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/stepflow/internal/completion"
)

func TestStripFences(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"Plain text is untouched": {
			in:  `[{"title": "Plan"}]`,
			exp: `[{"title": "Plan"}]`,
		},
		"JSON fence is stripped": {
			in:  "```json\n[{\"title\": \"Plan\"}]\n```",
			exp: `[{"title": "Plan"}]`,
		},
		"Bare fence is stripped": {
			in:  "```\n[1, 2]\n```",
			exp: `[1, 2]`,
		},
		"Surrounding whitespace is trimmed": {
			in:  "  \n```json\n{}\n```\n  ",
			exp: `{}`,
		},
		"Empty input": {
			in:  "",
			exp: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, completion.StripFences(tt.in))
		})
	}
}
