package stepgen

import (
	"strings"

	"github.com/slok/stepflow/internal/model"
)

// Archetype is a classification bucket mapping task keywords to a fixed
// step template sequence. Guidance strings may contain the `{product}`
// placeholder, replaced with the business context product name.
type Archetype struct {
	Name      string
	Keywords  []string
	Templates []model.StepTemplate
}

// Matches reports whether any keyword appears in the lower-cased text.
func (a Archetype) Matches(text string) bool {
	for _, kw := range a.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Instantiate returns a copy of the archetype templates parameterized with
// the business context.
func (a Archetype) Instantiate(bctx model.BusinessContext) []model.StepTemplate {
	product := bctx.ProductName
	if product == "" {
		product = "your product"
	}

	out := make([]model.StepTemplate, len(a.Templates))
	for i, t := range a.Templates {
		t.Guidance = strings.ReplaceAll(t.Guidance, "{product}", product)
		t.Description = strings.ReplaceAll(t.Description, "{product}", product)
		out[i] = t
	}
	return out
}

// GenericArchetypeName is the name of the fallback archetype, always
// present and always last in matching order.
const GenericArchetypeName = "generic"

// builtinArchetypes are evaluated in order, first match wins. The generic
// one matches nothing and is the explicit fallback.
func builtinArchetypes() []Archetype {
	return []Archetype{
		{
			Name:     "cost_calculation",
			Keywords: []string{"cost", "price", "pricing", "costo", "precio", "precios"},
			Templates: []model.StepTemplate{
				{
					StepNumber:  1,
					Title:       "List your materials",
					Description: "Write down every material that goes into {product}, including packaging.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user enumerate every material used to make {product}, including the ones that are easy to forget like thread, glue or packaging.",
					ValidationCriteria: map[string]any{
						"min_length": 20,
					},
				},
				{
					StepNumber:  2,
					Title:       "Calculate the cost of your materials",
					Description: "Add up what the materials for one unit of {product} cost you.",
					InputType:   model.InputTypeCalculation,
					Guidance:    "Help the user compute the per-unit material cost of {product}. Suggest splitting bulk purchases across units.",
					ValidationCriteria: map[string]any{
						"required_fields": []string{"materials_cost"},
						"min":             0,
					},
				},
				{
					StepNumber:  3,
					Title:       "Measure your production time",
					Description: "Time how long it takes you to produce one unit of {product}.",
					InputType:   model.InputTypeCalculation,
					Guidance:    "Help the user measure realistic production time for {product}, including preparation and finishing work.",
					ValidationCriteria: map[string]any{
						"required_fields": []string{"hours_per_unit"},
						"min":             0,
					},
				},
				{
					StepNumber:  4,
					Title:       "Define the value of your working hour",
					Description: "Decide how much one hour of your work is worth.",
					InputType:   model.InputTypeCalculation,
					Guidance:    "Help the user set an hourly rate that reflects their skill and local market, not just minimum wage.",
					ValidationCriteria: map[string]any{
						"required_fields": []string{"hourly_rate"},
						"min":             0,
					},
				},
				{
					StepNumber:  5,
					Title:       "Calculate your final price",
					Description: "Combine materials, time and margin into the real price of {product}.",
					InputType:   model.InputTypeCalculation,
					Guidance:    "Help the user combine material cost, labor time and a sustainable margin into a final price, and compare it with similar products.",
					ValidationCriteria: map[string]any{
						"required_fields": []string{"final_price"},
						"min":             0,
					},
				},
			},
		},
		{
			Name:     "validation_research",
			Keywords: []string{"validate", "validation", "research", "market", "audience", "valida", "investiga", "mercado"},
			Templates: []model.StepTemplate{
				{
					StepNumber:  1,
					Title:       "Define your target audience",
					Description: "Describe who you believe wants {product} and why.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user describe a concrete audience: age, interests, buying habits, where they can be reached.",
					ValidationCriteria: map[string]any{
						"min_length": 30,
					},
				},
				{
					StepNumber:  2,
					Title:       "Research similar offerings",
					Description: "Collect comparable products or services and note how they position themselves.",
					InputType:   model.InputTypeChecklist,
					Guidance:    "Help the user find at least three comparable offerings and what to look at in each: price, presentation, audience.",
					ValidationCriteria: map[string]any{
						"min_items":   3,
						"min_checked": 3,
					},
				},
				{
					StepNumber:  3,
					Title:       "Gather one piece of evidence",
					Description: "Link a survey, conversation thread or listing that shows real demand.",
					InputType:   model.InputTypeURL,
					Guidance:    "Help the user find verifiable demand signals: marketplace listings, social posts, waiting lists.",
					ValidationCriteria: map[string]any{
						"require_url": true,
					},
				},
				{
					StepNumber:  4,
					Title:       "Summarize your findings",
					Description: "Write the conclusion: is the concept validated, and what would you change?",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user draw an honest conclusion from the research, including what to adjust.",
					ValidationCriteria: map[string]any{
						"min_length": 50,
					},
				},
			},
		},
		{
			Name:     "strategy_planning",
			Keywords: []string{"strategy", "plan", "marketing", "channel", "estrategia", "canales"},
			Templates: []model.StepTemplate{
				{
					StepNumber:  1,
					Title:       "Define the goal",
					Description: "State the single outcome this strategy must achieve.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user phrase one measurable goal with a deadline.",
					ValidationCriteria: map[string]any{
						"min_length": 20,
					},
				},
				{
					StepNumber:  2,
					Title:       "Choose your channels",
					Description: "Pick the channels where your audience actually is.",
					InputType:   model.InputTypeSelection,
					Guidance:    "Help the user choose two or three channels they can sustain, not every channel that exists.",
					ValidationCriteria: map[string]any{
						"min_items": 2,
					},
				},
				{
					StepNumber:  3,
					Title:       "Draft the plan",
					Description: "Write the concrete actions for the next month, per channel.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user turn the goal and channels into weekly actions with owners and effort estimates.",
					ValidationCriteria: map[string]any{
						"min_length": 80,
					},
				},
				{
					StepNumber:  4,
					Title:       "Review the milestones",
					Description: "Confirm each milestone of the plan is realistic.",
					InputType:   model.InputTypeChecklist,
					Guidance:    "Help the user sanity-check every milestone against their available time.",
					ValidationCriteria: map[string]any{
						"min_checked": 2,
					},
				},
			},
		},
		{
			Name:     "development_creation",
			Keywords: []string{"create", "develop", "design", "build", "crea", "desarrolla", "diseña"},
			Templates: []model.StepTemplate{
				{
					StepNumber:  1,
					Title:       "Outline the concept",
					Description: "Describe what you are going to create and for whom.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user write a short, concrete outline: what, for whom, why now.",
					ValidationCriteria: map[string]any{
						"min_length": 30,
					},
				},
				{
					StepNumber:  2,
					Title:       "Collect references",
					Description: "Link one reference that shows the direction you want.",
					InputType:   model.InputTypeURL,
					Guidance:    "Help the user find references that match the intended style or quality level.",
					ValidationCriteria: map[string]any{
						"require_url": true,
					},
				},
				{
					StepNumber:  3,
					Title:       "Produce the first version",
					Description: "Create the first complete version, rough edges allowed.",
					InputType:   model.InputTypeFileUpload,
					Guidance:    "Encourage the user to finish a rough first version instead of polishing a fragment.",
					ValidationCriteria: map[string]any{
						"required_fields": []string{"url"},
						"require_url":     true,
					},
				},
				{
					StepNumber:  4,
					Title:       "Review against the outline",
					Description: "Check the result against the concept you outlined in step 1.",
					InputType:   model.InputTypeChecklist,
					Guidance:    "Help the user review the result point by point against the original outline.",
					ValidationCriteria: map[string]any{
						"min_checked": 2,
					},
				},
			},
		},
		{
			// Fallback archetype, never matched by keywords, always available.
			Name:     GenericArchetypeName,
			Keywords: nil,
			Templates: []model.StepTemplate{
				{
					StepNumber:  1,
					Title:       "Plan the task",
					Description: "Break the task into the concrete pieces it needs.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user identify exactly what information and materials this task needs.",
					ValidationCriteria: map[string]any{
						"min_length": 20,
					},
				},
				{
					StepNumber:  2,
					Title:       "Research what you need",
					Description: "Gather the information identified in the plan.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user find reliable sources for each open question from the plan.",
					ValidationCriteria: map[string]any{
						"min_length": 20,
					},
				},
				{
					StepNumber:  3,
					Title:       "Execute the main work",
					Description: "Do the core work of the task and record the outcome.",
					InputType:   model.InputTypeText,
					Guidance:    "Work through each detail with the user to make sure nothing is missing.",
					ValidationCriteria: map[string]any{
						"min_length": 30,
					},
				},
				{
					StepNumber:  4,
					Title:       "Review the result",
					Description: "Review what was produced and note follow-ups.",
					InputType:   model.InputTypeText,
					Guidance:    "Help the user validate the result and capture anything left for later.",
					ValidationCriteria: map[string]any{
						"min_length": 20,
					},
				},
			},
		},
	}
}
