package config

// modelTable maps a model-selection role to the default model used for it.
// Classification and small edits run on the cheapest tier; evaluation runs
// on the strongest one.
var modelTable = map[string]string{
	"comment-classification": "claude-haiku-3-5-20241022",
	"issue-body-edit":        "claude-haiku-3-5-20241022",
	"pr-description-edit":    "claude-haiku-3-5-20241022",
	"code-change":            "claude-sonnet-4-20250514",
	"performance-analysis":   "claude-sonnet-4-20250514",
	"review":                 "claude-sonnet-4-20250514",
	"evaluation":             "claude-opus-4-20250514",
	"design":                 "claude-sonnet-4-20250514",
	"architecture":           "claude-sonnet-4-20250514",
	"backend":                "claude-sonnet-4-20250514",
	"frontend":               "claude-sonnet-4-20250514",
	"ml":                     "claude-sonnet-4-20250514",
	"infrastructure":         "claude-sonnet-4-20250514",
	"integration":            "claude-sonnet-4-20250514",
	"project-management":     "claude-haiku-3-5-20241022",
}

const defaultModel = "claude-sonnet-4-20250514"

// economyModelTable overrides per-role models when economy mode is on.
// Evaluation keeps a mid tier; everything else drops to the cheapest.
var economyModelTable = map[string]string{
	"evaluation": "claude-sonnet-4-20250514",
}

const economyDefaultModel = "claude-haiku-3-5-20241022"

// SelectModel returns the model to use for a given role. Precedence:
// config override, economy table (when economy is enabled), built-in table,
// default.
func (c *Config) SelectModel(role string) string {
	if m, ok := c.Models[role]; ok && m != "" {
		return m
	}
	if c.Economy {
		if m, ok := economyModelTable[role]; ok {
			return m
		}
		return economyDefaultModel
	}
	if m, ok := modelTable[role]; ok {
		return m
	}
	return defaultModel
}
