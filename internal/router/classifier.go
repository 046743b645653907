package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ecohq/eco/internal/llm"
	log "github.com/ecohq/eco/internal/logging"
)

// Classification is the structured reply required from the classifier model.
type Classification struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Classifier wraps a text-generation call behind a strict output contract:
// one JSON object with a category from the closed enum, an integer
// confidence 0-100, and one sentence of reasoning. Anything else is a parse
// failure, retried once, then degraded to unclear with confidence 0.
type Classifier struct {
	generator llm.Generator
}

// NewClassifier creates a classifier adapter over the given generator.
func NewClassifier(g llm.Generator) *Classifier {
	return &Classifier{generator: g}
}

func buildClassifierPrompt(task string) string {
	var b strings.Builder
	b.WriteString("You are a strict task classifier.\n")
	b.WriteString("Classify the task into exactly one category.\n")
	b.WriteString("Return JSON only, no prose around it.\n\n")
	b.WriteString("JSON schema:\n")
	b.WriteString(`{"category":"<one of the categories>","confidence":0,"reasoning":"one sentence"}`)
	b.WriteString("\n\nCategories: feature, bug, docs, refactor, review, infra, design, architecture, backend, frontend, ml, integration, performance, unclear\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Confidence is an integer between 0 and 100.\n")
	b.WriteString("- Reasoning is a single sentence written before you settle on the category.\n")
	b.WriteString("- If genuinely ambiguous, use unclear with low confidence.\n\n")
	b.WriteString("Task:\n")
	b.WriteString(task)
	return b.String()
}

// Classify asks the model for a classification. A malformed reply is retried
// once; a second failure or a transport error degrades to unclear with
// confidence 0 rather than propagating.
func (c *Classifier) Classify(ctx context.Context, task string) Classification {
	prompt := buildClassifierPrompt(task)

	for attempt := 0; attempt < 2; attempt++ {
		reply, err := c.generator.Generate(ctx, prompt)
		if err != nil {
			log.Warnf("classifier call failed: %v", err)
			return Classification{Category: string(TypeUnclear), Confidence: 0, Reasoning: fmt.Sprintf("classifier call failed: %v", err)}
		}

		cls, err := parseClassification(reply)
		if err == nil {
			return cls
		}
		log.Warnf("classifier reply rejected (attempt %d): %v", attempt+1, err)
	}

	return Classification{Category: string(TypeUnclear), Confidence: 0, Reasoning: "classifier reply unparseable after retry"}
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extracts the first JSON object embedded in model output.
func extractJSON(text string) (string, error) {
	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return "", fmt.Errorf("no JSON object found in reply")
	}
	var probe interface{}
	if err := json.Unmarshal([]byte(match), &probe); err != nil {
		return "", fmt.Errorf("embedded JSON is invalid: %w", err)
	}
	return match, nil
}

func parseClassification(reply string) (Classification, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return Classification{}, err
	}

	var cls Classification
	if err := json.Unmarshal([]byte(raw), &cls); err != nil {
		return Classification{}, fmt.Errorf("failed to unmarshal classification: %w", err)
	}

	cls.Category = strings.ToLower(strings.TrimSpace(cls.Category))
	cls.Reasoning = strings.TrimSpace(cls.Reasoning)

	if !ValidTaskType(cls.Category) {
		return Classification{}, fmt.Errorf("category %q is not in the closed enum", cls.Category)
	}
	if cls.Confidence < 0 || cls.Confidence > 100 {
		return Classification{}, fmt.Errorf("confidence %d outside 0-100", cls.Confidence)
	}
	if cls.Reasoning == "" {
		return Classification{}, fmt.Errorf("reasoning is empty")
	}
	return cls, nil
}
