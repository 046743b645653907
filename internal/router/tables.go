package router

import "regexp"

// rule is one entry of the structural rule table. A rule fires when any of
// its labels is present or the event matches. The table is evaluated
// top-to-bottom and the first hit wins, so overlaps are resolved by position.
type rule struct {
	name   string
	labels []string
	events []string
	target TaskType
}

var ruleTable = []rule{
	{name: "bug-label", labels: []string{"bug", "regression"}, target: TypeBug},
	{name: "feature-label", labels: []string{"enhancement", "feature"}, target: TypeFeature},
	{name: "docs-label", labels: []string{"documentation", "docs"}, target: TypeDocs},
	{name: "refactor-label", labels: []string{"refactor", "tech-debt"}, target: TypeRefactor},
	{name: "performance-label", labels: []string{"performance"}, target: TypePerformance},
	{name: "infra-label", labels: []string{"infrastructure", "infra", "ci"}, target: TypeInfra},
	{name: "design-label", labels: []string{"design", "ux"}, target: TypeDesign},
	{name: "architecture-label", labels: []string{"architecture"}, target: TypeArchitecture},
	{name: "backend-label", labels: []string{"backend"}, target: TypeBackend},
	{name: "frontend-label", labels: []string{"frontend"}, target: TypeFrontend},
	{name: "ml-label", labels: []string{"ml", "machine-learning"}, target: TypeML},
	{name: "integration-label", labels: []string{"integration"}, target: TypeIntegration},
	{name: "review-event", events: []string{"pull_request_review", "review_requested"}, target: TypeReview},
	{name: "pr-event", events: []string{"pull_request"}, target: TypeReview},
}

func (r rule) matches(sig Signals) bool {
	for _, want := range r.labels {
		for _, have := range sig.Labels {
			if want == have {
				return true
			}
		}
	}
	for _, want := range r.events {
		if want == sig.Event {
			return true
		}
	}
	return false
}

// keywordRule is one entry of the fallback keyword table. Ordered by
// specificity: architecture and docs phrasing first so they win over the
// generic domains, review before bug so a review request mentioning "fix"
// routes to the reviewer, and feature verbs last as the most general.
type keywordRule struct {
	target  TaskType
	pattern *regexp.Regexp
}

var keywordTable = []keywordRule{
	{TypeArchitecture, regexp.MustCompile(`(?i)\barchitecture\b`)},
	{TypeArchitecture, regexp.MustCompile(`(?i)\bsystem\s*design\b`)},
	{TypeArchitecture, regexp.MustCompile(`(?i)\bapi\s*spec\b`)},
	{TypeDocs, regexp.MustCompile(`(?i)\b(write|create|update)\b.*\bdocumentation\b`)},
	{TypeDocs, regexp.MustCompile(`(?i)\barchitectural\s+documentation\b`)},
	{TypeDesign, regexp.MustCompile(`(?i)\bdesign\b`)},
	{TypeDesign, regexp.MustCompile(`(?i)\bui\b`)},
	{TypeDesign, regexp.MustCompile(`(?i)\bux\b`)},
	{TypeDesign, regexp.MustCompile(`(?i)\bwireframe\b`)},
	{TypeBackend, regexp.MustCompile(`(?i)\bapi\b`)},
	{TypeBackend, regexp.MustCompile(`(?i)\bdatabase\b`)},
	{TypeBackend, regexp.MustCompile(`(?i)\bbackend\b`)},
	{TypeBackend, regexp.MustCompile(`(?i)\bgrpc\b`)},
	{TypeFrontend, regexp.MustCompile(`(?i)\bfrontend\b`)},
	{TypeFrontend, regexp.MustCompile(`(?i)\bcomponent\b`)},
	{TypeFrontend, regexp.MustCompile(`(?i)\breact\b`)},
	{TypeML, regexp.MustCompile(`(?i)\bmachine\s*learning\b`)},
	{TypeML, regexp.MustCompile(`(?i)\bml\b`)},
	{TypeML, regexp.MustCompile(`(?i)\bllm\b`)},
	{TypeML, regexp.MustCompile(`(?i)\bmodel\b`)},
	{TypeIntegration, regexp.MustCompile(`(?i)\bintegration\b`)},
	{TypeIntegration, regexp.MustCompile(`(?i)\bend.to.end\b`)},
	{TypeIntegration, regexp.MustCompile(`(?i)\be2e\b`)},
	{TypePerformance, regexp.MustCompile(`(?i)\bperformance\b`)},
	{TypePerformance, regexp.MustCompile(`(?i)\boptimize\b`)},
	{TypePerformance, regexp.MustCompile(`(?i)\bprofile\b`)},
	{TypePerformance, regexp.MustCompile(`(?i)\bbenchmark\b`)},
	{TypeRefactor, regexp.MustCompile(`(?i)\brefactor\b`)},
	{TypeRefactor, regexp.MustCompile(`(?i)\bclean\s*up\b`)},
	{TypeRefactor, regexp.MustCompile(`(?i)\brestructure\b`)},
	{TypeReview, regexp.MustCompile(`(?i)\breview\b`)},
	{TypeReview, regexp.MustCompile(`(?i)\bpr\b`)},
	{TypeReview, regexp.MustCompile(`(?i)\bpull\s*request\b`)},
	{TypeBug, regexp.MustCompile(`(?i)\bbug\b`)},
	{TypeBug, regexp.MustCompile(`(?i)\bfix\b`)},
	{TypeBug, regexp.MustCompile(`(?i)\bbroken\b`)},
	{TypeBug, regexp.MustCompile(`(?i)\berror\b`)},
	{TypeBug, regexp.MustCompile(`(?i)\bissue\b`)},
	{TypeDocs, regexp.MustCompile(`(?i)\bdocs?\b`)},
	{TypeDocs, regexp.MustCompile(`(?i)\breadme\b`)},
	{TypeDocs, regexp.MustCompile(`(?i)\bdocstrings?\b`)},
	{TypeInfra, regexp.MustCompile(`(?i)\binfra(structure)?\b`)},
	{TypeInfra, regexp.MustCompile(`(?i)\bci\b`)},
	{TypeInfra, regexp.MustCompile(`(?i)\bdeploy\b`)},
	{TypeInfra, regexp.MustCompile(`(?i)\bpipeline\b`)},
	{TypeInfra, regexp.MustCompile(`(?i)\bdevops\b`)},
	{TypeFeature, regexp.MustCompile(`(?i)\bfeature\b`)},
	{TypeFeature, regexp.MustCompile(`(?i)\badd\b`)},
	{TypeFeature, regexp.MustCompile(`(?i)\bcreate\b`)},
	{TypeFeature, regexp.MustCompile(`(?i)\bimplement\b`)},
}

// agentSequences is the static per-type worker sequence table. Features and
// bugs get a test-first sequence; unclear routes nowhere and escalates.
var agentSequences = map[TaskType][]string{
	TypeFeature:      {"architect", "performance-engineer", "orchestrator"},
	TypeBug:          {"performance-engineer", "orchestrator", "reviewer"},
	TypeDocs:         {"architect"},
	TypeRefactor:     {"architect", "orchestrator", "reviewer"},
	TypeReview:       {"reviewer"},
	TypeInfra:        {"architect", "infrastructure-engineer", "reviewer"},
	TypeDesign:       {"designer"},
	TypeArchitecture: {"architect"},
	TypeBackend:      {"performance-engineer", "backend-engineer", "reviewer"},
	TypeFrontend:     {"performance-engineer", "frontend-engineer", "reviewer"},
	TypeML:           {"ml-engineer", "performance-engineer", "reviewer"},
	TypeIntegration:  {"integration-engineer", "reviewer"},
	TypePerformance:  {"performance-engineer", "orchestrator"},
	TypeUnclear:      {},
}

var priorities = map[TaskType]string{
	TypeFeature:      "medium",
	TypeBug:          "high",
	TypeDocs:         "low",
	TypeRefactor:     "medium",
	TypeReview:       "medium",
	TypeInfra:        "medium",
	TypeDesign:       "medium",
	TypeArchitecture: "high",
	TypeBackend:      "medium",
	TypeFrontend:     "medium",
	TypeML:           "medium",
	TypeIntegration:  "high",
	TypePerformance:  "medium",
	TypeUnclear:      "low",
}

// AgentSequence returns a copy of the static worker sequence for a type.
func AgentSequence(t TaskType) []string {
	seq := agentSequences[t]
	out := make([]string, len(seq))
	copy(out, seq)
	return out
}

// Priority returns the static priority for a type.
func Priority(t TaskType) string {
	if p, ok := priorities[t]; ok {
		return p
	}
	return "low"
}

var filePathPattern = regexp.MustCompile(`[\w./\-]+\.(?:go|py|js|ts|json|yaml|yml|md|txt|sh|cs)`)

// extractFiles pulls file paths mentioned in the task text.
func extractFiles(text string) []string {
	return filePathPattern.FindAllString(text, -1)
}
