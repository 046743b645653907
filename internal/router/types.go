// Package router maps free-text task descriptions and structural signals to
// deterministic agent sequences. Deterministic matching runs first; the LLM
// classifier is a confidence-gated fallback, never the primary path.
package router

import "time"

// TaskType is the closed set of task categories.
type TaskType string

const (
	TypeFeature      TaskType = "feature"
	TypeBug          TaskType = "bug"
	TypeDocs         TaskType = "docs"
	TypeRefactor     TaskType = "refactor"
	TypeReview       TaskType = "review"
	TypeInfra        TaskType = "infra"
	TypeDesign       TaskType = "design"
	TypeArchitecture TaskType = "architecture"
	TypeBackend      TaskType = "backend"
	TypeFrontend     TaskType = "frontend"
	TypeML           TaskType = "ml"
	TypeIntegration  TaskType = "integration"
	TypePerformance  TaskType = "performance"
	TypeUnclear      TaskType = "unclear"
)

// ValidTaskType reports whether s is a member of the closed enum.
func ValidTaskType(s string) bool {
	switch TaskType(s) {
	case TypeFeature, TypeBug, TypeDocs, TypeRefactor, TypeReview, TypeInfra,
		TypeDesign, TypeArchitecture, TypeBackend, TypeFrontend, TypeML,
		TypeIntegration, TypePerformance, TypeUnclear:
		return true
	}
	return false
}

// Signals are the structural inputs evaluated before any text matching.
type Signals struct {
	Labels []string `json:"labels,omitempty"`
	Event  string   `json:"event,omitempty"`
}

// RoutingDecision is the router's write-once output for one task.
type RoutingDecision struct {
	TaskType      TaskType  `json:"taskType"`
	AgentSequence []string  `json:"agentSequence"`
	Priority      string    `json:"priority"`
	Confidence    int       `json:"confidence"` // 0-100
	MatchedSignal string    `json:"matchedSignal"`
	Escalation    string    `json:"escalation,omitempty"`
	Files         []string  `json:"files,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
