package rubric

import "sort"

// CodeReview scores code submissions on five 0-2 criteria for a maximum
// total of 10.
var CodeReview = Rubric{
	Name:    "code-review",
	Version: "1",
	Criteria: []Criterion{
		{
			Name: "Correctness",
			Description: "The code correctly implements the required functionality. " +
				"Logic is sound, edge cases are handled, and the code produces " +
				"expected outputs for valid inputs.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Completeness",
			Description: "The implementation addresses all stated requirements. " +
				"No required features are missing, and the solution is fully " +
				"functional without placeholder or incomplete sections.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Code Quality",
			Description: "The code follows best practices for readability and maintainability. " +
				"Names are descriptive, functions are appropriately sized, " +
				"and the code structure is clear and logical.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Security",
			Description: "The code avoids common security vulnerabilities. " +
				"Inputs are validated, sensitive data is protected, " +
				"and there are no injection risks or unsafe operations.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Test Quality",
			Description: "Tests are comprehensive, covering happy paths and edge cases. " +
				"Test code is readable, tests are independent, and assertions " +
				"are meaningful and specific.",
			Min: 0, Max: 2, Weight: 1.0,
		},
	},
}

// TestQuality scores test suites on their own.
var TestQuality = Rubric{
	Name:    "test-quality",
	Version: "1",
	Criteria: []Criterion{
		{
			Name: "Coverage",
			Description: "Tests exercise the happy path, edge cases, and failure modes " +
				"of the code under test.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Independence",
			Description: "Tests do not depend on each other or on shared mutable state; " +
				"any single test can run alone.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Assertion Quality",
			Description: "Assertions are specific and meaningful, checking behavior " +
				"rather than implementation detail.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Readability",
			Description: "Test names state intent, setup is minimal, and a failing test " +
				"points directly at the broken behavior.",
			Min: 0, Max: 2, Weight: 1.0,
		},
		{
			Name: "Determinism",
			Description: "Tests are free of timing, ordering, and environment dependence.",
			Min: 0, Max: 2, Weight: 1.0,
		},
	},
}

var builtins = map[string]Rubric{
	CodeReview.Name:  CodeReview,
	TestQuality.Name: TestQuality,
}

func builtinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
