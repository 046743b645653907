package rubric

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinsValidate(t *testing.T) {
	for name, r := range builtins {
		if err := r.Validate(); err != nil {
			t.Errorf("built-in %q is invalid: %v", name, err)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	valid := Criterion{Name: "C", Description: "d", Min: 0, Max: 2, Weight: 1.0}
	tests := []struct {
		name string
		r    Rubric
	}{
		{"empty name", Rubric{Criteria: []Criterion{valid}}},
		{"no criteria", Rubric{Name: "r"}},
		{"empty criterion name", Rubric{Name: "r", Criteria: []Criterion{{Name: " ", Min: 0, Max: 2, Weight: 1}}}},
		{"duplicate criterion", Rubric{Name: "r", Criteria: []Criterion{valid, valid}}},
		{"inverted scale", Rubric{Name: "r", Criteria: []Criterion{{Name: "C", Min: 2, Max: 2, Weight: 1}}}},
		{"zero weight", Rubric{Name: "r", Criteria: []Criterion{{Name: "C", Min: 0, Max: 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(); err == nil {
				t.Error("Validate accepted an invalid rubric")
			}
		})
	}
}

func TestLoadFileDefaultsWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `name: custom
criteria:
  - name: Clarity
    description: reads well
    min: 0
    max: 5
  - name: Depth
    description: goes deep
    min: 0
    max: 5
    weight: 2.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if r.Criteria[0].Weight != 1.0 {
		t.Errorf("omitted weight = %.1f, want 1.0", r.Criteria[0].Weight)
	}
	if r.Criteria[1].Weight != 2.5 {
		t.Errorf("explicit weight = %.1f, want 2.5", r.Criteria[1].Weight)
	}
}

func TestGetBuiltinAndPathAndUnknown(t *testing.T) {
	if _, err := Get("code-review"); err != nil {
		t.Errorf("Get(code-review) failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "r.yaml")
	content := "name: r\ncriteria:\n  - name: C\n    description: d\n    min: 0\n    max: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Get(path); err != nil {
		t.Errorf("Get(%s) failed: %v", path, err)
	}

	if _, err := Get("no-such-rubric"); err == nil {
		t.Error("Get accepted an unknown rubric name")
	}
}

func TestCriterionHelpers(t *testing.T) {
	c := Criterion{Name: "C", Min: 0, Max: 2, Weight: 2.0}
	if c.MaxScore() != 4.0 {
		t.Errorf("MaxScore = %.1f, want 4.0", c.MaxScore())
	}
	for score, want := range map[int]bool{-1: false, 0: true, 2: true, 3: false} {
		if got := c.InRange(score); got != want {
			t.Errorf("InRange(%d) = %t, want %t", score, got, want)
		}
	}
}
