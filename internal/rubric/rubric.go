// Package rubric defines evaluation criteria. Rubric content is versioned
// configuration, not code: built-ins ship with the binary and user rubrics
// load from YAML.
package rubric

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Criterion is a single evaluation criterion with a discrete integer scale.
type Criterion struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Min         int     `yaml:"min" json:"min"`
	Max         int     `yaml:"max" json:"max"`
	Weight      float64 `yaml:"weight" json:"weight"`
}

// MaxScore is the criterion's weighted ceiling.
func (c Criterion) MaxScore() float64 {
	return float64(c.Max) * c.Weight
}

// InRange reports whether score is within the declared scale.
func (c Criterion) InRange(score int) bool {
	return score >= c.Min && score <= c.Max
}

// Rubric is a named, ordered list of criteria.
type Rubric struct {
	Name     string      `yaml:"name" json:"name"`
	Version  string      `yaml:"version,omitempty" json:"version,omitempty"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

// Validate checks structural invariants shared by built-in and loaded
// rubrics.
func (r Rubric) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rubric name is empty")
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric %q has no criteria", r.Name)
	}
	seen := map[string]bool{}
	for i, c := range r.Criteria {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("rubric %q: criterion %d has an empty name", r.Name, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("rubric %q: duplicate criterion %q", r.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Min >= c.Max {
			return fmt.Errorf("rubric %q: criterion %q scale [%d,%d] is not increasing", r.Name, c.Name, c.Min, c.Max)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("rubric %q: criterion %q weight must be positive", r.Name, c.Name)
		}
	}
	return nil
}

// LoadFile reads and validates a YAML rubric file.
func LoadFile(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("failed to read rubric file: %w", err)
	}
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("failed to parse rubric file: %w", err)
	}
	for i := range r.Criteria {
		if r.Criteria[i].Weight == 0 {
			r.Criteria[i].Weight = 1.0
		}
	}
	if err := r.Validate(); err != nil {
		return Rubric{}, err
	}
	return r, nil
}

// Get resolves a rubric by built-in name, falling back to treating the
// argument as a file path.
func Get(nameOrPath string) (Rubric, error) {
	if r, ok := builtins[nameOrPath]; ok {
		return r, nil
	}
	if _, err := os.Stat(nameOrPath); err == nil {
		return LoadFile(nameOrPath)
	}
	return Rubric{}, fmt.Errorf("unknown rubric %q (built-ins: %s)", nameOrPath, strings.Join(builtinNames(), ", "))
}
