package judge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ecohq/eco/internal/rubric"
)

// criterionScore is one validated score from one pass.
type criterionScore struct {
	score     int
	reasoning string
}

// parseCriterionScore extracts and validates the block for one criterion.
// It enforces the output contract: the block exists, reasoning is non-empty
// and precedes the score, and the score is an integer inside the scale.
func parseCriterionScore(reply string, c rubric.Criterion) (criterionScore, error) {
	blockRe := regexp.MustCompile(`(?is)###\s*` + regexp.QuoteMeta(c.Name) + `\s*\n(.*?)(?:\n###|\z)`)
	m := blockRe.FindStringSubmatch(reply)
	if m == nil {
		return criterionScore{}, fmt.Errorf("no block found for criterion %q", c.Name)
	}
	block := m[1]

	reasonIdx := indexOfPattern(block, `(?i)reasoning:`)
	scoreIdx := indexOfPattern(block, `(?i)score:`)
	if reasonIdx < 0 {
		return criterionScore{}, fmt.Errorf("criterion %q: reasoning is required before the score", c.Name)
	}
	if scoreIdx < 0 {
		return criterionScore{}, fmt.Errorf("criterion %q: no score found", c.Name)
	}
	if scoreIdx < reasonIdx {
		return criterionScore{}, fmt.Errorf("criterion %q: score appears before reasoning", c.Name)
	}

	reasoning := strings.TrimSpace(block[reasonIdx+len("reasoning:") : scoreIdx])
	if reasoning == "" {
		return criterionScore{}, fmt.Errorf("criterion %q: reasoning is empty", c.Name)
	}

	scoreRe := regexp.MustCompile(`(?i)score:\s*(-?[\d.]+)`)
	sm := scoreRe.FindStringSubmatch(block)
	if sm == nil {
		return criterionScore{}, fmt.Errorf("criterion %q: no score value found", c.Name)
	}
	score, err := parseIntegerScore(sm[1])
	if err != nil {
		return criterionScore{}, fmt.Errorf("criterion %q: %w", c.Name, err)
	}
	if !c.InRange(score) {
		return criterionScore{}, fmt.Errorf("criterion %q: score %d outside valid range [%d, %d]",
			c.Name, score, c.Min, c.Max)
	}
	return criterionScore{score: score, reasoning: reasoning}, nil
}

// parseIntegerScore accepts "7" and "7.0" but rejects fractional scores:
// the rubric scales are discrete.
func parseIntegerScore(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", s)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("score %q is not an integer; partial scores are not allowed", s)
	}
	return int(f), nil
}

func indexOfPattern(s, pattern string) int {
	loc := regexp.MustCompile(pattern).FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

var winnerPattern = regexp.MustCompile(`(?i)winner:\s*(A|B|tie)\b`)

// parseWinner extracts the declared winner, defaulting to tie when the
// reply is unclear.
func parseWinner(reply string) string {
	m := winnerPattern.FindStringSubmatch(reply)
	if m == nil {
		return WinnerTie
	}
	switch strings.ToUpper(m[1]) {
	case "A":
		return WinnerA
	case "B":
		return WinnerB
	default:
		return WinnerTie
	}
}

var safetyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)safety:\s*concern`),
	regexp.MustCompile(`(?i)safety\s+concern`),
	regexp.MustCompile(`(?i)potentially\s+harmful`),
	regexp.MustCompile(`(?i)safety\s+issue`),
}

// detectSafetyFlag scans raw judge output for safety-relevant content. Any
// hit flags the report unconditionally, regardless of computed scores.
func detectSafetyFlag(reply string) bool {
	for _, p := range safetyPatterns {
		if p.MatchString(reply) {
			return true
		}
	}
	return false
}
