package prediction

import (
	"errors"
	"sort"
	"strings"

	"github.com/healthai/healthai/internal/knowledge"
)

// ErrNoSymptoms is returned when no usable symptom remains after
// normalization.
var ErrNoSymptoms = errors.New("at least one symptom is required")

// Matcher ranks knowledge base conditions against reported symptoms. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	conditions []knowledge.Condition
}

// NewMatcher creates a matcher over the conditions of kb.
func NewMatcher(kb *knowledge.Base) *Matcher {
	return &Matcher{conditions: kb.Conditions()}
}

// NormalizeSymptoms folds, trims and deduplicates symptoms, dropping blanks.
// Order of first appearance is kept.
func NormalizeSymptoms(symptoms []string) []string {
	seen := make(map[string]bool, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		n := knowledge.Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Match scores every condition that shares at least one symptom with the
// input and returns them by likelihood descending, then name ascending.
//
// A condition symptom is covered when a reported symptom equals it or
// contains it ("severe headache" covers "headache"). The likelihood blends
// the covered share of the condition's symptoms (70%) with the share of
// reported symptoms the condition explains (30%).
func (m *Matcher) Match(symptoms []string) ([]ScoredCondition, error) {
	reported := NormalizeSymptoms(symptoms)
	if len(reported) == 0 {
		return nil, ErrNoSymptoms
	}

	results := make([]ScoredCondition, 0, len(m.conditions))
	for _, c := range m.conditions {
		matched, explained := overlap(c.Symptoms, reported)
		if len(matched) == 0 {
			continue
		}
		score := likelihood(len(matched), len(c.Symptoms), explained, len(reported))
		results = append(results, ScoredCondition{
			Condition:       c.Name,
			Description:     c.Description,
			Likelihood:      score,
			Band:            BandFor(score),
			MatchedSymptoms: matched,
			Recommendations: append([]string(nil), c.Recommendations...),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Likelihood != results[j].Likelihood {
			return results[i].Likelihood > results[j].Likelihood
		}
		return results[i].Condition < results[j].Condition
	})
	return results, nil
}

// overlap returns the condition symptoms covered by the report, in
// condition order, and how many reported symptoms cover at least one of
// them.
func overlap(conditionSymptoms, reported []string) (matched []string, explained int) {
	hit := make([]bool, len(reported))
	for _, s := range conditionSymptoms {
		covered := false
		for i, r := range reported {
			if r == s || strings.Contains(r, s) {
				covered = true
				hit[i] = true
			}
		}
		if covered {
			matched = append(matched, s)
		}
	}
	for _, h := range hit {
		if h {
			explained++
		}
	}
	return matched, explained
}

// likelihood computes round(100 * (0.7*covered/total + 0.3*explained/reported))
// in integer arithmetic, rounding half up, clamped to [0,100].
func likelihood(covered, total, explained, reported int) int {
	if total == 0 || reported == 0 {
		return 0
	}
	num := 70*covered*reported + 30*explained*total
	den := total * reported
	score := (2*num + den) / (2 * den)
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
