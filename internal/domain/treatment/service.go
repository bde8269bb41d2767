package treatment

import (
	"github.com/healthai/healthai/internal/knowledge"
)

// Generator produces treatment plans from the knowledge base. It never
// fails: unknown conditions get the generic default plan.
type Generator struct {
	kb *knowledge.Base
}

// NewGenerator creates a plan generator backed by kb.
func NewGenerator(kb *knowledge.Base) *Generator {
	return &Generator{kb: kb}
}

// Generate returns the template for condition, matched case-insensitively
// after trimming. Without a template the default plan is returned with
// Condition set to the caller's input exactly as given and no medications.
func (g *Generator) Generate(condition string) Plan {
	if tmpl, ok := g.kb.Template(condition); ok {
		ensureSlices(&tmpl)
		return Plan{TreatmentTemplate: tmpl, Source: SourceKnowledgeBase}
	}

	dp := g.kb.DefaultPlan()
	tmpl := knowledge.TreatmentTemplate{
		Condition:   condition,
		Medications: []knowledge.Medication{},
		Lifestyle:   dp.Lifestyle,
		FollowUp:    dp.FollowUp,
		Warnings:    dp.Warnings,
	}
	ensureSlices(&tmpl)
	return Plan{TreatmentTemplate: tmpl, Source: SourceDefault}
}

// ensureSlices replaces nil lists so they encode as [] rather than null.
func ensureSlices(t *knowledge.TreatmentTemplate) {
	if t.Medications == nil {
		t.Medications = []knowledge.Medication{}
	}
	if t.Lifestyle == nil {
		t.Lifestyle = []string{}
	}
	if t.FollowUp == nil {
		t.FollowUp = []string{}
	}
	if t.Warnings == nil {
		t.Warnings = []string{}
	}
}
