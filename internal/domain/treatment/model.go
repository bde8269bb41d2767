package treatment

import "github.com/healthai/healthai/internal/knowledge"

// Source records where a plan came from.
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceDefault       Source = "default"
)

// Disclaimer accompanies every generated plan.
const Disclaimer = "This treatment plan is a general template for discussion with a qualified " +
	"healthcare professional. Do not start, stop or change any medication without medical advice."

// Plan is a generated treatment plan. The embedded template fields are
// flattened in JSON.
type Plan struct {
	knowledge.TreatmentTemplate
	Source Source `json:"source"`
}
