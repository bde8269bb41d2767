package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Base is the immutable reference data behind the evaluators. It is built
// once by Parse, Load or Default and is safe for concurrent readers. Every
// accessor returns copies.
type Base struct {
	conditions  []Condition
	byName      map[string]int
	templates   []TreatmentTemplate
	byTemplate  map[string]int
	defaultPlan DefaultPlan
	rules       []ChatRule

	fallback         string
	greeting         string
	apology          string
	commonSymptoms   []string
	commonConditions []string
	quickQuestions   []string
}

// Default parses the knowledge base embedded in the binary.
func Default() (*Base, error) {
	return parse("embedded default.yaml", defaultDocument)
}

// Load reads and parses a knowledge base file.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return parse(path, data)
}

// Parse decodes a YAML knowledge base document and validates it.
func Parse(data []byte) (*Base, error) {
	return parse("document", data)
}

func parse(source string, data []byte) (*Base, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}

	normalizeDocument(&doc)
	if err := validate(&doc); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	return build(&doc), nil
}

// normalizeDocument rewrites symptoms and keywords into their comparison form
// and collapses duplicates inside each symptom set.
func normalizeDocument(doc *document) {
	for i := range doc.Conditions {
		c := &doc.Conditions[i]
		seen := make(map[string]bool, len(c.Symptoms))
		symptoms := make([]string, 0, len(c.Symptoms))
		for _, s := range c.Symptoms {
			// A blank entry survives once so validate can report it.
			n := Normalize(s)
			if seen[n] {
				continue
			}
			seen[n] = true
			symptoms = append(symptoms, n)
		}
		c.Symptoms = symptoms
	}
	for i := range doc.ChatRules {
		r := &doc.ChatRules[i]
		for j, k := range r.Keywords {
			r.Keywords[j] = NormalizeText(k)
		}
	}
}

func build(doc *document) *Base {
	b := &Base{
		conditions:       doc.Conditions,
		byName:           make(map[string]int, len(doc.Conditions)),
		templates:        doc.Treatments,
		byTemplate:       make(map[string]int, len(doc.Treatments)),
		defaultPlan:      doc.DefaultPlan,
		rules:            doc.ChatRules,
		fallback:         doc.Fallback,
		greeting:         doc.Greeting,
		apology:          doc.Apology,
		commonSymptoms:   doc.CommonSymptoms,
		commonConditions: doc.CommonConditions,
		quickQuestions:   doc.QuickQuestions,
	}
	for i, c := range b.conditions {
		b.byName[Normalize(c.Name)] = i
	}
	for i, t := range b.templates {
		b.byTemplate[Normalize(t.Condition)] = i
	}
	return b
}

// -- Conditions --

// Conditions returns every condition in definition order.
func (b *Base) Conditions() []Condition {
	out := make([]Condition, len(b.conditions))
	for i, c := range b.conditions {
		out[i] = cloneCondition(c)
	}
	return out
}

// Condition looks a condition up by name, ignoring case and surrounding
// whitespace.
func (b *Base) Condition(name string) (Condition, bool) {
	i, ok := b.byName[Normalize(name)]
	if !ok {
		return Condition{}, false
	}
	return cloneCondition(b.conditions[i]), true
}

// Len returns the number of conditions.
func (b *Base) Len() int {
	return len(b.conditions)
}

// -- Treatment templates --

// Template looks a treatment template up by condition name, ignoring case
// and surrounding whitespace.
func (b *Base) Template(condition string) (TreatmentTemplate, bool) {
	i, ok := b.byTemplate[Normalize(condition)]
	if !ok {
		return TreatmentTemplate{}, false
	}
	return cloneTemplate(b.templates[i]), true
}

// Templates returns every treatment template in definition order.
func (b *Base) Templates() []TreatmentTemplate {
	out := make([]TreatmentTemplate, len(b.templates))
	for i, t := range b.templates {
		out[i] = cloneTemplate(t)
	}
	return out
}

// DefaultPlan returns the generic plan text for unknown conditions.
func (b *Base) DefaultPlan() DefaultPlan {
	return DefaultPlan{
		Lifestyle: cloneStrings(b.defaultPlan.Lifestyle),
		FollowUp:  cloneStrings(b.defaultPlan.FollowUp),
		Warnings:  cloneStrings(b.defaultPlan.Warnings),
	}
}

// -- Chat --

// ChatRules returns the chat rules in definition order.
func (b *Base) ChatRules() []ChatRule {
	out := make([]ChatRule, len(b.rules))
	for i, r := range b.rules {
		out[i] = ChatRule{Keywords: cloneStrings(r.Keywords), Response: r.Response, Priority: r.Priority}
	}
	return out
}

// Fallback is the chat response used when no rule matches.
func (b *Base) Fallback() string { return b.fallback }

// Greeting is the assistant's opening message.
func (b *Base) Greeting() string { return b.greeting }

// Apology is shown when the host cannot produce a reply.
func (b *Base) Apology() string { return b.apology }

// QuickQuestions are suggested opening questions for a new chat.
func (b *Base) QuickQuestions() []string { return cloneStrings(b.quickQuestions) }

// -- Presentation fixtures --

// CommonSymptoms lists symptoms offered as one-click choices.
func (b *Base) CommonSymptoms() []string { return cloneStrings(b.commonSymptoms) }

// CommonConditions lists condition names offered as one-click choices.
func (b *Base) CommonConditions() []string { return cloneStrings(b.commonConditions) }

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneCondition(c Condition) Condition {
	return Condition{
		Name:            c.Name,
		Description:     c.Description,
		Symptoms:        cloneStrings(c.Symptoms),
		Recommendations: cloneStrings(c.Recommendations),
	}
}

func cloneTemplate(t TreatmentTemplate) TreatmentTemplate {
	var meds []Medication
	if t.Medications != nil {
		meds = make([]Medication, len(t.Medications))
		copy(meds, t.Medications)
	}
	return TreatmentTemplate{
		Condition:   t.Condition,
		Medications: meds,
		Lifestyle:   cloneStrings(t.Lifestyle),
		FollowUp:    cloneStrings(t.FollowUp),
		Warnings:    cloneStrings(t.Warnings),
	}
}
