package knowledge

// Condition is a named clinical condition with the symptom set used for
// matching and the recommendations shown alongside a prediction.
type Condition struct {
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	Symptoms        []string `yaml:"symptoms" json:"symptoms"`
	Recommendations []string `yaml:"recommendations" json:"recommendations"`
}

// Medication is a single line of a treatment template.
type Medication struct {
	Name      string `yaml:"name" json:"name"`
	Dosage    string `yaml:"dosage" json:"dosage"`
	Frequency string `yaml:"frequency" json:"frequency"`
	Duration  string `yaml:"duration" json:"duration"`
}

// TreatmentTemplate is the structured plan defined for one condition name.
type TreatmentTemplate struct {
	Condition   string       `yaml:"condition" json:"condition"`
	Medications []Medication `yaml:"medications" json:"medications"`
	Lifestyle   []string     `yaml:"lifestyle" json:"lifestyle"`
	FollowUp    []string     `yaml:"follow_up" json:"follow_up"`
	Warnings    []string     `yaml:"warnings" json:"warnings"`
}

// DefaultPlan holds the generic text used when no template exists for a
// requested condition.
type DefaultPlan struct {
	Lifestyle []string `yaml:"lifestyle" json:"lifestyle"`
	FollowUp  []string `yaml:"follow_up" json:"follow_up"`
	Warnings  []string `yaml:"warnings" json:"warnings"`
}

// ChatRule maps keywords found in a free-text message to a canned response.
// Higher priority wins; equal priorities resolve to the earlier rule.
type ChatRule struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Response string   `yaml:"response" json:"response"`
	Priority int      `yaml:"priority" json:"priority"`
}

// document is the on-disk layout of a knowledge base file.
type document struct {
	Fallback         string              `yaml:"fallback"`
	Greeting         string              `yaml:"greeting"`
	Apology          string              `yaml:"apology"`
	CommonSymptoms   []string            `yaml:"common_symptoms"`
	CommonConditions []string            `yaml:"common_conditions"`
	QuickQuestions   []string            `yaml:"quick_questions"`
	Conditions       []Condition         `yaml:"conditions"`
	Treatments       []TreatmentTemplate `yaml:"treatments"`
	DefaultPlan      DefaultPlan         `yaml:"default_plan"`
	ChatRules        []ChatRule          `yaml:"chat_rules"`
}
