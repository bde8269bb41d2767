package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Problem classes reported inside a ConfigError. Use errors.Is to test for
// them.
var (
	ErrNoConditions       = errors.New("no conditions defined")
	ErrBlankConditionName = errors.New("condition name is blank")
	ErrDuplicateCondition = errors.New("duplicate condition name")
	ErrEmptySymptomSet    = errors.New("condition has no symptoms")
	ErrBlankSymptom       = errors.New("condition has a blank symptom")
	ErrBlankTemplateKey   = errors.New("treatment template has no condition")
	ErrDuplicateTemplate  = errors.New("duplicate treatment template")
	ErrIncompleteDefault  = errors.New("default plan needs lifestyle, follow_up and warnings")
	ErrMalformedChatRule  = errors.New("malformed chat rule")
	ErrBlankFallback      = errors.New("chat fallback is blank")
)

// ConfigError reports a knowledge base that cannot be used. It is raised at
// load time only; a loaded Base never produces one.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid knowledge base %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Problems lists each individual validation failure.
func (e *ConfigError) Problems() []error {
	return multierr.Errors(e.Err)
}

func validate(doc *document) error {
	var errs error

	if len(doc.Conditions) == 0 {
		errs = multierr.Append(errs, ErrNoConditions)
	}
	names := make(map[string]int, len(doc.Conditions))
	for i, c := range doc.Conditions {
		key := Normalize(c.Name)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: conditions[%d]", ErrBlankConditionName, i))
			continue
		}
		if prev, ok := names[key]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q at conditions[%d] and conditions[%d]", ErrDuplicateCondition, c.Name, prev, i))
		} else {
			names[key] = i
		}
		if len(c.Symptoms) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrEmptySymptomSet, c.Name))
		}
		for _, s := range c.Symptoms {
			if s == "" {
				errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrBlankSymptom, c.Name))
				break
			}
		}
	}

	keys := make(map[string]int, len(doc.Treatments))
	for i, t := range doc.Treatments {
		key := Normalize(t.Condition)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: treatments[%d]", ErrBlankTemplateKey, i))
			continue
		}
		if prev, ok := keys[key]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q at treatments[%d] and treatments[%d]", ErrDuplicateTemplate, t.Condition, prev, i))
			continue
		}
		keys[key] = i
	}

	dp := doc.DefaultPlan
	if len(dp.Lifestyle) == 0 || len(dp.FollowUp) == 0 || len(dp.Warnings) == 0 {
		errs = multierr.Append(errs, ErrIncompleteDefault)
	}

	for i, r := range doc.ChatRules {
		if len(r.Keywords) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: chat_rules[%d] has no keywords", ErrMalformedChatRule, i))
		}
		for _, k := range r.Keywords {
			if k == "" {
				errs = multierr.Append(errs, fmt.Errorf("%w: chat_rules[%d] has a blank keyword", ErrMalformedChatRule, i))
				break
			}
		}
		if strings.TrimSpace(r.Response) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: chat_rules[%d] has no response", ErrMalformedChatRule, i))
		}
	}
	if strings.TrimSpace(doc.Fallback) == "" {
		errs = multierr.Append(errs, ErrBlankFallback)
	}

	return errs
}
