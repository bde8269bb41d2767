package chat

import (
	"strings"

	"github.com/healthai/healthai/internal/knowledge"
)

// Responder answers free-text questions with canned responses. A rule
// matches when any of its keywords appears in the normalized message; the
// highest priority wins and ties go to the rule defined first.
type Responder struct {
	rules          []knowledge.ChatRule
	fallback       string
	greeting       string
	apology        string
	quickQuestions []string
}

// NewResponder creates a responder from the chat rules and texts of kb.
func NewResponder(kb *knowledge.Base) *Responder {
	return &Responder{
		rules:          kb.ChatRules(),
		fallback:       kb.Fallback(),
		greeting:       kb.Greeting(),
		apology:        kb.Apology(),
		quickQuestions: kb.QuickQuestions(),
	}
}

// Respond returns the response text for message.
func (r *Responder) Respond(message string) string {
	return r.Evaluate(message).Text
}

// Evaluate selects the rule for message and reports which one fired.
func (r *Responder) Evaluate(message string) Reply {
	text := knowledge.NormalizeText(message)
	best, keyword := -1, ""
	if text != "" {
		for i, rule := range r.rules {
			if best >= 0 && rule.Priority <= r.rules[best].Priority {
				continue
			}
			if k, ok := firstKeyword(text, rule.Keywords); ok {
				best, keyword = i, k
			}
		}
	}
	if best < 0 {
		return Reply{Text: r.fallback, Rule: -1}
	}
	return Reply{Text: r.rules[best].Response, Rule: best, Keyword: keyword}
}

func firstKeyword(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}

// Session returns the greeting and suggested questions for a new chat.
func (r *Responder) Session() Session {
	greeting := r.greeting
	if greeting == "" {
		greeting = r.fallback
	}
	return Session{
		Greeting:       NewAssistantMessage(greeting),
		QuickQuestions: append([]string{}, r.quickQuestions...),
	}
}

// Apology is the reply hosts show when they fail to produce an answer.
func (r *Responder) Apology() string {
	if r.apology == "" {
		return r.fallback
	}
	return r.apology
}
