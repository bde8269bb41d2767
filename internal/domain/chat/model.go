package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one line of a conversation as shown to the user. The responder
// never stores messages; hosts build them around each reply.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage builds a message authored by the user.
func NewUserMessage(content string) Message {
	return newMessage(RoleUser, content)
}

// NewAssistantMessage builds a message authored by the assistant.
func NewAssistantMessage(content string) Message {
	return newMessage(RoleAssistant, content)
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Session is what a client needs to open a conversation.
type Session struct {
	Greeting       Message  `json:"greeting"`
	QuickQuestions []string `json:"quick_questions"`
}

// Reply is the outcome of evaluating one message against the chat rules.
type Reply struct {
	Text string
	// Rule is the index of the selected rule in definition order, or -1 when
	// the fallback was used.
	Rule    int
	Keyword string
}

// Matched reports whether a rule, rather than the fallback, produced the
// reply.
func (r Reply) Matched() bool { return r.Rule >= 0 }
