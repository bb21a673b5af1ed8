package models

import (
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

type Role string

const (
	User      Role = openai.ChatMessageRoleUser
	Assistant Role = openai.ChatMessageRoleAssistant
)

// GreetingID is the fixed identifier of the opening assistant turn.
const GreetingID = "init"

// Turn is one message in the conversation. Turns are never mutated after creation.
type Turn struct {
	ID      string
	Role    Role
	Content string
	// Notice marks assistant turns produced by the client itself (connection
	// errors, not-ready explanations). They are shown but never sent back.
	Notice bool
}

func NewUserTurn(content string) Turn {
	return Turn{ID: uuid.NewString(), Role: User, Content: content}
}

func NewAssistantTurn(content string) Turn {
	return Turn{ID: uuid.NewString(), Role: Assistant, Content: content}
}

func NewNoticeTurn(content string) Turn {
	return Turn{ID: uuid.NewString(), Role: Assistant, Content: content, Notice: true}
}

func Greeting(content string) Turn {
	return Turn{ID: GreetingID, Role: Assistant, Content: content}
}
