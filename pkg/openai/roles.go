package openai

import (
	goopenai "github.com/sashabaranov/go-openai"
)

// Role is the speaker tag attached to a chat message.
type Role string

// Roles accepted by the chat completions endpoint.
const (
	RoleSystem    Role = goopenai.ChatMessageRoleSystem
	RoleUser      Role = goopenai.ChatMessageRoleUser
	RoleAssistant Role = goopenai.ChatMessageRoleAssistant
)

// Message is a single entry of a conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage builds a message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// AssignRoles returns the roles for n messages appended to a transcript that
// already holds historyLen messages.
//
// An empty transcript opens with a system message followed by alternating
// user/assistant turns. A non-empty one continues the exchange: when
// (historyLen-1) is even the next role is user, otherwise assistant.
func AssignRoles(historyLen, n int) []Role {
	if n <= 0 {
		return nil
	}
	roles := make([]Role, 0, n)

	assistantTurn := false
	if historyLen <= 0 {
		roles = append(roles, RoleSystem)
	} else {
		assistantTurn = (historyLen-1)%2 == 1
	}

	for len(roles) < n {
		if assistantTurn {
			roles = append(roles, RoleAssistant)
		} else {
			roles = append(roles, RoleUser)
		}
		assistantTurn = !assistantTurn
	}
	return roles
}
