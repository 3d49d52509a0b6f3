package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a chat message
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// ChatMessage is one turn of the conversation log. RelatedEntryIDs is set
// only on system messages announcing newly created entries and is the sole
// link between a message and the records it produced.
type ChatMessage struct {
	ID              string    `json:"id"`
	Role            Role      `json:"role"`
	Text            string    `json:"text"`
	Timestamp       time.Time `json:"timestamp"`
	RelatedEntryIDs []string  `json:"related_entry_ids,omitempty"`
	Revoked         bool      `json:"revoked,omitempty"`
}

// NewMessageID returns a fresh stable message id
func NewMessageID() string {
	return uuid.NewString()
}
