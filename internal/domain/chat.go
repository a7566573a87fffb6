package domain

import (
	"errors"
	"fmt"
	"time"
)

// ChatRole identifies the author of a transcript entry.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one immutable transcript entry. Error outcomes stay in the
// transcript as assistant-authored messages with IsError set, so failures are
// visible after the fact instead of living only in a transient status field.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	IsError   bool      `json:"is_error"`
	Timestamp time.Time `json:"timestamp"`
}

// Validation and terminal chat errors.
var (
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrRequestInFlight = errors.New("a chat request is already pending")
	ErrNoUserTurn      = errors.New("no user message remains after filtering")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrEmptyReply      = errors.New("model returned an empty response")
	ErrNoSuitableModel = errors.New("no suitable model")
)

// ModelUnavailableError marks a provider rejection that should advance the
// orchestrator to the next fallback candidate instead of failing the turn.
type ModelUnavailableError struct {
	Model   string
	Message string
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %s", e.Model, e.Message)
}

// IsModelUnavailable reports whether err (or anything it wraps) is a
// ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

// Conversation is an append-only ordered sequence of chat messages bounded
// to the most recent Limit entries. Insertion order is display order.
type Conversation struct {
	Limit    int
	messages []ChatMessage
}

// NewConversation builds a conversation bounded to limit entries.
func NewConversation(limit int) *Conversation {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	return &Conversation{Limit: limit}
}

// Append adds a message and trims to the bound.
func (c *Conversation) Append(msg ChatMessage) {
	c.messages = append(c.messages, msg)
	c.Trim()
}

// Trim drops everything but the suffix of the most recent Limit messages.
// Trimming never reorders and is idempotent once len <= Limit.
func (c *Conversation) Trim() {
	if len(c.messages) > c.Limit {
		c.messages = c.messages[len(c.messages)-c.Limit:]
	}
}

// Messages returns a copy of the retained transcript, oldest first.
func (c *Conversation) Messages() []ChatMessage {
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of retained messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Outbound builds the subsequence to send to the provider: the retained
// suffix minus any leading run of assistant messages (the API rejects
// histories that open with a model turn). Error-flagged entries are local
// annotations and are excluded. Returns ErrNoUserTurn when nothing sendable
// remains.
func (c *Conversation) Outbound() ([]ChatMessage, error) {
	filtered := make([]ChatMessage, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.IsError {
			continue
		}
		filtered = append(filtered, msg)
	}
	start := 0
	for start < len(filtered) && filtered[start].Role == RoleAssistant {
		start++
	}
	filtered = filtered[start:]
	if len(filtered) == 0 {
		return nil, ErrNoUserTurn
	}
	return filtered, nil
}
