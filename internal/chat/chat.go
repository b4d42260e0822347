// Package chat is the transport-neutral contract between the bot's handlers
// and the messaging platform: who is calling, what they sent, and how to answer.
package chat

import (
	"context"
	"strconv"
)

// User identifies the sender of an update.
type User struct {
	ID       int64
	Username string
}

// Handle is the user's stable name: the username when set, otherwise the numeric id.
func (u User) Handle() string {
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}

// Kind tells commands and button callbacks apart.
type Kind uint8

const (
	KindCommand Kind = iota + 1
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Update is one inbound event.
type Update struct {
	ID   int
	Kind Kind
	From User

	ChatID    int64
	MessageID int

	// Command and Args are set for KindCommand. Command has no leading slash.
	Command string
	Args    []string

	// CallbackID and Data are set for KindCallback. Data is opaque to the transport.
	CallbackID string
	Data       string
}

// Button is an inline affordance attached to a reply. Pressing it delivers a
// callback update carrying Data.
type Button struct {
	Text string
	Data string
}

// Responder answers the update it was created for.
type Responder interface {
	// Reply sends text to the chat the update came from.
	Reply(ctx context.Context, text string, buttons ...Button) error
	// Answer acknowledges a callback, optionally showing a short notice.
	Answer(ctx context.Context, notice string) error
}

// Handler serves one update. A returned error means the update failed and
// was not answered; the dispatcher logs it and moves on.
type Handler interface {
	ServeUpdate(ctx context.Context, w Responder, u *Update) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, w Responder, u *Update) error

func (f HandlerFunc) ServeUpdate(ctx context.Context, w Responder, u *Update) error {
	return f(ctx, w, u)
}
