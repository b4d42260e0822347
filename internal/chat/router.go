package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Router dispatches commands by name and every callback to a single handler.
// Updates nothing is registered for are ignored.
type Router struct {
	commands map[string]Handler
	callback Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{commands: make(map[string]Handler)}
}

// Handle registers h for command (without the leading slash). Command names
// are case-insensitive. Registering a name twice panics.
func (r *Router) Handle(command string, h Handler) {
	name := normalizeCommand(command)
	if name == "" {
		panic("chat: empty command name")
	}
	if h == nil {
		panic("chat: nil handler for /" + name)
	}
	if _, exists := r.commands[name]; exists {
		panic("chat: multiple registrations for /" + name)
	}
	r.commands[name] = h
}

// HandleFunc registers f for command.
func (r *Router) HandleFunc(command string, f func(ctx context.Context, w Responder, u *Update) error) {
	r.Handle(command, HandlerFunc(f))
}

// HandleCallback registers the handler for button callbacks, replacing any previous one.
func (r *Router) HandleCallback(h Handler) {
	r.callback = h
}

// Commands returns the registered command names, sorted.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Router) ServeUpdate(ctx context.Context, w Responder, u *Update) error {
	switch u.Kind {
	case KindCommand:
		h, ok := r.commands[normalizeCommand(u.Command)]
		if !ok {
			return nil
		}
		return h.ServeUpdate(ctx, w, u)

	case KindCallback:
		if r.callback == nil {
			return nil
		}
		return r.callback.ServeUpdate(ctx, w, u)

	default:
		return fmt.Errorf("unsupported update kind %d", u.Kind)
	}
}

func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
}
