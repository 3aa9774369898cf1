package bot

import (
	"context"
	"strings"
)

// HandlerFunc handles one command. message is the original (trimmed) text;
// an empty return means no chat response.
type HandlerFunc func(ctx context.Context, message, username string) string

type prefixEntry struct {
	prefix  string
	handler HandlerFunc
}

// Router maps inbound chat text to command handlers. Messages are normalized
// by trim+lowercase for matching. Exact matches are tried first (O(1) table),
// then registered prefixes in registration order, first match wins.
//
// Contract: callers must register longer prefixes before shorter ones sharing
// a stem (e.g. "!trivia auto smite" before "!trivia"), otherwise the general
// prefix shadows the specific command. Exact commands are immune since they
// are checked before any prefix.
type Router struct {
	exact    map[string]HandlerFunc
	prefixes []prefixEntry
}

func NewRouter() *Router {
	return &Router{exact: make(map[string]HandlerFunc)}
}

// RegisterExact registers a handler for an exact (case-insensitive) command.
func (r *Router) RegisterExact(command string, h HandlerFunc) {
	r.exact[strings.ToLower(command)] = h
}

// RegisterPrefix registers a handler for commands that take arguments.
// Prefixes are matched in registration order.
func (r *Router) RegisterPrefix(prefix string, h HandlerFunc) {
	r.prefixes = append(r.prefixes, prefixEntry{prefix: strings.ToLower(prefix), handler: h})
}

// Dispatch routes a message to its handler. The second return reports whether
// any command matched.
func (r *Router) Dispatch(ctx context.Context, message, username string) (string, bool) {
	message = strings.TrimSpace(message)
	lower := strings.ToLower(message)

	if h, ok := r.exact[lower]; ok {
		return h(ctx, message, username), true
	}
	for _, e := range r.prefixes {
		if strings.HasPrefix(lower, e.prefix) {
			return e.handler(ctx, message, username), true
		}
	}
	return "", false
}
