// Package completion is the boundary with the external text-completion
// service. The engine must keep working (degraded) when the service is
// unavailable, so every caller has a fallback path.
package completion

import (
	"context"
	"strings"
)

// Role of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    Role
	Content string
}

// Client sends a conversation to the text-completion service and returns
// the completion text.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, msgs []Message) (string, error)
}

// StripFences removes markdown code fences (```json ... ```) the service
// tends to wrap structured answers in.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
