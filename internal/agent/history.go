package agent

import (
	"strings"

	"github.com/Roeeht/Agent-Messiah/internal/session"
)

// RawTurn accepts both history shapes seen at the API boundary:
// {"role","content"} and the legacy {"user","agent"} pair.
type RawTurn struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	User    string `json:"user,omitempty"`
	Agent   string `json:"agent,omitempty"`
}

// NormalizeHistory converts raw entries into role/content turns. A legacy
// pair expands into a user turn followed by an assistant turn. Entries
// with no usable text are dropped.
func NormalizeHistory(raw []RawTurn) []session.Turn {
	out := make([]session.Turn, 0, len(raw))
	for _, r := range raw {
		if r.Role != "" || r.Content != "" {
			if role, ok := parseRole(r.Role); ok && strings.TrimSpace(r.Content) != "" {
				out = append(out, session.Turn{Role: role, Content: r.Content})
			}
			continue
		}
		if strings.TrimSpace(r.User) != "" {
			out = append(out, session.Turn{Role: session.RoleUser, Content: r.User})
		}
		if strings.TrimSpace(r.Agent) != "" {
			out = append(out, session.Turn{Role: session.RoleAssistant, Content: r.Agent})
		}
	}
	return out
}

func parseRole(s string) (session.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "caller", "human":
		return session.RoleUser, true
	case "assistant", "agent", "ai":
		return session.RoleAssistant, true
	default:
		return "", false
	}
}
