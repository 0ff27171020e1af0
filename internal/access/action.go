package access

import (
	"fmt"
	"strings"
)

// Action is the administrative change applied to an identity.
type Action int

const (
	Grant Action = iota + 1
	Revoke
)

func (a Action) String() string {
	switch a {
	case Grant:
		return "grant"
	case Revoke:
		return "revoke"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction matches a command token case-insensitively.
func ParseAction(token string) (Action, error) {
	switch strings.ToLower(token) {
	case "grant":
		return Grant, nil
	case "revoke":
		return Revoke, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCommand, token)
	}
}
