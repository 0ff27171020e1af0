package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		token string
		want  Action
	}{
		{"grant", Grant},
		{"GRANT", Grant},
		{"Grant", Grant},
		{"revoke", Revoke},
		{"ReVoKe", Revoke},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.token)
		require.NoError(t, err, tt.token)
		assert.Equal(t, tt.want, got, tt.token)
	}
}

func TestParseAction_Invalid(t *testing.T) {
	for _, token := range []string{"", "delete", "grant ", "grants", "re-voke", "list"} {
		_, err := ParseAction(token)
		assert.True(t, errors.Is(err, ErrInvalidCommand), "ParseAction(%q) = %v", token, err)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "grant", Grant.String())
	assert.Equal(t, "revoke", Revoke.String())
	assert.Equal(t, "Action(0)", Action(0).String())
}
