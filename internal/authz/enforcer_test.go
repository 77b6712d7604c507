package authz

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPolicy(t *testing.T) {
	e, err := NewEnforcer("")
	require.NoError(t, err)

	tests := []struct {
		role, path, action string
		want               bool
	}{
		{RoleLearner, "/me/progress", ActionRead, true},
		{RoleLearner, "/me/decks/d1", ActionDelete, true},
		{RoleLearner, "/generate/story", ActionWrite, false},
		{RoleLearner, "/admin/migrations/media", ActionWrite, false},
		{RoleAdmin, "/generate/story", ActionWrite, true},
		{RoleAdmin, "/generate/status/j1", ActionRead, true},
		{RoleAdmin, "/admin/migrations/media", ActionWrite, true},
		{RoleAdmin, "/me/vocabulary", ActionWrite, true},
		{"", "/me/progress", ActionRead, false},
		{"guest", "/me/progress", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+tt.path+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.path, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(path, []byte("p, editor, /generate/*, write\n"), 0o600))

	e, err := NewEnforcer(path)
	require.NoError(t, err)

	ok, err := e.Enforce("editor", "/generate/story", ActionWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Enforce(RoleAdmin, "/generate/story", ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingPolicyFile(t *testing.T) {
	_, err := NewEnforcer(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionRead, ActionFor(http.MethodGet))
	assert.Equal(t, ActionRead, ActionFor(http.MethodHead))
	assert.Equal(t, ActionWrite, ActionFor(http.MethodPost))
	assert.Equal(t, ActionWrite, ActionFor(http.MethodPatch))
	assert.Equal(t, ActionDelete, ActionFor(http.MethodDelete))
}
