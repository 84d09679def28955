package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", "lucky-spin")

	token, err := m.IssueToken("sess-1", "0712345678", "Amina", "user", time.Hour)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "0712345678", claims.Phone)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "lucky-spin", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", "lucky-spin").IssueToken("s", "p", "n", "user", time.Hour)
	require.NoError(t, err)

	_, err = NewManager("secret-b", "lucky-spin").Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", "lucky-spin")
	token, err := m.IssueToken("s", "p", "n", "user", -time.Minute)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.Error(t, err)
}
