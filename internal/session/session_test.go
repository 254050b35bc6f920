package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/memstore"
)

func newTestManager(t *testing.T) (*Manager, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewManager(store, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, zerolog.Nop()), store
}

func TestManager_SignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, ok := m.Current()
	assert.False(t, ok)

	id, err := m.SignUp(ctx, "Alice@X.io", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", id.Email)
	assert.NotEmpty(t, m.Token())

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, id, current)

	_, err = m.SignUp(ctx, "alice@x.io", "another1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	m.Logout()
	_, ok = m.Current()
	assert.False(t, ok)
	assert.Empty(t, m.Token())

	_, err = m.Login(ctx, "alice@x.io", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Login(ctx, "nobody@x.io", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	again, err := m.Login(ctx, "ALICE@x.io", "secret123")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestManager_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, err := m.SignUp(ctx, "not-an-email", "secret123")
	assert.Error(t, err)
	_, err = m.SignUp(ctx, "bob@x.io", "123")
	assert.Error(t, err)
}

func TestManager_ResumeAndValidate(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	id, err := m.SignUp(ctx, "carol@x.io", "secret123")
	require.NoError(t, err)
	token := m.Token()

	validated, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, validated)

	other := NewManager(store, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, zerolog.Nop())
	resumed, err := other.Resume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, resumed)

	wrongKey := NewManager(store, config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour}, zerolog.Nop())
	_, err = wrongKey.Resume(ctx, token)
	assert.Error(t, err)
}

func TestTokens_Expiry(t *testing.T) {
	tokens := NewTokens("k", time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	token, err := tokens.Issue(commonIdentity("u1"))
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Validate(token)
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	_, ok := NewStatic(commonIdentity("")).Current()
	assert.False(t, ok)

	id, ok := NewStatic(commonIdentity("u1")).Current()
	assert.True(t, ok)
	assert.Equal(t, "u1", id.ID)
}

func commonIdentity(id string) common.Identity {
	return common.Identity{ID: id, Email: id + "@x.io"}
}
