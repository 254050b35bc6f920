// Package session signs the local user in against the user directory and
// serves as the identity provider for the sync engines.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/logging"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// Manager holds the signed-in identity and its token. It implements
// common.SessionProvider and grpcfeed.TokenSource.
type Manager struct {
	users  common.UserDirectory
	tokens *Tokens
	log    zerolog.Logger

	mu       sync.RWMutex
	identity common.Identity
	token    string
}

func NewManager(users common.UserDirectory, cfg config.AuthConfig, log zerolog.Logger) *Manager {
	return &Manager{
		users:  users,
		tokens: NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		log:    logging.Component(log, "session"),
	}
}

func (m *Manager) SignUp(ctx context.Context, email, password string) (common.Identity, error) {
	if err := common.ValidateEmail(email); err != nil {
		return common.Identity{}, err
	}
	if err := common.ValidatePassword(password); err != nil {
		return common.Identity{}, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return common.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	user := &common.User{Email: common.NormalizeEmail(email), PasswordHash: hashed}
	if err := m.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return common.Identity{}, ErrEmailTaken
		}
		return common.Identity{}, fmt.Errorf("create user: %w", err)
	}

	m.log.Info().Str("user_id", user.ID).Msg("Signed up")
	return m.signIn(common.Identity{ID: user.ID, Email: user.Email})
}

func (m *Manager) Login(ctx context.Context, email, password string) (common.Identity, error) {
	if email == "" || password == "" {
		return common.Identity{}, ErrInvalidCredentials
	}
	user, err := m.users.UserByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.Identity{}, ErrInvalidCredentials
		}
		return common.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := checkPassword(password, user.PasswordHash); err != nil {
		return common.Identity{}, ErrInvalidCredentials
	}
	return m.signIn(common.Identity{ID: user.ID, Email: user.Email})
}

// Resume restores a session from a previously issued token.
func (m *Manager) Resume(ctx context.Context, token string) (common.Identity, error) {
	id, err := m.tokens.Validate(token)
	if err != nil {
		return common.Identity{}, fmt.Errorf("resume session: %w", err)
	}
	if _, err := m.users.UserByID(ctx, id.ID); err != nil {
		return common.Identity{}, fmt.Errorf("resume session: %w", err)
	}

	m.mu.Lock()
	m.identity = id
	m.token = token
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = common.Identity{}
	m.token = ""
}

func (m *Manager) Current() (common.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.identity.ID != ""
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) Validate(token string) (common.Identity, error) {
	return m.tokens.Validate(token)
}

func (m *Manager) signIn(id common.Identity) (common.Identity, error) {
	token, err := m.tokens.Issue(id)
	if err != nil {
		return common.Identity{}, fmt.Errorf("issue token: %w", err)
	}

	m.mu.Lock()
	m.identity = id
	m.token = token
	m.mu.Unlock()
	return id, nil
}

// Static is a fixed identity provider. A zero identity is signed out.
type Static struct {
	mu       sync.RWMutex
	identity common.Identity
}

func NewStatic(id common.Identity) *Static {
	return &Static{identity: id}
}

func (s *Static) Current() (common.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity.ID != ""
}

func (s *Static) Set(id common.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}
