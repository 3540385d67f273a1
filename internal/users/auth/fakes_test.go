// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/sec"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

// # In-memory repositories

type memoryStore struct {
	mu        sync.Mutex
	users     map[string]*User
	usernames map[string]string
	sessions  map[string]*Session
	factors   map[string]*Factor
	changes   map[string]EmailChange
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     map[string]*User{},
		usernames: map[string]string{},
		sessions:  map[string]*Session{},
		factors:   map[string]*Factor{},
		changes:   map[string]EmailChange{},
	}
}

type memoryUsers struct{ *memoryStore }

func (store memoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	copied.UserMetadata = maps.Clone(user.UserMetadata)
	return &copied, nil
}

func (store memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	store.mu.Lock()
	var id string
	for _, user := range store.users {
		if user.Email == email {
			id = user.ID
		}
	}
	store.mu.Unlock()
	if id == "" {
		return nil, apperr.NotFound("User")
	}
	return store.FindByID(ctx, id)
}

func (store memoryUsers) Create(_ context.Context, user *User, username string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, taken := store.usernames[username]; taken {
		return apperr.Conflict("Username is already taken")
	}
	copied := *user
	store.users[user.ID] = &copied
	store.usernames[username] = user.ID
	return nil
}

func (store memoryUsers) update(userID string, apply func(*User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	apply(user)
	return nil
}

func (store memoryUsers) UpdateMetadata(_ context.Context, userID string, metadata map[string]any) error {
	return store.update(userID, func(user *User) { user.UserMetadata = maps.Clone(metadata) })
}

func (store memoryUsers) UpdateEmail(_ context.Context, userID, email string) error {
	return store.update(userID, func(user *User) { user.Email = email })
}

func (store memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	return store.update(userID, func(user *User) { user.PasswordHash = newHash })
}

func (store memoryUsers) TouchSignIn(_ context.Context, userID string, at time.Time) error {
	return store.update(userID, func(user *User) { user.LastSignInAt = &at })
}

type memorySessions struct{ *memoryStore }

func (store memorySessions) Create(_ context.Context, session *Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *session
	store.sessions[session.ID] = &copied
	return nil
}

func (store memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, session := range store.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (store memorySessions) Revoke(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if session, ok := store.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (store memorySessions) RevokeAll(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, session := range store.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

type memoryFactors struct{ *memoryStore }

func (store memoryFactors) ListByUser(_ context.Context, userID string) ([]Factor, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	factors := []Factor{}
	for _, factor := range store.factors {
		if factor.UserID == userID {
			factors = append(factors, *factor)
		}
	}
	return factors, nil
}

func (store memoryFactors) FindByID(_ context.Context, userID, factorID string) (*Factor, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	factor, ok := store.factors[factorID]
	if !ok || factor.UserID != userID {
		return nil, apperr.NotFound("Factor")
	}
	copied := *factor
	return &copied, nil
}

func (store memoryFactors) Create(_ context.Context, factor *Factor) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *factor
	store.factors[factor.ID] = &copied
	return nil
}

func (store memoryFactors) MarkVerified(_ context.Context, factorID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.factors[factorID].Status = FactorStatusVerified
	return nil
}

func (store memoryFactors) Delete(_ context.Context, userID, factorID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	factor, ok := store.factors[factorID]
	if !ok || factor.UserID != userID {
		return apperr.NotFound("Factor")
	}
	delete(store.factors, factorID)
	return nil
}

func (store memoryFactors) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	deleted := 0
	for id, factor := range store.factors {
		if factor.UserID == userID {
			delete(store.factors, id)
			deleted++
		}
	}
	return deleted, nil
}

type memoryEmailChanges struct{ *memoryStore }

func (store memoryEmailChanges) Set(_ context.Context, userID string, change EmailChange, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.changes[userID] = change
	return nil
}

func (store memoryEmailChanges) Get(_ context.Context, userID string) (*EmailChange, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	change, ok := store.changes[userID]
	if !ok {
		return nil, apperr.NotFound("Email change")
	}
	return &change, nil
}

func (store memoryEmailChanges) Delete(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.changes, userID)
	return nil
}

// recordingNotifier keeps the last code sent per address.
type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (notifier *recordingNotifier) SendEmailChangeCode(_ context.Context, email, code string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.codes[email] = code
	return nil
}

func (notifier *recordingNotifier) code(email string) string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return notifier.codes[email]
}

// # Fixture

type fixture struct {
	service  *Service
	store    *memoryStore
	tokens   *sec.TokenService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService(testSecret, "test-issuer")
	require.NoError(t, err)

	store := newMemoryStore()
	notifier := &recordingNotifier{codes: map[string]string{}}

	return &fixture{
		service: NewService(
			memoryUsers{store},
			memorySessions{store},
			memoryFactors{store},
			memoryEmailChanges{store},
			tokens,
			notifier,
		),
		store:    store,
		tokens:   tokens,
		notifier: notifier,
	}
}

func (f *fixture) signUp(t *testing.T, email string) (*TokenResponse, *sec.AuthClaims) {
	t.Helper()

	session, err := f.service.SignUp(context.Background(), SignUpInput{Email: email, Password: "password123"})
	require.NoError(t, err)

	claims, err := f.tokens.VerifyToken(session.AccessToken)
	require.NoError(t, err)

	return session, claims
}
