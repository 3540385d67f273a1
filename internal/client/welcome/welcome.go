// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package welcome shows a one-time "welcome back" greeting per login session.

A session is identified by its fingerprint, the user ID plus the last 16
characters of the access token. The fingerprint only de-duplicates the
greeting; it is not a credential and must never be used to authorize anything.
*/
package welcome

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/taibuivan/uservault/internal/client/authstate"
	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/pkg/query"
)

const (
	markerPrefix      = "welcome_shown:"
	fingerprintSuffix = 16
	fallbackName      = "User"
)

// usernameKeys are the metadata fields checked after display_name.
var usernameKeys = []string{"username", "user_name", "preferred_username"}

// # Collaborators

// SessionStore is ephemeral storage scoped to one client session, such as a
// browser tab or a CLI process.
type SessionStore interface {
	Has(key string) bool
	Set(key string)
}

// Presenter renders the greeting and calls done once it is dismissed.
type Presenter interface {
	Show(name string, done func())
}

// Assurance reports the MFA level of the current session.
type Assurance interface {
	GetAuthenticatorAssuranceLevel(ctx context.Context) (backend.AssuranceLevel, error)
}

// MemorySessionStore is a [SessionStore] that lives as long as the process.
type MemorySessionStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{keys: make(map[string]struct{})}
}

func (store *MemorySessionStore) Has(key string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.keys[key]
	return ok
}

func (store *MemorySessionStore) Set(key string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.keys[key] = struct{}{}
}

// # Gate

// Gate decides when to greet.
type Gate struct {
	assurance Assurance
	store     SessionStore
	presenter Presenter
	log       *slog.Logger

	inFlight *semaphore.Weighted
	visible  atomic.Bool
}

// NewGate wires a [Gate].
func NewGate(assurance Assurance, store SessionStore, presenter Presenter, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		assurance: assurance,
		store:     store,
		presenter: presenter,
		log:       log,
		inFlight:  semaphore.NewWeighted(1),
	}
}

// Visible reports whether the greeting is on screen.
func (gate *Gate) Visible() bool {
	return gate.visible.Load()
}

/*
Evaluate shows the greeting if snapshot qualifies and it has not been shown
for this session fingerprint yet. It reports whether the greeting was shown.

A run that starts while another is in flight is dropped. When the backend
still requires aal2 the gate defers without marking the session, so a later
snapshot can try again.
*/
func (gate *Gate) Evaluate(ctx context.Context, snapshot authstate.Snapshot) (shown bool) {
	if !snapshot.SignedIn() || snapshot.BanStatus.IsBanned || snapshot.MFAChallenge.NeedsMFA {
		return false
	}

	fingerprint := Fingerprint(snapshot.User.ID, snapshot.Session.AccessToken)
	if fingerprint == "" {
		return false
	}

	marker := markerPrefix + fingerprint
	if gate.store.Has(marker) {
		return false
	}

	if !gate.inFlight.TryAcquire(1) {
		return false
	}
	defer gate.inFlight.Release(1)

	defer func() {
		if recovered := recover(); recovered != nil {
			gate.log.Warn("welcome_gate_failed", slog.Any("panic", recovered))
			gate.visible.Store(false)
			shown = false
		}
	}()

	if gate.store.Has(marker) {
		return false
	}

	level, err := gate.assurance.GetAuthenticatorAssuranceLevel(ctx)
	if err != nil {
		gate.log.Warn("welcome_mfa_check_failed", slog.String("error", err.Error()))
	} else if level.NeedsChallenge() {
		return false
	}

	name := DisplayName(snapshot.User)

	gate.store.Set(marker)
	gate.visible.Store(true)
	gate.presenter.Show(name, func() { gate.visible.Store(false) })
	return true
}

// # Helpers

// Fingerprint is "{userID}:{last 16 characters of the access token}".
// It is empty when either part is missing.
func Fingerprint(userID, accessToken string) string {
	if userID == "" || accessToken == "" {
		return ""
	}
	suffix := accessToken
	if len(suffix) > fingerprintSuffix {
		suffix = suffix[len(suffix)-fingerprintSuffix:]
	}
	return userID + ":" + suffix
}

// DisplayName picks the greeting name: display_name, then a username field,
// then the local part of the email, then "User".
func DisplayName(user *backend.User) string {
	if user == nil {
		return fallbackName
	}

	candidates := []string{user.MetadataString("display_name")}
	for _, key := range usernameKeys {
		candidates = append(candidates, user.MetadataString(key))
	}
	local, _, _ := strings.Cut(user.Email, "@")
	candidates = append(candidates, local)

	if name := query.FirstNonEmpty(candidates...); name != "" {
		return name
	}
	return fallbackName
}
