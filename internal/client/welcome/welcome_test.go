// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package welcome

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/client/authstate"
	"github.com/taibuivan/uservault/internal/client/backend"
)

type fakeAssurance struct {
	mu      sync.Mutex
	level   backend.AssuranceLevel
	err     error
	calls   int
	started chan struct{}
	block   chan struct{}
}

func (fake *fakeAssurance) GetAuthenticatorAssuranceLevel(context.Context) (backend.AssuranceLevel, error) {
	fake.mu.Lock()
	fake.calls++
	started, block := fake.started, fake.block
	fake.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return fake.level, fake.err
}

type recordingPresenter struct {
	mu    sync.Mutex
	names []string
	done  func()
}

func (presenter *recordingPresenter) Show(name string, done func()) {
	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	presenter.names = append(presenter.names, name)
	presenter.done = done
}

func (presenter *recordingPresenter) shown() []string {
	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	return append([]string(nil), presenter.names...)
}

const token = "eyJhbGciOiJIUzI1NiJ9.payload.0123456789abcdefSIGNATURE"

func snapshotFor(token string, metadata map[string]any) authstate.Snapshot {
	user := &backend.User{ID: "user-1", Email: "ada.lovelace@example.com", UserMetadata: metadata}
	return authstate.Snapshot{
		User:    user,
		Session: &backend.Session{AccessToken: token, User: user},
	}
}

func newGate(assurance *fakeAssurance) (*Gate, *recordingPresenter, *MemorySessionStore) {
	presenter := &recordingPresenter{}
	store := NewMemorySessionStore()
	gate := NewGate(assurance, store, presenter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return gate, presenter, store
}

func satisfied() *fakeAssurance {
	return &fakeAssurance{level: backend.AssuranceLevel{CurrentLevel: backend.AAL1, NextLevel: backend.AAL1}}
}

func TestEvaluate_ShowsOncePerFingerprint(t *testing.T) {
	gate, presenter, store := newGate(satisfied())
	snapshot := snapshotFor(token, map[string]any{"display_name": "Ada"})

	assert.True(t, gate.Evaluate(context.Background(), snapshot))
	assert.False(t, gate.Evaluate(context.Background(), snapshot))
	assert.False(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)))

	assert.Equal(t, []string{"Ada"}, presenter.shown())
	assert.True(t, store.Has("welcome_shown:user-1:9abcdefSIGNATURE"))
}

func TestEvaluate_NewTokenShowsAgain(t *testing.T) {
	gate, presenter, _ := newGate(satisfied())

	require.True(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)))
	require.True(t, gate.Evaluate(context.Background(), snapshotFor(token+"-rotated", nil)))

	assert.Len(t, presenter.shown(), 2)
}

func TestEvaluate_NeverShowsWhenBlocked(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*authstate.Snapshot)
	}{
		{"banned", func(s *authstate.Snapshot) { s.BanStatus.IsBanned = true }},
		{"needs mfa", func(s *authstate.Snapshot) { s.MFAChallenge.NeedsMFA = true }},
		{"banned and needs mfa", func(s *authstate.Snapshot) {
			s.BanStatus.IsBanned = true
			s.MFAChallenge.NeedsMFA = true
		}},
		{"signed out", func(s *authstate.Snapshot) { s.Session = nil }},
		{"no user", func(s *authstate.Snapshot) { s.User = nil }},
		{"empty token", func(s *authstate.Snapshot) { s.Session.AccessToken = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assurance := satisfied()
			gate, presenter, _ := newGate(assurance)
			snapshot := snapshotFor(token, nil)
			tt.mutate(&snapshot)

			for range 3 {
				assert.False(t, gate.Evaluate(context.Background(), snapshot))
			}
			assert.Empty(t, presenter.shown())
			assert.Zero(t, assurance.calls)
		})
	}
}

func TestEvaluate_DefersUntilAAL2(t *testing.T) {
	assurance := &fakeAssurance{level: backend.AssuranceLevel{CurrentLevel: backend.AAL1, NextLevel: backend.AAL2}}
	gate, presenter, store := newGate(assurance)
	snapshot := snapshotFor(token, nil)

	assert.False(t, gate.Evaluate(context.Background(), snapshot))
	assert.Empty(t, presenter.shown())
	assert.False(t, store.Has(markerPrefix+Fingerprint("user-1", token)), "deferral leaves no marker")

	assurance.level.CurrentLevel = backend.AAL2
	assert.True(t, gate.Evaluate(context.Background(), snapshot))
}

func TestEvaluate_MFACheckFailureFailsOpen(t *testing.T) {
	gate, presenter, _ := newGate(&fakeAssurance{err: errors.New("network down")})

	assert.True(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)))
	assert.Len(t, presenter.shown(), 1)
}

func TestEvaluate_DropsConcurrentRun(t *testing.T) {
	assurance := satisfied()
	assurance.started = make(chan struct{}, 1)
	assurance.block = make(chan struct{})
	gate, presenter, _ := newGate(assurance)
	snapshot := snapshotFor(token, nil)

	first := make(chan bool, 1)
	go func() { first <- gate.Evaluate(context.Background(), snapshot) }()
	<-assurance.started

	assert.False(t, gate.Evaluate(context.Background(), snapshot), "second run is dropped while the first is in flight")

	close(assurance.block)
	assert.True(t, <-first)
	assert.Len(t, presenter.shown(), 1)
}

func TestEvaluate_ReleasesGuardAfterPanic(t *testing.T) {
	gate := NewGate(satisfied(), NewMemorySessionStore(), panickingPresenter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)))
	assert.True(t, gate.inFlight.TryAcquire(1), "guard released")
}

type panickingPresenter struct{}

func (panickingPresenter) Show(string, func()) { panic("render failed") }

func TestVisibility(t *testing.T) {
	gate, presenter, _ := newGate(satisfied())

	require.True(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)))
	assert.True(t, gate.Visible())

	presenter.done()
	assert.False(t, gate.Visible())
	assert.False(t, gate.Evaluate(context.Background(), snapshotFor(token, nil)), "dismissal keeps the marker")
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "user-1:0123456789abcdef", Fingerprint("user-1", "xxxxxxxx0123456789abcdef"))
	assert.Equal(t, "user-1:short", Fingerprint("user-1", "short"))
	assert.Empty(t, Fingerprint("", "token"))
	assert.Empty(t, Fingerprint("user-1", ""))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *backend.User
		expected string
	}{
		{"display name", &backend.User{Email: "a@x.io", UserMetadata: map[string]any{"display_name": "Ada", "username": "ada"}}, "Ada"},
		{"username", &backend.User{Email: "a@x.io", UserMetadata: map[string]any{"display_name": "  ", "username": "ada"}}, "ada"},
		{"user_name", &backend.User{Email: "a@x.io", UserMetadata: map[string]any{"user_name": "ada_l"}}, "ada_l"},
		{"email local part", &backend.User{Email: "ada.lovelace@example.com"}, "ada.lovelace"},
		{"non-string metadata", &backend.User{Email: "ada@example.com", UserMetadata: map[string]any{"display_name": 42}}, "ada"},
		{"fallback", &backend.User{}, "User"},
		{"nil user", nil, "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.user))
		})
	}
}
