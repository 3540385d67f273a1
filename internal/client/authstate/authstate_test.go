// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/result"
)

// # Fakes

type fakeSessions struct {
	mu       sync.Mutex
	initial  *backend.Session
	listener backend.Listener
	signOuts int
}

func (fake *fakeSessions) GetSession(context.Context) (*backend.Session, error) {
	return fake.initial, nil
}

func (fake *fakeSessions) OnAuthStateChange(fn backend.Listener) func() {
	fake.mu.Lock()
	fake.listener = fn
	fake.mu.Unlock()
	fn(backend.EventInitialSession, fake.initial)
	return func() {
		fake.mu.Lock()
		fake.listener = nil
		fake.mu.Unlock()
	}
}

func (fake *fakeSessions) SignOut(context.Context) error {
	fake.signOuts++
	fake.emit(backend.EventSignedOut, nil)
	return nil
}

func (fake *fakeSessions) emit(event backend.AuthEvent, session *backend.Session) {
	fake.mu.Lock()
	listener := fake.listener
	fake.mu.Unlock()
	if listener != nil {
		listener(event, session)
	}
}

type fakeAssurance struct {
	level backend.AssuranceLevel
	err   error
}

func (fake *fakeAssurance) GetAuthenticatorAssuranceLevel(context.Context) (backend.AssuranceLevel, error) {
	return fake.level, fake.err
}

type fakeFunctions struct {
	mu     sync.Mutex
	banned map[string]bool
	fail   bool
	gate   chan struct{}
	calls  []string
}

func (fake *fakeFunctions) InvokeSecure(ctx context.Context, name string, body any, _ map[string]string) result.Result[json.RawMessage] {
	fake.mu.Lock()
	gate := fake.gate
	userID := body.(map[string]string)["userId"]
	fake.calls = append(fake.calls, name+":"+userID)
	banned := fake.banned[userID]
	fail := fake.fail
	fake.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return result.Fail[json.RawMessage](apperr.Upstream("Network request failed", errors.New("refused")))
	}

	raw, _ := json.Marshal(BanStatus{IsBanned: banned})
	return result.OK(json.RawMessage(raw))
}

func (fake *fakeFunctions) callCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.calls)
}

type recordingSink struct {
	mu    sync.Mutex
	users []string
}

func (sink *recordingSink) SetUser(user *backend.User) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if user == nil {
		sink.users = append(sink.users, "")
		return
	}
	sink.users = append(sink.users, user.ID)
}

func (sink *recordingSink) seen() []string {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]string(nil), sink.users...)
}

func sessionFor(userID string) *backend.Session {
	return &backend.Session{AccessToken: "token-" + userID, User: &backend.User{ID: userID, Email: userID + "@example.com"}}
}

type fixture struct {
	sessions  *fakeSessions
	assurance *fakeAssurance
	functions *fakeFunctions
	sink      *recordingSink
	context   *Context
}

func newFixture(t *testing.T, initial *backend.Session) *fixture {
	f := &fixture{
		sessions:  &fakeSessions{initial: initial},
		assurance: &fakeAssurance{level: backend.AssuranceLevel{CurrentLevel: backend.AAL1, NextLevel: backend.AAL1}},
		functions: &fakeFunctions{banned: map[string]bool{}},
		sink:      &recordingSink{},
	}
	f.context = New(f.sessions, f.assurance, f.functions, slog.New(slog.NewTextHandler(io.Discard, nil)), f.sink)
	t.Cleanup(f.context.Close)
	return f
}

// # Tests

func TestStart_SignedOut(t *testing.T) {
	f := newFixture(t, nil)

	f.context.Start(context.Background())

	snapshot := f.context.Snapshot()
	assert.False(t, snapshot.SignedIn())
	assert.Equal(t, []string{""}, f.sink.seen())
	assert.Zero(t, f.functions.callCount())
}

func TestStart_DerivesState(t *testing.T) {
	f := newFixture(t, sessionFor("user-1"))
	f.assurance.level = backend.AssuranceLevel{CurrentLevel: backend.AAL1, NextLevel: backend.AAL2}

	f.context.Start(context.Background())

	snapshot := f.context.Snapshot()
	require.True(t, snapshot.SignedIn())
	assert.Equal(t, "user-1", snapshot.User.ID)
	assert.False(t, snapshot.BanStatus.IsBanned)
	assert.True(t, snapshot.MFAChallenge.NeedsMFA)
	assert.Equal(t, []string{"user-1"}, f.sink.seen())
	assert.Equal(t, []string{constants.FnCheckBanStatus + ":user-1"}, f.functions.calls, "INITIAL_SESSION is not derived twice")
}

func TestStart_Banned(t *testing.T) {
	f := newFixture(t, sessionFor("user-1"))
	f.functions.banned["user-1"] = true

	f.context.Start(context.Background())

	assert.True(t, f.context.Snapshot().BanStatus.IsBanned)
}

func TestStart_ChecksFailOpen(t *testing.T) {
	f := newFixture(t, sessionFor("user-1"))
	f.functions.fail = true
	f.assurance.err = errors.New("auth server down")

	f.context.Start(context.Background())

	snapshot := f.context.Snapshot()
	require.True(t, snapshot.SignedIn())
	assert.False(t, snapshot.BanStatus.IsBanned)
	assert.False(t, snapshot.MFAChallenge.NeedsMFA)
}

func TestSessionChange_Rederives(t *testing.T) {
	f := newFixture(t, nil)
	f.context.Start(context.Background())

	snapshots := make(chan Snapshot, 4)
	defer f.context.Subscribe(func(snapshot Snapshot) { snapshots <- snapshot })()

	f.sessions.emit(backend.EventSignedIn, sessionFor("user-2"))

	select {
	case snapshot := <-snapshots:
		assert.Equal(t, "user-2", snapshot.User.ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after sign-in")
	}

	require.NoError(t, f.context.SignOut(context.Background()))

	select {
	case snapshot := <-snapshots:
		assert.False(t, snapshot.SignedIn())
	case <-time.After(time.Second):
		t.Fatal("no snapshot after sign-out")
	}
	assert.Equal(t, []string{"", "user-2", ""}, f.sink.seen())
}

func TestSessionChange_LatestWins(t *testing.T) {
	f := newFixture(t, nil)
	f.context.Start(context.Background())

	gate := make(chan struct{})
	f.functions.mu.Lock()
	f.functions.gate = gate
	f.functions.mu.Unlock()

	f.sessions.emit(backend.EventSignedIn, sessionFor("user-3"))
	require.Eventually(t, func() bool { return f.functions.callCount() == 1 }, time.Second, 5*time.Millisecond)

	f.sessions.emit(backend.EventSignedOut, nil)
	require.Eventually(t, func() bool { return !f.context.Snapshot().SignedIn() }, time.Second, 5*time.Millisecond)

	close(gate)
	f.context.Close()

	assert.False(t, f.context.Snapshot().SignedIn(), "a slow derivation for an old session must not win")
}

func TestClose_StopsFollowing(t *testing.T) {
	f := newFixture(t, nil)
	f.context.Start(context.Background())

	f.context.Close()
	f.sessions.emit(backend.EventSignedIn, sessionFor("user-4"))

	assert.False(t, f.context.Snapshot().SignedIn())
	assert.Zero(t, f.functions.callCount())
}
