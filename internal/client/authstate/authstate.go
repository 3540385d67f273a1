// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authstate tracks who the current actor is and what stands between
them and full access.

A [Context] follows the backend session for its whole lifetime. Each session
change re-derives the ban status and the MFA challenge; both checks fail open
so a flaky status endpoint never locks a user out of the client.
*/
package authstate

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/client/invoke"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/result"
)

const deriveTimeout = 15 * time.Second

// # State

// BanStatus mirrors the check-ban-status reply.
type BanStatus struct {
	IsBanned  bool   `json:"isBanned"`
	CanAppeal *bool  `json:"canAppeal,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// MFAChallenge reports whether the session still owes a second factor.
type MFAChallenge struct {
	NeedsMFA bool
}

// Snapshot is the derived auth state at one point in time.
type Snapshot struct {
	User         *backend.User
	Session      *backend.Session
	BanStatus    BanStatus
	MFAChallenge MFAChallenge
}

// SignedIn reports whether the snapshot has a session.
func (snapshot Snapshot) SignedIn() bool {
	return snapshot.Session != nil && snapshot.User != nil
}

// # Dependencies

// Sessions is the session API of the backend client.
type Sessions interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	OnAuthStateChange(fn backend.Listener) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Assurance reports the MFA level of the current session.
type Assurance interface {
	GetAuthenticatorAssuranceLevel(ctx context.Context) (backend.AssuranceLevel, error)
}

// Functions calls edge functions.
type Functions interface {
	InvokeSecure(ctx context.Context, name string, body any, headers map[string]string) result.Result[json.RawMessage]
}

// UserSink is told about every identity change, such as the encrypted channel.
type UserSink interface {
	SetUser(user *backend.User)
}

// # Context

// Context owns the derived auth state. Build it with [New].
type Context struct {
	sessions  Sessions
	assurance Assurance
	functions Functions
	sinks     []UserSink
	log       *slog.Logger

	mu          sync.RWMutex
	snapshot    Snapshot
	generation  uint64
	closed      bool
	subscribers map[int]func(Snapshot)
	nextID      int

	unsubscribe func()
	wg          sync.WaitGroup
}

// New builds a [Context]. Sinks receive the user on every change.
func New(sessions Sessions, assurance Assurance, functions Functions, log *slog.Logger, sinks ...UserSink) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		sessions:    sessions,
		assurance:   assurance,
		functions:   functions,
		sinks:       sinks,
		log:         log,
		subscribers: make(map[int]func(Snapshot)),
	}
}

/*
Start loads the existing session, derives its state and then follows session
changes until [Context.Close].

The INITIAL_SESSION event is ignored because Start already resolved it.
*/
func (authCtx *Context) Start(ctx context.Context) {
	session, err := authCtx.sessions.GetSession(ctx)
	if err != nil {
		authCtx.log.Warn("authstate_initial_session_failed", slog.String("error", err.Error()))
		session = nil
	}

	authCtx.notifySinks(session)
	authCtx.derive(ctx, authCtx.nextGeneration(), session)

	unsubscribe := authCtx.sessions.OnAuthStateChange(func(event backend.AuthEvent, session *backend.Session) {
		if event == backend.EventInitialSession {
			return
		}

		authCtx.mu.Lock()
		if authCtx.closed {
			authCtx.mu.Unlock()
			return
		}
		authCtx.generation++
		generation := authCtx.generation
		authCtx.wg.Add(1)
		authCtx.mu.Unlock()

		authCtx.notifySinks(session)
		go func() {
			defer authCtx.wg.Done()
			deriveCtx, cancel := context.WithTimeout(context.Background(), deriveTimeout)
			defer cancel()
			authCtx.derive(deriveCtx, generation, session)
		}()
	})

	authCtx.mu.Lock()
	authCtx.unsubscribe = unsubscribe
	authCtx.mu.Unlock()
}

// Close stops following session changes and waits for pending derivations.
// Their results are discarded.
func (authCtx *Context) Close() {
	authCtx.mu.Lock()
	unsubscribe := authCtx.unsubscribe
	authCtx.unsubscribe = nil
	authCtx.closed = true
	authCtx.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	authCtx.wg.Wait()
}

// Snapshot returns the latest derived state.
func (authCtx *Context) Snapshot() Snapshot {
	authCtx.mu.RLock()
	defer authCtx.mu.RUnlock()
	return authCtx.snapshot
}

// Subscribe calls fn with every new snapshot. The returned function unsubscribes.
func (authCtx *Context) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	authCtx.mu.Lock()
	id := authCtx.nextID
	authCtx.nextID++
	authCtx.subscribers[id] = fn
	authCtx.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			authCtx.mu.Lock()
			delete(authCtx.subscribers, id)
			authCtx.mu.Unlock()
		})
	}
}

// SignOut signs out through the backend; the state follows via the listener.
func (authCtx *Context) SignOut(ctx context.Context) error {
	return authCtx.sessions.SignOut(ctx)
}

// # Derivation

func (authCtx *Context) nextGeneration() uint64 {
	authCtx.mu.Lock()
	defer authCtx.mu.Unlock()
	authCtx.generation++
	return authCtx.generation
}

// derive computes the snapshot for session and publishes it unless a newer
// session change has started since.
func (authCtx *Context) derive(ctx context.Context, generation uint64, session *backend.Session) {
	user := userOf(session)

	snapshot := Snapshot{User: user, Session: session}
	if user != nil {
		snapshot.BanStatus = authCtx.banStatus(ctx, user)
		snapshot.MFAChallenge = authCtx.mfaChallenge(ctx)
	}

	authCtx.publish(generation, snapshot)
}

// notifySinks runs in session-change order so sinks never see a stale user.
func (authCtx *Context) notifySinks(session *backend.Session) {
	user := userOf(session)
	for _, sink := range authCtx.sinks {
		sink.SetUser(user)
	}
}

func userOf(session *backend.Session) *backend.User {
	if session == nil {
		return nil
	}
	return session.User
}

func (authCtx *Context) publish(generation uint64, snapshot Snapshot) {
	authCtx.mu.Lock()
	if authCtx.closed || generation != authCtx.generation {
		authCtx.mu.Unlock()
		return
	}
	authCtx.snapshot = snapshot
	subscribers := make([]func(Snapshot), 0, len(authCtx.subscribers))
	for _, subscriber := range authCtx.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	authCtx.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(snapshot)
	}
}

// banStatus asks check-ban-status about user. Failures report not banned.
func (authCtx *Context) banStatus(ctx context.Context, user *backend.User) BanStatus {
	body := map[string]string{"userId": user.ID}
	if username := user.MetadataString("username"); username != "" {
		body["username"] = username
	}

	status := invoke.Decode[BanStatus](authCtx.functions.InvokeSecure(ctx, constants.FnCheckBanStatus, body, nil))
	if status.Err != nil {
		authCtx.log.Warn("authstate_ban_check_failed", slog.String("error", status.Err.Error()))
		return BanStatus{}
	}
	return status.Data
}

// mfaChallenge reports whether the session must still pass MFA. Failures
// report no challenge.
func (authCtx *Context) mfaChallenge(ctx context.Context) MFAChallenge {
	level, err := authCtx.assurance.GetAuthenticatorAssuranceLevel(ctx)
	if err != nil {
		authCtx.log.Warn("authstate_mfa_check_failed", slog.String("error", err.Error()))
		return MFAChallenge{}
	}
	return MFAChallenge{NeedsMFA: level.NeedsChallenge()}
}
