// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taibuivan/uservault/internal/platform/apperr"
)

// ErrNoSession is returned by operations that need a signed-in session.
var ErrNoSession = apperr.Unauthorized("Not signed in")

// Auth groups the /auth/v1 session operations of a [Client].
type Auth struct {
	client *Client
}

type credentials struct {
	Email        string         `json:"email,omitempty"`
	Password     string         `json:"password,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// GetSession returns the current session, refreshing it first when the
// access token has expired. It returns nil, nil when signed out.
func (auth *Auth) GetSession(ctx context.Context) (*Session, error) {
	session := auth.client.currentSession()
	if session == nil {
		return nil, nil
	}
	if !session.Expired(auth.client.now(), 0) {
		return session, nil
	}
	return auth.RefreshSession(ctx)
}

// SignInWithPassword exchanges credentials for a session.
func (auth *Auth) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	query := url.Values{"grant_type": {"password"}}
	if err := auth.client.call(ctx, http.MethodPost, "/token", query, credentials{Email: email, Password: password}, "", &session); err != nil {
		return nil, err
	}

	auth.client.setSession(&session, EventSignedIn)
	return session.clone(), nil
}

// SignUp registers an account. data becomes the user metadata.
func (auth *Auth) SignUp(ctx context.Context, email, password string, data map[string]any) (*Session, error) {
	var session Session
	if err := auth.client.call(ctx, http.MethodPost, "/signup", nil, credentials{Email: email, Password: password, Data: data}, "", &session); err != nil {
		return nil, err
	}

	auth.client.setSession(&session, EventSignedIn)
	return session.clone(), nil
}

// SignOut revokes the session on the server and always clears it locally.
//
// A 401 from the server means the session is already gone and is not an error.
func (auth *Auth) SignOut(ctx context.Context) error {
	token := auth.client.AccessToken()
	if token == "" {
		return nil
	}

	err := auth.client.call(ctx, http.MethodPost, "/logout", nil, nil, token, nil)
	auth.client.setSession(nil, EventSignedOut)

	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus == http.StatusUnauthorized {
		return nil
	}
	return err
}

// RefreshSession rotates the refresh token.
//
// A rejected refresh token signs the client out.
func (auth *Auth) RefreshSession(ctx context.Context) (*Session, error) {
	current := auth.client.currentSession()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}

	var session Session
	query := url.Values{"grant_type": {"refresh_token"}}
	err := auth.client.call(ctx, http.MethodPost, "/token", query, credentials{RefreshToken: current.RefreshToken}, "", &session)

	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus == http.StatusUnauthorized {
		auth.client.setSession(nil, EventSignedOut)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	auth.client.setSession(&session, EventTokenRefreshed)
	return session.clone(), nil
}

// SetSession installs a session obtained elsewhere, such as [Client.XHRSignIn].
func (auth *Auth) SetSession(session *Session) {
	if session == nil {
		auth.client.setSession(nil, EventSignedOut)
		return
	}
	auth.client.setSession(session, EventSignedIn)
}

// GetUser fetches the caller's account, including factors.
func (auth *Auth) GetUser(ctx context.Context) (*User, error) {
	token := auth.client.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}

	var user User
	if err := auth.client.call(ctx, http.MethodGet, "/user", nil, nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes metadata or the password, or starts an email change.
//
// The cached session's user is replaced and listeners see USER_UPDATED.
func (auth *Auth) UpdateUser(ctx context.Context, attributes UserAttributes) (*User, error) {
	current := auth.client.currentSession()
	if current == nil {
		return nil, ErrNoSession
	}

	var user User
	if err := auth.client.call(ctx, http.MethodPut, "/user", nil, attributes, current.AccessToken, &user); err != nil {
		return nil, err
	}

	current.User = &user
	auth.client.setSession(current, EventUserUpdated)
	return &user, nil
}

// OnAuthStateChange registers fn for session transitions and immediately
// delivers INITIAL_SESSION with the current session. The returned function
// unsubscribes.
func (auth *Auth) OnAuthStateChange(fn Listener) (unsubscribe func()) {
	unsubscribe = auth.client.subscribe(fn)
	fn(EventInitialSession, auth.client.currentSession())
	return unsubscribe
}
