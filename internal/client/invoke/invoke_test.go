// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package invoke

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials struct {
	url   string
	token string
}

func (credentials staticCredentials) URL() string              { return credentials.url }
func (credentials staticCredentials) AnonKey() string          { return "anon-key" }
func (credentials staticCredentials) AccessToken() string      { return credentials.token }
func (credentials staticCredentials) HTTPClient() *http.Client { return nil }

type captured struct {
	method  string
	path    string
	query   url.Values
	headers http.Header
	body    string
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	seen := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, _ := io.ReadAll(request.Body)
		*seen = captured{
			method:  request.Method,
			path:    request.URL.Path,
			query:   request.URL.Query(),
			headers: request.Header.Clone(),
			body:    string(raw),
		}
		writer.WriteHeader(status)
		_, _ = io.WriteString(writer, reply)
	}))
	t.Cleanup(server.Close)
	return server, seen
}

func TestInvokeSecure_Success(t *testing.T) {
	server, seen := newServer(t, http.StatusOK, `{"isBanned":false}`)
	invoker := New(staticCredentials{url: server.URL + "/", token: "user-token"})

	outcome := invoker.InvokeSecure(context.Background(), "check-ban-status", map[string]string{"userId": "u1"}, map[string]string{"x-client-info": "cli"})

	require.Nil(t, outcome.Err)
	assert.JSONEq(t, `{"isBanned":false}`, string(outcome.Data))
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "/functions/v1/check-ban-status", seen.path)
	assert.Equal(t, "anon-key", seen.headers.Get("apikey"))
	assert.Equal(t, "Bearer user-token", seen.headers.Get("Authorization"))
	assert.Equal(t, "cli", seen.headers.Get("x-client-info"))
	assert.JSONEq(t, `{"userId":"u1"}`, seen.body)
}

func TestInvokeSecure_AnonBearerWithoutSession(t *testing.T) {
	server, seen := newServer(t, http.StatusOK, `{}`)
	invoker := New(staticCredentials{url: server.URL})

	outcome := invoker.InvokeSecure(context.Background(), "health", nil, nil)

	require.Nil(t, outcome.Err)
	assert.Equal(t, "Bearer anon-key", seen.headers.Get("Authorization"))
	assert.Equal(t, "anon-key", seen.headers.Get("apikey"))
	assert.Empty(t, seen.body)
}

func TestInvoke_GetWithQuery(t *testing.T) {
	server, seen := newServer(t, http.StatusOK, `{"success":true,"feed":[]}`)
	invoker := New(staticCredentials{url: server.URL})

	outcome := invoker.Invoke(context.Background(), http.MethodGet, "get-live-feed", url.Values{"limit": {"5"}}, nil, nil)

	require.Nil(t, outcome.Err)
	assert.Equal(t, http.MethodGet, seen.method)
	assert.Equal(t, "5", seen.query.Get("limit"))
}

func TestInvokeSecure_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		reply       string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"server message", http.StatusBadRequest, `{"error":"Channel ID is required"}`, http.StatusBadRequest, "HTTP_400", "Channel ID is required"},
		{"server code", http.StatusBadRequest, `{"code":"KEY_MISMATCH","error":"Unable to decrypt payload"}`, http.StatusBadRequest, "KEY_MISMATCH", "Unable to decrypt payload"},
		{"nested message", http.StatusForbidden, `{"error":{"message":"nope"}}`, http.StatusForbidden, "HTTP_403", "nope"},
		{"no message", http.StatusInternalServerError, `{"ok":false}`, http.StatusInternalServerError, "HTTP_500", "HTTP 500"},
		{"empty error body", http.StatusServiceUnavailable, ``, http.StatusServiceUnavailable, "HTTP_503", "HTTP 503"},
		{"html error page", http.StatusBadGateway, `<html>Bad Gateway</html>`, http.StatusBadGateway, "INVALID_RESPONSE", "<html>Bad Gateway</html>"},
		{"non-json success", http.StatusOK, `plain text`, http.StatusBadGateway, "INVALID_RESPONSE", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newServer(t, tt.status, tt.reply)
			invoker := New(staticCredentials{url: server.URL})

			outcome := invoker.InvokeSecure(context.Background(), "fn", map[string]any{}, nil)

			require.NotNil(t, outcome.Err)
			assert.Nil(t, outcome.Data)
			assert.Equal(t, tt.wantStatus, outcome.Err.HTTPStatus)
			assert.Equal(t, tt.wantCode, outcome.Err.Code)
			assert.Equal(t, tt.wantMessage, outcome.Err.Message)
		})
	}
}

func TestInvokeSecure_NeverPanics(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	tests := []struct {
		name string
		url  string
		body any
	}{
		{"unreachable", closed.URL, nil},
		{"bad url", "://not a url", nil},
		{"unencodable body", "http://127.0.0.1:1", map[string]any{"fn": func() {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := New(staticCredentials{url: tt.url})

			outcome := invoker.InvokeSecure(context.Background(), "fn", tt.body, nil)

			require.NotNil(t, outcome.Err)
			assert.Nil(t, outcome.Data)
		})
	}
}

func TestDecode(t *testing.T) {
	type banStatus struct {
		IsBanned bool `json:"isBanned"`
	}

	server, _ := newServer(t, http.StatusOK, `{"isBanned":true}`)
	invoker := New(staticCredentials{url: server.URL})

	decoded := Decode[banStatus](invoker.InvokeSecure(context.Background(), "check-ban-status", nil, nil))
	require.Nil(t, decoded.Err)
	assert.True(t, decoded.Data.IsBanned)

	wrongShape := Decode[[]string](invoker.InvokeSecure(context.Background(), "check-ban-status", nil, nil))
	require.NotNil(t, wrongShape.Err)
	assert.Equal(t, http.StatusBadGateway, wrongShape.Err.HTTPStatus)

	failing, _ := newServer(t, http.StatusNotFound, `{"error":"Unknown function"}`)
	failed := Decode[banStatus](New(staticCredentials{url: failing.URL}).InvokeSecure(context.Background(), "missing", nil, nil))
	require.NotNil(t, failed.Err)
	assert.Equal(t, "Unknown function", failed.Err.Message)
}
