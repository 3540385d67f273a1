// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/config"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/sec"
	"github.com/taibuivan/uservault/internal/users/auth"
)

const (
	anonKey    = "anon-key"
	serviceKey = "service-key"
)

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyToken(string) (*sec.AuthClaims, error) {
	return nil, errors.New("invalid")
}

type echoFunctions struct{}

func (echoFunctions) Register(router chi.Router) {
	router.Post("/echo", func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(writer, "echo")
	})
}

func newTestServer(t *testing.T, deps HealthDependencies) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{ServerPort: "0", AnonKey: anonKey, ServiceRoleKey: serviceKey}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	health := NewHealthHandler(deps, logger)
	health.now = func() time.Time { return time.UnixMilli(1700000000000) }

	server := NewServer(ctx, cfg, logger, rejectingVerifier{}, Handlers{
		Health:    health,
		Auth:      auth.NewHandler(auth.NewService(nil, nil, nil, nil, nil, nil)),
		Functions: []FunctionSet{echoFunctions{}},
	})
	return server.Handler()
}

func send(handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestServer_Preflight(t *testing.T) {
	server := newTestServer(t, HealthDependencies{})

	recorder := send(server, http.MethodOptions, "/functions/v1/"+constants.FnCheckBanStatus, "", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Body.String())
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Headers"), "x-encrypted")
}

func TestServer_RequiresAPIKey(t *testing.T) {
	server := newTestServer(t, HealthDependencies{})

	assert.Equal(t, http.StatusUnauthorized, send(server, http.MethodPost, "/functions/v1/echo", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, send(server, http.MethodPost, "/functions/v1/echo", "", map[string]string{"apikey": "wrong"}).Code)

	for _, key := range []string{anonKey, serviceKey} {
		recorder := send(server, http.MethodPost, "/functions/v1/echo", "", map[string]string{"apikey": key})
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "echo", recorder.Body.String())
	}
}

func TestServer_AnonKeyAsBearer(t *testing.T) {
	server := newTestServer(t, HealthDependencies{})

	recorder := send(server, http.MethodPost, "/functions/v1/echo", "", map[string]string{
		"apikey":        anonKey,
		"Authorization": "Bearer " + anonKey,
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestServer_AuthMounted(t *testing.T) {
	server := newTestServer(t, HealthDependencies{})

	recorder := send(server, http.MethodGet, "/auth/v1/user", "", map[string]string{"apikey": anonKey})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestServer_ExpiredBearer(t *testing.T) {
	server := newTestServer(t, HealthDependencies{})
	headers := map[string]string{"apikey": anonKey, "Authorization": "Bearer expired.jwt.token"}

	functions := send(server, http.MethodPost, "/functions/v1/echo", "", headers)
	assert.Equal(t, http.StatusOK, functions.Code, "functions treat a stale bearer as anonymous")

	auth := send(server, http.MethodGet, "/auth/v1/user", "", headers)
	assert.Equal(t, http.StatusUnauthorized, auth.Code)
}

func TestHealthFunction(t *testing.T) {
	headers := map[string]string{"apikey": anonKey}
	path := "/functions/v1/" + constants.FnHealth

	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, HealthDependencies{
			CheckDatabase: func(context.Context) error { return nil },
			CheckCache:    func(context.Context) error { return nil },
		})

		recorder := send(server, http.MethodPost, path, `{"source":"cron"}`, headers)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"ok":true,"source":"cron","ts":1700000000000}`, recorder.Body.String())
	})

	t.Run("empty body", func(t *testing.T) {
		server := newTestServer(t, HealthDependencies{})

		recorder := send(server, http.MethodPost, path, "", headers)

		require.Equal(t, http.StatusOK, recorder.Code)
		var body healthResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, defaultHealthSource, body.Source)
	})

	t.Run("dependency down", func(t *testing.T) {
		server := newTestServer(t, HealthDependencies{
			CheckDatabase: func(context.Context) error { return errors.New("connection refused") },
		})

		recorder := send(server, http.MethodPost, path, `{}`, headers)

		require.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.JSONEq(t, `{"ok":false,"error":"Service unhealthy"}`, recorder.Body.String())
	})
}

func TestProbes(t *testing.T) {
	server := newTestServer(t, HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("redis down") },
	})

	assert.Equal(t, http.StatusOK, send(server, http.MethodGet, "/health", "", nil).Code)

	recorder := send(server, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"degraded"`)
}
