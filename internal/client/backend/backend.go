// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the single configured handle to the UserVault backend.

A [Client] owns the signed-in session: it persists it through a [Storage],
refreshes it shortly before expiry, and notifies listeners of every
transition. [Client.Auth] and [Client.MFA] group the /auth/v1 operations.

Construction never fails. A missing URL or key is logged and replaced with a
local placeholder so tooling can still start.
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
)

const (
	// PlaceholderURL is used when no backend URL is configured.
	PlaceholderURL = "http://localhost:54321"

	// PlaceholderAnonKey is used when no public key is configured.
	PlaceholderAnonKey = "public-anon-key"

	// DefaultRefreshMargin is how long before expiry the session is refreshed.
	DefaultRefreshMargin = 60 * time.Second

	refreshRetryInterval = 10 * time.Second
	requestTimeout       = 15 * time.Second
)

// # Configuration

// Config configures a [Client].
type Config struct {
	URL     string
	AnonKey string

	// Storage persists the session. Defaults to [MemoryStorage].
	Storage Storage

	// HTTPClient defaults to one with a 15s timeout.
	HTTPClient *http.Client

	// Logger defaults to [slog.Default].
	Logger *slog.Logger

	// RefreshMargin defaults to [DefaultRefreshMargin].
	RefreshMargin time.Duration

	// DisableAutoRefresh stops the background refresh goroutine.
	DisableAutoRefresh bool
}

// environment is the subset of [Config] read from USERVAULT_* variables.
type environment struct {
	URL                string        `env:"USERVAULT_URL"`
	AnonKey            string        `env:"USERVAULT_ANON_KEY"`
	RefreshMargin      time.Duration `env:"USERVAULT_REFRESH_MARGIN"`
	DisableAutoRefresh bool          `env:"USERVAULT_DISABLE_AUTO_REFRESH"`
}

// # Client

// Client holds the backend configuration and the current session.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	log     *slog.Logger
	storage Storage
	margin  time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	session   *Session
	listeners map[int]Listener
	nextID    int

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFromEnv builds a [Client] from USERVAULT_* environment variables.
//
// Parse problems are logged; the client always starts.
func NewFromEnv(log *slog.Logger, storage Storage) *Client {
	var vars environment
	if err := env.Parse(&vars); err != nil && log != nil {
		log.Error("backend_config_invalid", slog.String("error", err.Error()))
	}

	return New(Config{
		URL:                vars.URL,
		AnonKey:            vars.AnonKey,
		Storage:            storage,
		Logger:             log,
		RefreshMargin:      vars.RefreshMargin,
		DisableAutoRefresh: vars.DisableAutoRefresh,
	})
}

// New builds a [Client], restores any stored session and starts auto refresh.
func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	if cfg.URL == "" || cfg.AnonKey == "" {
		log.Error("backend_config_missing",
			slog.Bool("url_set", cfg.URL != ""),
			slog.Bool("anon_key_set", cfg.AnonKey != ""),
		)
		if cfg.URL == "" {
			cfg.URL = PlaceholderURL
		}
		if cfg.AnonKey == "" {
			cfg.AnonKey = PlaceholderAnonKey
		}
	}

	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = DefaultRefreshMargin
	}

	client := &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		anonKey:   cfg.AnonKey,
		http:      cfg.HTTPClient,
		log:       log,
		storage:   cfg.Storage,
		margin:    cfg.RefreshMargin,
		now:       time.Now,
		listeners: make(map[int]Listener),
		kick:      make(chan struct{}, 1),
	}

	stored, err := cfg.Storage.Load()
	if err != nil {
		log.Warn("backend_session_restore_failed", slog.String("error", err.Error()))
	}
	client.session = stored

	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel
	if !cfg.DisableAutoRefresh {
		client.wg.Add(1)
		go client.refreshLoop(ctx)
	}

	return client
}

// Close stops auto refresh. It does not sign out.
func (client *Client) Close() {
	client.once.Do(func() {
		client.cancel()
		client.wg.Wait()
	})
}

// URL is the backend base URL.
func (client *Client) URL() string { return client.baseURL }

// AnonKey is the public API key.
func (client *Client) AnonKey() string { return client.anonKey }

// HTTPClient is the shared transport.
func (client *Client) HTTPClient() *http.Client { return client.http }

// AccessToken returns the current access token, or "".
func (client *Client) AccessToken() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.session == nil {
		return ""
	}
	return client.session.AccessToken
}

// Auth groups the session operations.
func (client *Client) Auth() *Auth { return &Auth{client: client} }

// MFA groups the factor operations.
func (client *Client) MFA() *MFA { return &MFA{client: client} }

// # Session State

func (client *Client) currentSession() *Session {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.session.clone()
}

// setSession replaces the session, persists it and notifies listeners.
func (client *Client) setSession(session *Session, event AuthEvent) {
	client.mu.Lock()
	client.session = session.clone()
	listeners := make([]Listener, 0, len(client.listeners))
	for _, listener := range client.listeners {
		listeners = append(listeners, listener)
	}
	client.mu.Unlock()

	var err error
	if session == nil {
		err = client.storage.Clear()
	} else {
		err = client.storage.Save(session)
	}
	if err != nil {
		client.log.Warn("backend_session_persist_failed", slog.String("error", err.Error()))
	}

	select {
	case client.kick <- struct{}{}:
	default:
	}

	for _, listener := range listeners {
		listener(event, session.clone())
	}
}

func (client *Client) subscribe(listener Listener) func() {
	client.mu.Lock()
	id := client.nextID
	client.nextID++
	client.listeners[id] = listener
	client.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			client.mu.Lock()
			delete(client.listeners, id)
			client.mu.Unlock()
		})
	}
}

// # Transport

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Code             string `json:"code"`
}

func (envelope errorEnvelope) text() string {
	for _, candidate := range []string{envelope.ErrorDescription, envelope.Message, envelope.Msg, envelope.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// call performs one /auth/v1 request. An empty bearer sends the anon key.
func (client *Client) call(ctx context.Context, method, path string, query url.Values, body any, bearer string, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend_encode_failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := client.baseURL + constants.AuthPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("backend_request_failed: %w", err)
	}
	client.authorize(request, bearer)

	response, err := client.http.Do(request)
	if err != nil {
		return apperr.Upstream("Network request failed", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return apperr.Upstream("Failed to read response", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return responseError(response.StatusCode, raw)
	}

	if target == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return apperr.Upstream("Invalid response from auth server", err)
	}
	return nil
}

// authorize attaches the apikey and bearer headers.
func (client *Client) authorize(request *http.Request, bearer string) {
	if bearer == "" {
		bearer = client.anonKey
	}
	request.Header.Set(constants.HeaderAPIKey, client.anonKey)
	request.Header.Set(constants.HeaderAuthorization, constants.AuthorizationBearer+bearer)
	request.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
}

// responseError converts a non-2xx reply into an [apperr.AppError].
func responseError(status int, raw []byte) *apperr.AppError {
	var envelope errorEnvelope
	message := ""
	if json.Unmarshal(raw, &envelope) == nil {
		message = envelope.text()
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}

	code := envelope.Code
	if code == "" {
		code = "HTTP_" + fmt.Sprint(status)
	}
	return &apperr.AppError{Code: code, Message: message, HTTPStatus: status}
}
