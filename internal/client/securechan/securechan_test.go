// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package securechan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/cryptox"
	"github.com/taibuivan/uservault/internal/platform/result"
)

const testUserID = "user-1"

// fakeFunctions plays encrypted-api and encryption-key for a single user.
type fakeFunctions struct {
	t        *testing.T
	material []byte
	release  chan struct{}

	mu          sync.Mutex
	keyFailures int
	keyCalls    int
	encrypted   []bool
}

func newFakeFunctions(t *testing.T) *fakeFunctions {
	material, err := cryptox.NewKeyMaterial()
	require.NoError(t, err)

	release := make(chan struct{})
	close(release)
	return &fakeFunctions{t: t, material: material, release: release}
}

func (fake *fakeFunctions) InvokeSecure(ctx context.Context, name string, body any, headers map[string]string) result.Result[json.RawMessage] {
	switch name {
	case constants.FnEncryptionKey:
		select {
		case <-fake.release:
		case <-ctx.Done():
			return result.Fail[json.RawMessage](apperr.Upstream("Network request failed", ctx.Err()))
		}

		fake.mu.Lock()
		fake.keyCalls++
		failing := fake.keyFailures > 0
		if failing {
			fake.keyFailures--
		}
		material := fake.material
		fake.mu.Unlock()

		if failing {
			return result.Fail[json.RawMessage](&apperr.AppError{Message: "HTTP 503", HTTPStatus: http.StatusServiceUnavailable})
		}
		return fake.reply(map[string]string{"keyMaterial": base64.StdEncoding.EncodeToString(material)})

	case constants.FnEncryptedAPI:
		encrypted := headers[constants.HeaderXEncrypted] == constants.EncryptedHeaderValue

		fake.mu.Lock()
		fake.encrypted = append(fake.encrypted, encrypted)
		material := fake.material
		fake.mu.Unlock()

		if !encrypted {
			plain := body.(call)
			return fake.reply(map[string]any{"data": map[string]any{"action": plain.Action, "echo": plain.Data}})
		}

		key, err := cryptox.DeriveChannelKey(material, testUserID)
		require.NoError(fake.t, err)

		var opened struct {
			Action string          `json:"action"`
			Data   json.RawMessage `json:"data"`
		}
		if err := cryptox.Open(*body.(*cryptox.Envelope), key, &opened); err != nil {
			return result.Fail[json.RawMessage](&apperr.AppError{
				Code:       constants.CodeKeyMismatch,
				Message:    "Unable to decrypt payload",
				HTTPStatus: http.StatusBadRequest,
			})
		}

		sealed, err := cryptox.Seal(map[string]any{"data": map[string]any{"action": opened.Action, "echo": opened.Data}}, key)
		require.NoError(fake.t, err)
		return fake.reply(sealed)
	}
	return result.Fail[json.RawMessage](apperr.NotFound("Function"))
}

func (fake *fakeFunctions) reply(value any) result.Result[json.RawMessage] {
	raw, err := json.Marshal(value)
	require.NoError(fake.t, err)
	return result.OK(json.RawMessage(raw))
}

// rotate replaces the server-side material, as an expired Redis entry would.
func (fake *fakeFunctions) rotate(t *testing.T) {
	material, err := cryptox.NewKeyMaterial()
	require.NoError(t, err)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.material = material
}

func (fake *fakeFunctions) modes() []bool {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]bool(nil), fake.encrypted...)
}

func newChannel(t *testing.T, fake *fakeFunctions) *Channel {
	channel := New(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(channel.Close)
	return channel
}

type echoReply struct {
	Data struct {
		Action string          `json:"action"`
		Echo   json.RawMessage `json:"echo"`
	} `json:"data"`
}

func decode(t *testing.T, outcome result.Result[json.RawMessage]) echoReply {
	t.Helper()
	require.Nil(t, outcome.Err)
	var reply echoReply
	require.NoError(t, json.Unmarshal(outcome.Data, &reply))
	return reply
}

func TestSecureCall_NotAuthenticated(t *testing.T) {
	channel := newChannel(t, newFakeFunctions(t))

	for _, opts := range []Options{{}, {Plaintext: true}} {
		outcome := channel.SecureCall(context.Background(), ActionGetProfile, nil, opts)
		require.NotNil(t, outcome.Err)
		assert.Equal(t, http.StatusUnauthorized, outcome.Err.HTTPStatus)
	}
}

func TestSecureCall_EncryptedRoundTrip(t *testing.T) {
	fake := newFakeFunctions(t)
	channel := newChannel(t, fake)

	channel.SetUser(&backend.User{ID: testUserID})
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)

	reply := decode(t, channel.UpdateProfile(context.Background(), map[string]string{"display_name": "Ada"}))

	assert.Equal(t, ActionUpdateProfile, reply.Data.Action)
	assert.JSONEq(t, `{"display_name":"Ada"}`, string(reply.Data.Echo))
	assert.Equal(t, []bool{true}, fake.modes())
}

func TestSecureCall_PendingKeyFallsBackToPlaintext(t *testing.T) {
	fake := newFakeFunctions(t)
	fake.release = make(chan struct{})
	channel := newChannel(t, fake)

	channel.SetUser(&backend.User{ID: testUserID})

	done := make(chan result.Result[json.RawMessage], 1)
	go func() { done <- channel.GetBadges(context.Background()) }()

	select {
	case outcome := <-done:
		assert.Equal(t, ActionGetBadges, decode(t, outcome).Data.Action)
	case <-time.After(time.Second):
		t.Fatal("SecureCall waited for the key")
	}
	assert.Equal(t, []bool{false}, fake.modes())

	close(fake.release)
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)
}

func TestSecureCall_PlaintextOption(t *testing.T) {
	fake := newFakeFunctions(t)
	channel := newChannel(t, fake)
	channel.SetUser(&backend.User{ID: testUserID})
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)

	reply := decode(t, channel.SecureCall(context.Background(), ActionGetSocialLinks, nil, Options{Plaintext: true}))

	assert.Equal(t, ActionGetSocialLinks, reply.Data.Action)
	assert.Equal(t, []bool{false}, fake.modes())
}

func TestSetUser_NilClearsKey(t *testing.T) {
	channel := newChannel(t, newFakeFunctions(t))
	channel.SetUser(&backend.User{ID: testUserID})
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)

	channel.SetUser(nil)

	assert.False(t, channel.HasKey())
	outcome := channel.GetProfile(context.Background())
	require.NotNil(t, outcome.Err)
	assert.Equal(t, http.StatusUnauthorized, outcome.Err.HTTPStatus)
}

func TestSetUser_DiscardsStaleFetch(t *testing.T) {
	fake := newFakeFunctions(t)
	fake.release = make(chan struct{})
	channel := New(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))

	channel.SetUser(&backend.User{ID: testUserID})
	channel.SetUser(nil)
	close(fake.release)
	channel.Close()

	assert.False(t, channel.HasKey())
}

func TestSetUser_RetriesKeyFetch(t *testing.T) {
	fake := newFakeFunctions(t)
	fake.keyFailures = 2
	channel := newChannel(t, fake)

	channel.SetUser(&backend.User{ID: testUserID})

	require.Eventually(t, channel.HasKey, 5*time.Second, 10*time.Millisecond)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 3, fake.keyCalls)
}

func TestSetUser_SameUserKeepsKey(t *testing.T) {
	fake := newFakeFunctions(t)
	channel := newChannel(t, fake)

	channel.SetUser(&backend.User{ID: testUserID})
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)
	channel.SetUser(&backend.User{ID: testUserID})

	assert.True(t, channel.HasKey())
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.keyCalls)
}

func TestSecureCall_RotatedMaterialRecovers(t *testing.T) {
	fake := newFakeFunctions(t)
	channel := newChannel(t, fake)
	user := &backend.User{ID: testUserID}

	channel.SetUser(user)
	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)

	fake.rotate(t)
	channel.SetUser(user)

	assert.Equal(t, ActionGetProfile, decode(t, channel.GetProfile(context.Background())).Data.Action)
	assert.Equal(t, []bool{true, false}, fake.modes(), "rejected envelope is repeated in plaintext")

	require.Eventually(t, channel.HasKey, time.Second, 5*time.Millisecond)
	for range 2 {
		assert.Equal(t, ActionGetProfile, decode(t, channel.GetProfile(context.Background())).Data.Action)
	}
	assert.Equal(t, []bool{true, false, true, true}, fake.modes())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 2, fake.keyCalls)
}
