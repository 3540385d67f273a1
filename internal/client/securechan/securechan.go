// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package securechan wraps calls to the encrypted-api function in an optional
AES-GCM envelope.

The channel key is derived locally from server-issued key material whenever
the identity changes. Calls made before the key arrives go out as plaintext
rather than waiting for it. When the server reports that the material has
rotated, the key is dropped, fetched again, and the call is repeated once in
plaintext.
*/
package securechan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/cryptox"
	"github.com/taibuivan/uservault/internal/platform/result"
)

// Actions understood by encrypted-api.
const (
	ActionGetProfile     = "get_profile"
	ActionUpdateProfile  = "update_profile"
	ActionGetSocialLinks = "get_social_links"
	ActionGetBadges      = "get_badges"
)

const (
	keyFetchRetries = 3
	keyFetchBackoff = 250 * time.Millisecond
	keyFetchTimeout = 30 * time.Second
)

// ErrNotAuthenticated is returned by [Channel.SecureCall] with no current user.
var ErrNotAuthenticated = apperr.Unauthorized("Not authenticated")

// Caller sends a request to an edge function.
type Caller interface {
	InvokeSecure(ctx context.Context, name string, body any, headers map[string]string) result.Result[json.RawMessage]
}

// Options tunes a single [Channel.SecureCall].
type Options struct {
	// Plaintext skips encryption even when a key is available.
	Plaintext bool
}

type call struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

type keyMaterialResponse struct {
	KeyMaterial string `json:"keyMaterial"`
}

// Channel holds the derived key for the current identity.
type Channel struct {
	caller Caller
	log    *slog.Logger

	mu         sync.RWMutex
	userID     string
	key        []byte
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a [Channel] with no user.
func New(caller Caller, log *slog.Logger) *Channel {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{caller: caller, log: log, ctx: ctx, cancel: cancel}
}

// Close abandons pending key fetches and waits for them to exit.
func (channel *Channel) Close() {
	channel.cancel()
	channel.wg.Wait()
}

// SetUser switches identity. A new user starts a background key fetch; nil
// drops the key at once. Setting the same user again is a no-op.
func (channel *Channel) SetUser(user *backend.User) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if user == nil {
		channel.userID = ""
		channel.key = nil
		channel.generation++
		return
	}

	if user.ID == channel.userID {
		return
	}

	channel.userID = user.ID
	channel.startFetch()
}

// startFetch drops the key and fetches it again for the current user. The
// caller holds mu.
func (channel *Channel) startFetch() {
	channel.key = nil
	channel.generation++
	if channel.ctx.Err() != nil {
		return
	}

	channel.wg.Add(1)
	go channel.fetchKey(channel.generation, channel.userID)
}

// rekey refetches the key after the server rejected stale, unless the key
// already changed since.
func (channel *Channel) rekey(userID string, stale []byte) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if channel.userID != userID || !bytes.Equal(channel.key, stale) {
		return
	}
	channel.log.Info("securechan_key_rotated", slog.String("user_id", userID))
	channel.startFetch()
}

// HasKey reports whether calls are currently encrypted.
func (channel *Channel) HasKey() bool {
	channel.mu.RLock()
	defer channel.mu.RUnlock()
	return channel.key != nil
}

// fetchKey derives the key for userID and installs it if the identity has
// not changed in the meantime.
func (channel *Channel) fetchKey(generation uint64, userID string) {
	defer channel.wg.Done()

	ctx, cancel := context.WithTimeout(channel.ctx, keyFetchTimeout)
	defer cancel()

	var material []byte
	backoff := retry.WithMaxRetries(keyFetchRetries, retry.NewExponential(keyFetchBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		reply := channel.caller.InvokeSecure(ctx, constants.FnEncryptionKey, nil, nil)
		if reply.Err != nil {
			if reply.Err.HTTPStatus >= http.StatusInternalServerError {
				return retry.RetryableError(reply.Err)
			}
			return reply.Err
		}

		var body keyMaterialResponse
		if err := json.Unmarshal(reply.Data, &body); err != nil {
			return err
		}

		decoded, err := base64.StdEncoding.DecodeString(body.KeyMaterial)
		if err != nil {
			return err
		}
		material = decoded
		return nil
	})
	if err != nil {
		channel.log.Warn("securechan_key_fetch_failed", slog.String("error", err.Error()))
		return
	}

	key, err := cryptox.DeriveChannelKey(material, userID)
	if err != nil {
		channel.log.Warn("securechan_key_derive_failed", slog.String("error", err.Error()))
		return
	}

	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.generation != generation {
		return
	}
	channel.key = key
}

func (channel *Channel) current() (userID string, key []byte) {
	channel.mu.RLock()
	defer channel.mu.RUnlock()
	return channel.userID, channel.key
}

/*
SecureCall sends {action, data} to encrypted-api.

With a key and without [Options.Plaintext] the request is sealed and flagged
with x-encrypted; an encrypted reply is opened before it is returned. Any
other reply passes through unchanged. A KEY_MISMATCH rejection starts a key
refetch and repeats the call once in plaintext.
*/
func (channel *Channel) SecureCall(ctx context.Context, action string, data any, opts Options) result.Result[json.RawMessage] {
	userID, key := channel.current()
	if userID == "" {
		return result.Fail[json.RawMessage](ErrNotAuthenticated)
	}

	payload := call{Action: action, Data: data}

	if key == nil || opts.Plaintext {
		return channel.caller.InvokeSecure(ctx, constants.FnEncryptedAPI, payload, nil)
	}

	envelope, err := cryptox.Seal(payload, key)
	if err != nil {
		return result.Fail[json.RawMessage](err)
	}

	headers := map[string]string{constants.HeaderXEncrypted: constants.EncryptedHeaderValue}
	reply := channel.caller.InvokeSecure(ctx, constants.FnEncryptedAPI, envelope, headers)
	if reply.Err != nil {
		if reply.Err.Code != constants.CodeKeyMismatch {
			return reply
		}
		channel.rekey(userID, key)
		return channel.caller.InvokeSecure(ctx, constants.FnEncryptedAPI, payload, nil)
	}

	var sealed cryptox.Envelope
	if json.Unmarshal(reply.Data, &sealed) != nil || !sealed.IsEnvelope() {
		return reply
	}

	var opened json.RawMessage
	if err := cryptox.Open(sealed, key, &opened); err != nil {
		return result.Fail[json.RawMessage](apperr.Upstream("Unable to decrypt response", err))
	}
	return result.OK(opened)
}

// # Convenience Wrappers

// GetProfile calls get_profile.
func (channel *Channel) GetProfile(ctx context.Context) result.Result[json.RawMessage] {
	return channel.SecureCall(ctx, ActionGetProfile, nil, Options{})
}

// UpdateProfile calls update_profile with the changed fields.
func (channel *Channel) UpdateProfile(ctx context.Context, changes any) result.Result[json.RawMessage] {
	return channel.SecureCall(ctx, ActionUpdateProfile, changes, Options{})
}

// GetSocialLinks calls get_social_links.
func (channel *Channel) GetSocialLinks(ctx context.Context) result.Result[json.RawMessage] {
	return channel.SecureCall(ctx, ActionGetSocialLinks, nil, Options{})
}

// GetBadges calls get_badges.
func (channel *Channel) GetBadges(ctx context.Context) result.Result[json.RawMessage] {
	return channel.SecureCall(ctx, ActionGetBadges, nil, Options{})
}
