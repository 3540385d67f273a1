// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package channel serves the encrypted API channel.

The client fetches per-user key material from encryption-key, derives an
AES-256 key with [cryptox.DeriveChannelKey], and then talks to encrypted-api
with sealed {action, data} documents. The server keeps the material in Redis
and derives the same key on every request. Plaintext requests are accepted on
the same endpoint.
*/
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/cryptox"
	"github.com/taibuivan/uservault/internal/profile"
)

// KeyMaterialTTL bounds how long issued key material stays valid.
const KeyMaterialTTL = 12 * time.Hour

// Actions understood by encrypted-api.
const (
	ActionGetProfile     = "get_profile"
	ActionUpdateProfile  = "update_profile"
	ActionGetSocialLinks = "get_social_links"
	ActionGetBadges      = "get_badges"
)

// Call is the plaintext document carried by the channel.
type Call struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Reply is the document returned for a successful call.
type Reply struct {
	Data any `json:"data"`
}

// KeyStore issues and looks up per-user key material.
type KeyStore interface {

	/*
		Material returns the user's current key material, creating it when
		none exists. Concurrent first calls must agree on one value.
	*/
	Material(ctx context.Context, userID string) ([]byte, error)
}

// ProfileService is the subset of the profile service the channel exposes.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Update(ctx context.Context, userID string, input profile.UpdateInput) (*profile.Profile, error)
	SocialLinks(ctx context.Context, userID string) ([]profile.SocialLink, error)
	Badges(ctx context.Context, userID string) ([]profile.Badge, error)
}

// Service implements the channel's key handling and action dispatch.
type Service struct {
	keys     KeyStore
	profiles ProfileService
}

// NewService creates a channel [Service].
func NewService(keys KeyStore, profiles ProfileService) *Service {
	return &Service{keys: keys, profiles: profiles}
}

// KeyMaterial returns the user's key material.
func (service *Service) KeyMaterial(ctx context.Context, userID string) ([]byte, error) {
	material, err := service.keys.Material(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("channel_key_material_failed: %w", err)
	}
	return material, nil
}

// Key derives the user's channel key from their key material.
func (service *Service) Key(ctx context.Context, userID string) ([]byte, error) {
	material, err := service.KeyMaterial(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cryptox.DeriveChannelKey(material, userID)
}

/*
Dispatch runs call on behalf of userID.

Returns:
  - any: The action result
  - error: BadRequest for an unknown action or malformed data
*/
func (service *Service) Dispatch(ctx context.Context, userID string, call Call) (any, error) {
	switch call.Action {
	case ActionGetProfile:
		return service.profiles.Get(ctx, userID)

	case ActionUpdateProfile:
		var input profile.UpdateInput
		if len(call.Data) > 0 {
			if err := json.Unmarshal(call.Data, &input); err != nil {
				return nil, apperr.BadRequest("Invalid update_profile data")
			}
		}
		return service.profiles.Update(ctx, userID, input)

	case ActionGetSocialLinks:
		return service.profiles.SocialLinks(ctx, userID)

	case ActionGetBadges:
		return service.profiles.Badges(ctx, userID)

	case "":
		return nil, apperr.BadRequest("Missing action")

	default:
		return nil, apperr.BadRequest(fmt.Sprintf("Unknown action %q", call.Action))
	}
}
