// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers, API key headers, and assurance levels.
  - Edge Functions: Route names shared by the backend and the client SDK.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "uservault-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// UpstreamTimeout bounds calls to third-party APIs (Turnstile, Discord).
	UpstreamTimeout = 10 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "uservault.app/auth/v1"

	// RoleAuthenticated is the JWT role of a signed-in user.
	RoleAuthenticated = "authenticated"

	// RoleAdmin is the JWT role allowed to call administrative functions.
	RoleAdmin = "admin"

	// RoleServiceRole identifies requests made with the service-role key.
	RoleServiceRole = "service_role"

	// AAL1 is the assurance level of a password-only session.
	AAL1 = "aal1"

	// AAL2 is the assurance level of an MFA-verified session.
	AAL2 = "aal2"
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderAPIKey         = "apikey"
	HeaderContentType    = "Content-Type"
	HeaderXEncrypted     = "x-encrypted"
	HeaderXBotSecret     = "x-bot-secret"
	HeaderXClientInfo    = "x-client-info"
	ContentTypeJSON      = "application/json"
	ContentTypeJSONUTF8  = "application/json; charset=utf-8"
	AuthorizationBearer  = "Bearer "
	EncryptedHeaderValue = "true"
)

// # Edge Functions

const (
	FunctionsPrefix = "/functions/v1"
	AuthPrefix      = "/auth/v1"

	FnCheckBanStatus     = "check-ban-status"
	FnSubmitBanAppeal    = "submit-ban-appeal"
	FnVerifyEmailChange  = "verify-email-change"
	FnVerifyTurnstile    = "verify-turnstile"
	FnAdminRemoveMFA     = "admin-remove-mfa"
	FnOGProfile          = "og-profile"
	FnGetLiveFeed        = "get-live-feed"
	FnSendDiscordMessage = "send-discord-message"
	FnBotBridge          = "bot-bridge"
	FnHealth             = "health"
	FnEncryptionKey      = "encryption-key"
	FnEncryptedAPI       = "encrypted-api"
	FnUploadProfileMedia = "upload-profile-media"
)

// # Error Codes

// CodeKeyMismatch tells an encrypted-api caller its envelope was sealed with
// stale key material.
const CodeKeyMismatch = "KEY_MISMATCH"

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldSuccess = "success"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaAuth   = "auth"
	SchemaPublic = "public"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixEmailChange = "auth:email_change:"
	RedisPrefixChannelKey  = "channel:key_material:"
	RedisPrefixLiveFeed    = "feed:live:"
)
