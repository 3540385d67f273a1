// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/respond"
	"github.com/taibuivan/uservault/internal/platform/sec"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Declared here so the middleware does not depend on the auth service and
// tests can inject a stub.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// APIKeys holds the two project keys a request may present.
type APIKeys struct {
	Anon        string
	ServiceRole string
}

// role maps a presented key to its API role, or "" when it matches neither.
func (keys APIKeys) role(presented string) string {
	switch {
	case presented == "":
		return ""
	case sec.ConstantTimeEqual(presented, keys.Anon):
		return string(sec.RoleAnon)
	case keys.ServiceRole != "" && sec.ConstantTimeEqual(presented, keys.ServiceRole):
		return constants.RoleServiceRole
	default:
		return ""
	}
}

// APIKey rejects requests whose apikey header does not match a project key.
//
// # Flow
//  1. Read the 'apikey' header.
//  2. Resolve it to "anon" or "service_role".
//  3. Abort with 401 when it matches neither.
//  4. Inject the resolved role into the request context.
func APIKey(keys APIKeys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			role := keys.role(request.Header.Get(constants.HeaderAPIKey))
			if role == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid API key"))
				return
			}

			ctx := ctxutil.WithAPIRole(request.Context(), role)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, or the bearer is one of the project keys, proceed as anonymous.
//  3. Otherwise verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] and the raw token into the request context.
func Authenticate(verifier TokenVerifier, keys APIKeys) func(http.Handler) http.Handler {
	return authenticate(verifier, keys, false)
}

// OptionalAuthenticate is [Authenticate] for routes that serve anonymous
// callers too: a malformed, invalid or expired bearer proceeds as anonymous
// instead of failing with 401. Routes behind it that need a user still use
// [RequireAuth] or [RequireRole].
func OptionalAuthenticate(verifier TokenVerifier, keys APIKeys) func(http.Handler) http.Handler {
	return authenticate(verifier, keys, true)
}

func authenticate(verifier TokenVerifier, keys APIKeys, lenient bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Header.Get(constants.HeaderAuthorization) == "" {
				next.ServeHTTP(writer, request)
				return
			}

			reject := func(appErr *apperr.AppError) {
				if !lenient {
					respond.Error(writer, request, appErr)
					return
				}
				ctxutil.GetLogger(request.Context()).Debug("auth_bearer_ignored", slog.String("reason", appErr.Message))
				next.ServeHTTP(writer, request)
			}

			token := requestutil.BearerToken(request)
			if token == "" {
				reject(apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// The client sends the anon key as bearer when nobody is signed in
			if keys.role(token) != "" {
				next.ServeHTTP(writer, request)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				reject(apperr.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithAccessToken(ctx, token)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// It implies [RequireAuth]. Requests made with the service-role key pass
// regardless of the bearer.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if ctxutil.GetAPIRole(request.Context()) == constants.RoleServiceRole {
				next.ServeHTTP(writer, request)
				return
			}

			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
