// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
	"github.com/taibuivan/uservault/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the /auth/v1 endpoints.
//
// # Scope
//
// Registration, password and refresh grants, sign-out, the account document
// and TOTP factors. The API key and bearer token are resolved upstream.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST   /signup
//   - POST   /token?grant_type=password|refresh_token
//   - POST   /logout?scope=local|global
//   - GET    /user, PUT /user
//   - GET    /factors, POST /factors
//   - POST   /factors/{id}/verify
//   - DELETE /factors/{id}
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signUp)
	router.Post("/token", handler.token)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/user", handler.getUser)
		r.Put("/user", handler.updateUser)
		r.Get("/factors", handler.listFactors)
		r.Post("/factors", handler.enrollFactor)
		r.Post("/factors/{id}/verify", handler.verifyFactor)
		r.Delete("/factors/{id}", handler.unenrollFactor)
	})

	return router
}

// # Request Payloads

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

type tokenRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

type updateUserRequest struct {
	Email    *string        `json:"email"`
	Password *string        `json:"password"`
	Data     map[string]any `json:"data"`
}

type enrollFactorRequest struct {
	FactorType   string `json:"factor_type"`
	FriendlyName string `json:"friendly_name"`
}

type verifyFactorRequest struct {
	Code string `json:"code"`
}

/*
SignUp registers a new account and returns its first session.

POST /auth/v1/signup

Response:
  - 200: TokenResponse
  - 409: Email or username already taken
  - 422: Validation failure
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.SignUp(request.Context(), SignUpInput{
		Email:     input.Email,
		Password:  input.Password,
		Data:      input.Data,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Token exchanges credentials or a refresh token for a session.

POST /auth/v1/token?grant_type=password
POST /auth/v1/token?grant_type=refresh_token

Response:
  - 200: TokenResponse
  - 400: Unsupported grant type
  - 401: Invalid credentials or refresh token
*/
func (handler *Handler) token(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var (
		session *TokenResponse
		err     error
	)

	switch request.URL.Query().Get(FieldGrantType) {
	case "password":
		validator := &validate.Validator{}
		validator.Required(FieldEmail, input.Email).Required(FieldPassword, input.Password)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}

		session, err = handler.authService.SignInWithPassword(request.Context(), PasswordGrant{
			Email:     input.Email,
			Password:  input.Password,
			UserAgent: request.UserAgent(),
			IPAddress: middleware.RealIP(request),
		})

	case "refresh_token":
		if input.RefreshToken == "" {
			respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
			return
		}

		session, err = handler.authService.RefreshSession(request.Context(), input.RefreshToken, request.UserAgent(), middleware.RealIP(request))

	default:
		respond.Error(writer, request, apperr.BadRequest("Unsupported grant type"))
		return
	}

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Logout revokes the current session, or all of them with scope=global.

POST /auth/v1/logout

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	scope := LogoutLocal
	if request.URL.Query().Get("scope") == string(LogoutGlobal) {
		scope = LogoutGlobal
	}

	if err := handler.authService.Logout(request.Context(), claims, scope); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GetUser returns the caller's account with factors.

GET /auth/v1/user
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.GetUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateUser changes metadata or the password, or starts an email change.

PUT /auth/v1/user

Response:
  - 200: User (new_email set while a change is pending)
  - 409: Email already in use
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Email(FieldEmail, *input.Email)
	}
	if input.Password != nil {
		validator.MinLen(FieldPassword, *input.Password, MinPasswordLength)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.UpdateUser(request.Context(), userID, UpdateUserInput{
		Email:    input.Email,
		Password: input.Password,
		Data:     input.Data,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// GET /auth/v1/factors
func (handler *Handler) listFactors(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	factors, err := handler.authService.ListFactors(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, factors)
}

/*
EnrollFactor starts a TOTP enrollment.

POST /auth/v1/factors

Response:
  - 200: Enrollment with qr_code, secret and uri
*/
func (handler *Handler) enrollFactor(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input enrollFactorRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.OneOf(FieldFactorType, input.FactorType, FactorTypeTOTP).
		MaxLen(FieldFriendlyName, input.FriendlyName, 64)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	enrollment, err := handler.authService.EnrollFactor(request.Context(), userID, input.FriendlyName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, enrollment)
}

/*
VerifyFactor checks a TOTP code and returns an aal2 session.

POST /auth/v1/factors/{id}/verify

Response:
  - 200: TokenResponse
  - 422: Wrong code
*/
func (handler *Handler) verifyFactor(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input verifyFactorRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.NumericCode(FieldCode, input.Code, 6).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.VerifyFactor(
		request.Context(),
		claims,
		requestutil.Param(request, "id"),
		input.Code,
		request.UserAgent(),
		middleware.RealIP(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
UnenrollFactor removes one of the caller's factors.

DELETE /auth/v1/factors/{id}

Response:
  - 200: {"id": "..."}
  - 403: Verified factor removed from an aal1 session
*/
func (handler *Handler) unenrollFactor(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	factorID := requestutil.Param(request, "id")
	if err := handler.authService.UnenrollFactor(request.Context(), claims, factorID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"id": factorID})
}
