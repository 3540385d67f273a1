// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the account security edge functions.

# Security

verify-email-change requires a user bearer. admin-remove-mfa requires the
admin role or the service-role key.
*/
package account

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
	"github.com/taibuivan/uservault/internal/platform/sec"
	"github.com/taibuivan/uservault/internal/platform/validate"
)

// Handler implements the HTTP layer for account security functions.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Register attaches the account functions to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Post("/"+constants.FnVerifyEmailChange, handler.verifyEmailChange)

	router.With(middleware.RequireRole(sec.RoleAdmin)).
		Post("/"+constants.FnAdminRemoveMFA, handler.adminRemoveMFA)
}

type verifyEmailChangeRequest struct {
	Code     string `json:"code"`
	NewEmail string `json:"newEmail"`
}

/*
POST /functions/v1/verify-email-change.

Response:
  - 200: {"success": true}
  - 401: No bearer
  - 500: {"error": "..."} for every other failure
*/
func (handler *Handler) verifyEmailChange(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input verifyEmailChangeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.ErrorWithStatus(writer, request, http.StatusInternalServerError, err)
		return
	}

	validator := &validate.Validator{}
	validator.NumericCode(constants.FieldCode, input.Code, 6).
		Required("newEmail", input.NewEmail).
		Email("newEmail", input.NewEmail)
	if err := validator.Err(); err != nil {
		respond.ErrorWithStatus(writer, request, http.StatusInternalServerError, err)
		return
	}

	if err := handler.accountService.VerifyEmailChange(request.Context(), userID, input.Code, input.NewEmail); err != nil {
		respond.ErrorWithStatus(writer, request, http.StatusInternalServerError, err)
		return
	}

	respond.OK(writer, map[string]bool{constants.FieldSuccess: true})
}

type adminRemoveMFARequest struct {
	UserID string `json:"userId"`
}

type adminRemoveMFAResponse struct {
	Success        bool   `json:"success"`
	DeletedFactors int    `json:"deletedFactors"`
	Message        string `json:"message"`
}

/*
POST /functions/v1/admin-remove-mfa.

Response:
  - 200: {"success": true, "deletedFactors": n, "message": "..."}
  - 400: {"error": "..."}
  - 401/403: Missing bearer or not an administrator
*/
func (handler *Handler) adminRemoveMFA(writer http.ResponseWriter, request *http.Request) {
	var input adminRemoveMFARequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.ErrorWithStatus(writer, request, http.StatusBadRequest, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required("userId", input.UserID).UUID("userId", input.UserID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	actorID := constants.RoleServiceRole
	if claims := requestutil.Claims(request); claims != nil {
		actorID = claims.UserID
	}

	deleted, err := handler.accountService.RemoveMFA(request.Context(), actorID, input.UserID)
	if err != nil {
		if !apperr.IsAppError(err) {
			ctxutil.GetLogger(request.Context()).Error("admin_mfa_remove_failed", slog.String("error", err.Error()))
			err = apperr.BadRequest("Failed to remove MFA factors")
		}
		respond.ErrorWithStatus(writer, request, http.StatusBadRequest, err)
		return
	}

	respond.OK(writer, adminRemoveMFAResponse{
		Success:        true,
		DeletedFactors: deleted,
		Message:        fmt.Sprintf("Removed %d MFA factor(s)", deleted),
	})
}
