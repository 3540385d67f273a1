// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package captcha

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

// TokenVerifier checks a captcha token.
type TokenVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Outcome, error)
}

// Handler serves verify-turnstile.
type Handler struct {
	verifier TokenVerifier
}

// NewHandler constructs a new captcha [Handler].
func NewHandler(verifier TokenVerifier) *Handler {
	return &Handler{verifier: verifier}
}

// Register attaches verify-turnstile to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Post("/"+constants.FnVerifyTurnstile, handler.verifyTurnstile)
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Codes   []string `json:"codes,omitempty"`
}

/*
POST /functions/v1/verify-turnstile.

Response:
  - 200: {"success": true}
  - 400: {"success": false, "error": "...", "codes": [...]} for a missing or rejected token
  - 500: {"success": false, "error": "..."} when the provider cannot be reached
*/
func (handler *Handler) verifyTurnstile(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil || input.Token == "" {
		respond.JSON(writer, http.StatusBadRequest, verifyResponse{Error: "Missing captcha token"})
		return
	}

	outcome, err := handler.verifier.Verify(request.Context(), input.Token, middleware.RealIP(request))
	if err != nil {
		ctxutil.GetLogger(request.Context()).Error("turnstile_verify_failed", slog.String("error", err.Error()))
		respond.JSON(writer, http.StatusInternalServerError, verifyResponse{Error: "Captcha verification unavailable"})
		return
	}

	if !outcome.Success {
		respond.JSON(writer, http.StatusBadRequest, verifyResponse{
			Error: "Captcha verification failed",
			Codes: outcome.ErrorCodes,
		})
		return
	}

	respond.OK(writer, verifyResponse{Success: true})
}
