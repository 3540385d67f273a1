// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
	"github.com/taibuivan/uservault/internal/platform/validate"
)

// Handler serves the moderation edge functions.
type Handler struct {
	moderationService *Service
}

// NewHandler constructs a new moderation [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{moderationService: service}
}

// Register attaches the moderation functions to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Post("/"+constants.FnCheckBanStatus, handler.checkBanStatus)
	router.Post("/"+constants.FnSubmitBanAppeal, handler.submitBanAppeal)
}

type checkBanStatusRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

/*
POST /functions/v1/check-ban-status.

Description: A verified bearer overrides any userId in the body. The
response is always 200; on failure it is {"isBanned": false}.
*/
func (handler *Handler) checkBanStatus(writer http.ResponseWriter, request *http.Request) {
	var input checkBanStatusRequest

	// An unreadable body is treated like an empty lookup
	_ = requestutil.DecodeOptionalJSON(request, &input)

	lookup := Lookup{UserID: input.UserID, Username: input.Username}
	if claims := requestutil.Claims(request); claims != nil {
		lookup.UserID = claims.UserID
	}

	status := handler.moderationService.CheckStatus(request.Context(), lookup)
	if !status.IsOK() {
		ctxutil.GetLogger(request.Context()).Warn("ban_status_check_failed",
			slog.String("error", status.Err.Error()),
			slog.Any("cause", status.Err.Cause),
		)
	}

	respond.OK(writer, status.Data)
}

type submitBanAppealRequest struct {
	Appeal string `json:"appeal"`
}

/*
POST /functions/v1/submit-ban-appeal.

Response:
  - 200: {"success": true}
  - 401: No bearer
  - 404: Not banned
  - 409: Already appealed or past the deadline
*/
func (handler *Handler) submitBanAppeal(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitBanAppealRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("appeal", input.Appeal).MaxLen("appeal", input.Appeal, MaxAppealLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.moderationService.SubmitAppeal(request.Context(), userID, input.Appeal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{constants.FieldSuccess: true})
}
