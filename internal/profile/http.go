// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

// Handler serves og-profile.
type Handler struct {
	profileService *Service
}

// NewHandler constructs a new profile [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{profileService: service}
}

// Register attaches og-profile to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Get("/"+constants.FnOGProfile, handler.openGraph)
}

/*
GET /functions/v1/og-profile?username=.

Response:
  - 200: OpenGraph
  - 400: Missing or invalid username
  - 404: Unknown username
  - 500: Storage failure
*/
func (handler *Handler) openGraph(writer http.ResponseWriter, request *http.Request) {
	og, err := handler.profileService.OpenGraph(request.Context(), request.URL.Query().Get("username"))
	if err != nil {
		if appErr := apperr.As(err); appErr == nil || appErr.HTTPStatus >= http.StatusInternalServerError {
			respond.ErrorWithStatus(writer, request, http.StatusInternalServerError, err)
			return
		}
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Cache-Control", "public, max-age=300")
	respond.OK(writer, og)
}
