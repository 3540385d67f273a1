// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

// Handler serves upload-profile-media.
type Handler struct {
	service *Service
}

// NewHandler constructs a new media [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register attaches upload-profile-media to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.With(middleware.RequireAuth).Post("/"+constants.FnUploadProfileMedia, handler.upload)
}

type uploadRequest struct {
	Kind        Kind   `json:"kind"`
	ContentType string `json:"contentType"`
}

/*
POST /functions/v1/upload-profile-media.

Request: {"kind": "avatar"|"music"|"video", "contentType": "image/png"}

Response:
  - 200: {"uploadUrl", "objectKey", "expiresIn"}
  - 400: Unknown kind or unsupported content type
  - 401: No bearer token
  - 503: Object storage not configured
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input uploadRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := handler.service.RequestUpload(request.Context(), userID, input.Kind, input.ContentType)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, upload)
}
