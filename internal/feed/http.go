// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package feed

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/respond"
	"github.com/taibuivan/uservault/pkg/pagination"
)

// Handler serves get-live-feed.
type Handler struct {
	repository Repository
}

// NewHandler constructs a new feed [Handler].
func NewHandler(repository Repository) *Handler {
	return &Handler{repository: repository}
}

// Register attaches get-live-feed to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Get("/"+constants.FnGetLiveFeed, handler.liveFeed)
	router.Post("/"+constants.FnGetLiveFeed, handler.liveFeed)
}

type liveFeedResponse struct {
	Success bool    `json:"success"`
	Feed    []Entry `json:"feed"`
}

/*
GET /functions/v1/get-live-feed?limit=.

Response:
  - 200: {"success": true, "feed": [...]}
  - 400: limit outside 1..100
  - 500: Storage failure
*/
func (handler *Handler) liveFeed(writer http.ResponseWriter, request *http.Request) {
	limit, err := pagination.LimitFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := handler.repository.Recent(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if entries == nil {
		entries = []Entry{}
	}

	respond.OK(writer, liveFeedResponse{Success: true, Feed: entries})
}
