// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package channel

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/cryptox"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

// Handler serves encryption-key and encrypted-api.
type Handler struct {
	service *Service
}

// NewHandler constructs a new channel [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register attaches the channel functions to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/"+constants.FnEncryptionKey, handler.encryptionKey)
		r.Post("/"+constants.FnEncryptedAPI, handler.encryptedAPI)
	})
}

type keyMaterialResponse struct {
	KeyMaterial string `json:"keyMaterial"`
}

/*
POST /functions/v1/encryption-key.

Response:
  - 200: {"keyMaterial": "<base64>"}
  - 401: No bearer token
*/
func (handler *Handler) encryptionKey(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	material, err := handler.service.KeyMaterial(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, keyMaterialResponse{KeyMaterial: base64.StdEncoding.EncodeToString(material)})
}

/*
POST /functions/v1/encrypted-api.

Request: {"encrypted", "iv"} with header x-encrypted: true, or plaintext {"action", "data"}.

Response:
  - 200: {"encrypted", "iv"} sealing {"data": ...} for encrypted requests, {"data": ...} otherwise
  - 400: Undecryptable envelope, unknown action or invalid data
  - 401: No bearer token
*/
func (handler *Handler) encryptedAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ctx := request.Context()
	encrypted := request.Header.Get(constants.HeaderXEncrypted) == constants.EncryptedHeaderValue

	var (
		call Call
		key  []byte
	)

	if encrypted {
		var envelope cryptox.Envelope
		if err := requestutil.DecodeJSON(request, &envelope); err != nil || !envelope.IsEnvelope() {
			respond.Error(writer, request, apperr.BadRequest("Invalid encrypted envelope"))
			return
		}

		key, err = handler.service.Key(ctx, userID)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		if err := cryptox.Open(envelope, key, &call); err != nil {
			ctxutil.GetLogger(ctx).Warn("channel_decrypt_failed", slog.String("error", err.Error()))
			respond.Error(writer, request, errKeyMismatch())
			return
		}
	} else if err := requestutil.DecodeJSON(request, &call); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Dispatch(ctx, userID, call)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reply := Reply{Data: result}
	if !encrypted {
		respond.OK(writer, reply)
		return
	}

	sealed, err := cryptox.Seal(reply, key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, sealed)
}

// errKeyMismatch reports an envelope that the current key material cannot open.
func errKeyMismatch() *apperr.AppError {
	appErr := apperr.BadRequest("Unable to decrypt payload")
	appErr.Code = constants.CodeKeyMismatch
	return appErr
}
