// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

// MessageSender delivers channel messages.
type MessageSender interface {
	SendMessage(ctx context.Context, message Message) (string, error)
}

// Handler serves send-discord-message and bot-bridge.
type Handler struct {
	sender    MessageSender
	bridge    *Bridge
	botSecret string
}

// NewHandler constructs a new discord [Handler].
func NewHandler(sender MessageSender, bridge *Bridge, botSecret string) *Handler {
	return &Handler{sender: sender, bridge: bridge, botSecret: botSecret}
}

// Register attaches the Discord functions to the /functions/v1 router.
func (handler *Handler) Register(router chi.Router) {
	router.With(middleware.RequireRole(sec.RoleAdmin)).Post("/"+constants.FnSendDiscordMessage, handler.sendMessage)
	router.Post("/"+constants.FnBotBridge, handler.botBridge)
}

// # Message Relay

type sendMessageRequest struct {
	ChannelID string          `json:"channelId"`
	Message   string          `json:"message"`
	Embed     json.RawMessage `json:"embed"`
}

type sendMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

func (input sendMessageRequest) validate() error {
	embed := bytes.TrimSpace(input.Embed)
	hasEmbed := len(embed) > 0 && !bytes.Equal(embed, []byte("null"))

	v := &validate.Validator{}
	v.Required("channelId", input.ChannelID).
		Custom("channelId", input.ChannelID != "" && !snowflakeRegex.MatchString(input.ChannelID), "Must be a Discord channel ID").
		MaxLen("message", input.Message, MaxContentLength).
		Custom("message", input.Message == "" && !hasEmbed, "Either message or embed is required").
		Custom("embed", hasEmbed && embed[0] != '{', "Must be a JSON object")
	return v.Err()
}

/*
POST /functions/v1/send-discord-message.

Request: {"channelId": "...", "message"?: "...", "embed"?: {...}}

Response:
  - 200: {"success": true, "messageId": "..."}
  - 400: Invalid payload or Discord rejected the message
  - 500: Bot not configured or Discord unavailable
*/
func (handler *Handler) sendMessage(writer http.ResponseWriter, request *http.Request) {
	var input sendMessageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := Message{ChannelID: input.ChannelID, Content: input.Message}
	if !bytes.Equal(bytes.TrimSpace(input.Embed), []byte("null")) {
		message.Embed = input.Embed
	}

	id, err := handler.sender.SendMessage(request.Context(), message)
	if err != nil {
		ctxutil.GetLogger(request.Context()).Error("discord_send_failed",
			slog.String("channel_id", input.ChannelID),
			slog.String("error", err.Error()),
		)

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			respond.Error(writer, request, apperr.BadRequest("Discord rejected the message: "+apiErr.Message))
			return
		}
		respond.ErrorWithStatus(writer, request, http.StatusInternalServerError, apperr.Upstream("Failed to send Discord message", err))
		return
	}

	respond.OK(writer, sendMessageResponse{Success: true, MessageID: id})
}

// # Bot Bridge

type botBridgeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

/*
POST /functions/v1/bot-bridge.

Request: header x-bot-secret, body {"action": "...", "discordId": "...", "params": {...}}

Response:
  - 200: {"success": true, "data": <procedure result>}
  - 400: Malformed request or unknown action
  - 401: Missing or wrong bot secret
  - 500: Procedure failed
*/
func (handler *Handler) botBridge(writer http.ResponseWriter, request *http.Request) {
	secret := request.Header.Get(constants.HeaderXBotSecret)
	if handler.botSecret == "" || !sec.ConstantTimeEqual(secret, handler.botSecret) {
		respond.Error(writer, request, apperr.Unauthorized("Invalid bot secret"))
		return
	}

	var input BridgeRequest
	if err := requestutil.DecodeJSONNumbers(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	data, err := handler.bridge.Execute(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, botBridgeResponse{Success: true, Data: data})
}
