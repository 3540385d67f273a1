// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package discord connects the backend to the UserVault Discord bot.

Two edge functions live here:

  - send-discord-message relays a message or embed into a channel through the
    Discord REST API, authenticated with the bot token.
  - bot-bridge lets the bot process call the economy stored procedures
    (balances, daily rewards, badge steals) on behalf of a Discord user.
*/
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/taibuivan/uservault/internal/platform/constants"
)

// MaxContentLength is Discord's limit for a message body.
const MaxContentLength = 2000

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

var (
	// ErrNotConfigured is returned when no bot token is set.
	ErrNotConfigured = errors.New("discord: bot token not configured")
)

// APIError is a non-2xx reply from the Discord API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: status %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Message is an outbound channel message.
type Message struct {
	ChannelID string
	Content   string
	Embed     json.RawMessage
}

type createMessageBody struct {
	Content string            `json:"content,omitempty"`
	Embeds  []json.RawMessage `json:"embeds,omitempty"`
}

type createMessageReply struct {
	ID string `json:"id"`
}

type errorReply struct {
	Message string `json:"message"`
}

// Client calls the Discord REST API as the bot.
type Client struct {
	httpClient *http.Client
	token      string
	apiBase    string
	maxRetries uint64
	backoff    time.Duration
}

// ClientOption customizes a [Client].
type ClientOption func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) { client.httpClient = httpClient }
}

// WithRetry sets the retry budget for rate-limited and 5xx replies.
func WithRetry(maxRetries uint64, backoff time.Duration) ClientOption {
	return func(client *Client) {
		client.maxRetries = maxRetries
		client.backoff = backoff
	}
}

// NewClient creates a Discord [Client] for apiBase (e.g. https://discord.com/api/v10).
func NewClient(token, apiBase string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: constants.UpstreamTimeout},
		token:      token,
		apiBase:    apiBase,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

/*
SendMessage posts message into its channel and returns the new message ID.

Rate-limited (429) and 5xx replies are retried with exponential backoff.

Returns:
  - string: The Discord message ID
  - error: [ErrNotConfigured], an [*APIError], or a transport failure
*/
func (client *Client) SendMessage(ctx context.Context, message Message) (string, error) {
	if client.token == "" {
		return "", ErrNotConfigured
	}

	body := createMessageBody{Content: message.Content}
	if len(message.Embed) > 0 {
		body.Embeds = []json.RawMessage{message.Embed}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("discord_encode_failed: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", client.apiBase, url.PathEscape(message.ChannelID))
	backoff := retry.WithMaxRetries(client.maxRetries, retry.NewExponential(client.backoff))

	var reply createMessageReply
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := client.post(ctx, endpoint, payload, &reply)

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Temporary() {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return "", err
	}

	return reply.ID, nil
}

func (client *Client) post(ctx context.Context, endpoint string, payload []byte, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord_request_failed: %w", err)
	}
	request.Header.Set(constants.HeaderAuthorization, "Bot "+client.token)
	request.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("discord_call_failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("discord_read_failed: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var reply errorReply
		if json.Unmarshal(raw, &reply) != nil || reply.Message == "" {
			reply.Message = http.StatusText(response.StatusCode)
		}
		return &APIError{Status: response.StatusCode, Message: reply.Message}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("discord_decode_failed: %w", err)
	}
	return nil
}
