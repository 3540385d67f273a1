// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package captcha verifies Cloudflare Turnstile tokens for the sign-up and
sign-in forms.
*/
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/uservault/internal/platform/constants"
)

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("captcha: secret key not configured")

// Outcome is the relevant part of a siteverify response.
type Outcome struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// Verifier calls the Turnstile siteverify endpoint.
type Verifier struct {
	client    *http.Client
	secretKey string
	verifyURL string
}

// NewVerifier creates a [Verifier]. A nil client gets a default with [constants.UpstreamTimeout].
func NewVerifier(client *http.Client, secretKey, verifyURL string) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: constants.UpstreamTimeout}
	}
	return &Verifier{client: client, secretKey: secretKey, verifyURL: verifyURL}
}

/*
Verify submits token to siteverify.

Returns:
  - Outcome: The provider's verdict
  - error: Transport or decoding failures, or [ErrNotConfigured]
*/
func (verifier *Verifier) Verify(ctx context.Context, token, remoteIP string) (Outcome, error) {
	if verifier.secretKey == "" {
		return Outcome{}, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("secret", verifier.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, verifier.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, fmt.Errorf("turnstile_request_failed: %w", err)
	}
	request.Header.Set(constants.HeaderContentType, "application/x-www-form-urlencoded")

	response, err := verifier.client.Do(request)
	if err != nil {
		return Outcome{}, fmt.Errorf("turnstile_call_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return Outcome{}, fmt.Errorf("turnstile_call_failed: status %d", response.StatusCode)
	}

	var outcome Outcome
	if err := json.NewDecoder(response.Body).Decode(&outcome); err != nil {
		return Outcome{}, fmt.Errorf("turnstile_decode_failed: %w", err)
	}

	return outcome, nil
}
