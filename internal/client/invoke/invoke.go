// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package invoke dispatches requests to /functions/v1 with the caller's
credentials attached.

Every call carries the apikey header and a bearer token: the session's access
token when signed in, the anon key otherwise. Failures never escape as Go
errors or panics; they are returned in [result.Result.Err].
*/
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/result"
)

// maxRawErrorLength caps how much of a non-JSON body is echoed into an error.
const maxRawErrorLength = 512

// Credentials is the slice of the backend client the invoker needs.
type Credentials interface {
	URL() string
	AnonKey() string
	AccessToken() string
	HTTPClient() *http.Client
}

// Invoker calls edge functions.
type Invoker struct {
	credentials Credentials
}

// New returns an [Invoker] bound to credentials.
func New(credentials Credentials) *Invoker {
	return &Invoker{credentials: credentials}
}

// InvokeSecure POSTs body as JSON to the named function.
func (invoker *Invoker) InvokeSecure(ctx context.Context, name string, body any, headers map[string]string) result.Result[json.RawMessage] {
	return invoker.Invoke(ctx, http.MethodPost, name, nil, body, headers)
}

// Invoke calls the named function with any method. A nil body sends none.
func (invoker *Invoker) Invoke(ctx context.Context, method, name string, query url.Values, body any, headers map[string]string) (outcome result.Result[json.RawMessage]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = result.Fail[json.RawMessage](apperr.Internal(fmt.Errorf("invoke_panic: %v", recovered)))
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return result.Fail[json.RawMessage](apperr.BadRequest("Request body is not JSON-encodable"))
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(invoker.credentials.URL(), "/") + constants.FunctionsPrefix + "/" + name
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return result.Fail[json.RawMessage](apperr.BadRequest("Invalid function URL"))
	}

	anonKey := invoker.credentials.AnonKey()
	bearer := invoker.credentials.AccessToken()
	if bearer == "" {
		bearer = anonKey
	}

	request.Header.Set(constants.HeaderAPIKey, anonKey)
	request.Header.Set(constants.HeaderAuthorization, constants.AuthorizationBearer+bearer)
	if body != nil {
		request.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	client := invoker.credentials.HTTPClient()
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(request)
	if err != nil {
		return result.Fail[json.RawMessage](apperr.Upstream("Network request failed", err))
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return result.Fail[json.RawMessage](apperr.Upstream("Failed to read response", err))
	}

	return interpret(response.StatusCode, raw)
}

// interpret turns a status and raw body into a result.
func interpret(status int, raw []byte) result.Result[json.RawMessage] {
	ok := status >= 200 && status <= 299
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 {
		if ok {
			return result.OK[json.RawMessage](nil)
		}
		return result.Fail[json.RawMessage](statusError(status, "", ""))
	}

	if !json.Valid(trimmed) {
		text := string(trimmed)
		if len(text) > maxRawErrorLength {
			text = text[:maxRawErrorLength]
		}
		appErr := &apperr.AppError{Code: "INVALID_RESPONSE", Message: text, HTTPStatus: status}
		if ok {
			appErr.HTTPStatus = http.StatusBadGateway
		}
		return result.Fail[json.RawMessage](appErr)
	}

	if !ok {
		code, message := serverError(trimmed)
		return result.Fail[json.RawMessage](statusError(status, code, message))
	}
	return result.OK(json.RawMessage(trimmed))
}

// serverError extracts the error code and text a function returned, if any.
func serverError(raw []byte) (code, message string) {
	var envelope struct {
		Code    json.RawMessage `json:"code"`
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) != nil {
		return "", ""
	}
	_ = json.Unmarshal(envelope.Code, &code)

	var text string
	if json.Unmarshal(envelope.Error, &text) == nil && text != "" {
		return code, text
	}

	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
		return code, nested.Message
	}
	return code, envelope.Message
}

func statusError(status int, code, message string) *apperr.AppError {
	if code == "" {
		code = fmt.Sprintf("HTTP_%d", status)
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &apperr.AppError{Code: code, Message: message, HTTPStatus: status}
}

// Decode unmarshals a successful raw result into T. Failures pass through.
func Decode[T any](raw result.Result[json.RawMessage]) result.Result[T] {
	if raw.Err != nil {
		return result.Result[T]{Err: raw.Err}
	}

	var data T
	if len(raw.Data) == 0 {
		return result.OK(data)
	}
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return result.Fail[T](apperr.Upstream("Unexpected response shape", err))
	}
	return result.OK(data)
}
