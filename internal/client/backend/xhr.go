// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/result"
)

/*
XHRSignIn signs in with a single hand-built request to the token endpoint,
bypassing the [Auth] helpers.

It never returns a Go error and never panics: network, status and parse
failures all land in Result.Err. The session is not installed; pass it to
[Auth.SetSession] to make it current.
*/
func (client *Client) XHRSignIn(ctx context.Context, email, password string) (outcome result.Result[*Session]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = result.Fail[*Session](apperr.Internal(nil))
		}
	}()

	payload, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return result.Fail[*Session](err)
	}

	endpoint := client.baseURL + constants.AuthPrefix + "/token?grant_type=password"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return result.Fail[*Session](apperr.BadRequest("Invalid backend URL"))
	}
	client.authorize(request, "")

	response, err := client.http.Do(request)
	if err != nil {
		return result.Fail[*Session](apperr.Upstream("Network request failed", err))
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return result.Fail[*Session](apperr.Upstream("Failed to read response", err))
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return result.Fail[*Session](responseError(response.StatusCode, raw))
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil || session.AccessToken == "" {
		return result.Fail[*Session](apperr.Upstream("Invalid response from auth server", err))
	}
	return result.OK(&session)
}
