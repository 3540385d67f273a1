// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestOK_WritesBareDocument verifies success payloads are not wrapped.
*/
func TestOK_WritesBareDocument(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.OK(recorder, map[string]bool{"isBanned": false})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Equal(t, false, decode(t, recorder)["isBanned"])
}

/*
TestError_AppError verifies an AppError maps to its status and message.
*/
func TestError_AppError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(recorder, request, apperr.NotFound("Profile"))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, "Profile not found", body["error"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

/*
TestError_UnknownError verifies plain errors are hidden behind a generic 500.
*/
func TestError_UnknownError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(recorder, request, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "An unexpected error occurred", decode(t, recorder)["error"])
}

/*
TestErrorWithStatus verifies the status override leaves the source error untouched.
*/
func TestErrorWithStatus(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/", nil)
	source := apperr.BadRequest("Invalid verification code")

	respond.ErrorWithStatus(recorder, request, http.StatusInternalServerError, source)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "Invalid verification code", decode(t, recorder)["error"])
	assert.Equal(t, http.StatusBadRequest, source.HTTPStatus)
}
