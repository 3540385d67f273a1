// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rpc

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
)

func newMock(t *testing.T) (*Caller, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewCaller(db, "get_balance", "claim_daily"), mock
}

func TestCall_BuildsNamedArguments(t *testing.T) {
	caller, mock := newMock(t)

	mock.ExpectQuery(`SELECT to_jsonb("public"."claim_daily"("p_amount" => $1, "p_discord_id" => $2))`).
		WithArgs(int64(5), "123").
		WillReturnRows(sqlmock.NewRows([]string{"to_jsonb"}).AddRow([]byte(`{"balance":105}`)))

	raw, err := caller.Call(context.Background(), "claim_daily", map[string]any{
		"p_discord_id": "123",
		"p_amount":     int64(5),
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":105}`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_NoArguments(t *testing.T) {
	caller, mock := newMock(t)

	mock.ExpectQuery(`SELECT to_jsonb("public"."get_balance"())`).
		WillReturnRows(sqlmock.NewRows([]string{"to_jsonb"}).AddRow(nil))

	raw, err := caller.Call(context.Background(), "get_balance", nil)

	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_StructuredArgumentsAreJSON(t *testing.T) {
	caller, mock := newMock(t)

	mock.ExpectQuery(`SELECT to_jsonb("public"."get_balance"("p_filter" => $1))`).
		WithArgs(`{"kind":"coins"}`).
		WillReturnRows(sqlmock.NewRows([]string{"to_jsonb"}).AddRow([]byte(`1`)))

	_, err := caller.Call(context.Background(), "get_balance", map[string]any{
		"p_filter": map[string]any{"kind": "coins"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_Rejects(t *testing.T) {
	caller, _ := newMock(t)

	_, err := caller.Call(context.Background(), "drop_everything", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperr.As(err).HTTPStatus)

	_, err = caller.Call(context.Background(), "get_balance", map[string]any{"x); DROP TABLE bans; --": 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)
}

func TestCall_DatabaseError(t *testing.T) {
	caller, mock := newMock(t)

	mock.ExpectQuery(`SELECT to_jsonb("public"."get_balance"())`).
		WillReturnError(errors.New("function does not exist"))

	_, err := caller.Call(context.Background(), "get_balance", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_call_failed")
	assert.False(t, apperr.IsAppError(err))
}
