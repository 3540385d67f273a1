// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rpc invokes allow-listed stored procedures by name.

The economy features (balances, daily rewards, badge steals) live in
Postgres functions. Callers address them by name with named arguments, and
every procedure is expected to return a single json/jsonb value:

	SELECT to_jsonb("public"."claim_daily"("p_discord_id" => $1))

Procedure and argument names are validated and quoted; values are always
bound as parameters.
*/
package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/pkg/slice"
)

var identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// OpenDB exposes the pgx pool through database/sql.
func OpenDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// Caller runs stored procedures from a fixed allow-list.
type Caller struct {
	db      *sql.DB
	schema  string
	allowed map[string]struct{}
}

// NewCaller returns a Caller restricted to the given procedure names in the public schema.
func NewCaller(db *sql.DB, allowed ...string) *Caller {
	return &Caller{db: db, schema: constants.SchemaPublic, allowed: slice.Set(allowed)}
}

// Allowed reports whether name is on the allow-list.
func (caller *Caller) Allowed(name string) bool {
	_, ok := caller.allowed[name]
	return ok
}

// Call executes the procedure and returns its JSON result.
func (caller *Caller) Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if !caller.Allowed(name) {
		return nil, apperr.Forbidden(fmt.Sprintf("Procedure %q is not allowed", name))
	}

	query, values, err := caller.build(name, args)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := caller.db.QueryRowContext(ctx, query, values...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("rpc_call_failed: %s: %w", name, err)
	}

	if raw == nil {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(raw), nil
}

// build renders the SELECT for name with args bound in sorted key order.
func (caller *Caller) build(name string, args map[string]any) (string, []any, error) {
	if !identifierRegex.MatchString(name) {
		return "", nil, apperr.BadRequest("Invalid procedure name")
	}

	keys := make([]string, 0, len(args))
	for key := range args {
		if !identifierRegex.MatchString(key) {
			return "", nil, apperr.BadRequest(fmt.Sprintf("Invalid argument name %q", key))
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	named := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, key := range keys {
		named[i] = fmt.Sprintf("%s => $%d", pq.QuoteIdentifier(key), i+1)
		values[i] = bindValue(args[key])
	}

	query := fmt.Sprintf("SELECT to_jsonb(%s.%s(%s))",
		pq.QuoteIdentifier(caller.schema),
		pq.QuoteIdentifier(name),
		strings.Join(named, ", "),
	)
	return query, values, nil
}

// bindValue passes scalars through and encodes structured values as JSON text.
func bindValue(value any) any {
	switch value.(type) {
	case map[string]any, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil
		}
		return string(encoded)
	default:
		return value
	}
}
