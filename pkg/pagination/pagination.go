// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses the "limit" query parameter of list endpoints.
//
// Unlike lenient clamping, an out-of-range limit is a client error: the
// live feed answers 400 rather than silently serving a different page size.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/taibuivan/uservault/internal/platform/apperr"
)

const (
	// DefaultLimit is the number of items returned if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per request.
	MaxLimit = 100
	// MinLimit is the lower bound for items per request.
	MinLimit = 1
)

// LimitFromRequest parses "limit" from the query string.
//
// An absent parameter yields [DefaultLimit]; a non-integer or a value
// outside [MinLimit, MaxLimit] yields a 400 [apperr.AppError].
func LimitFromRequest(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < MinLimit || limit > MaxLimit {
		return 0, apperr.BadRequest(fmt.Sprintf("limit must be an integer between %d and %d", MinLimit, MaxLimit))
	}

	return limit, nil
}
