// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/pkg/pagination"
)

func TestLimitFromRequest(t *testing.T) {
	cases := []struct {
		query    string
		expected int
		valid    bool
	}{
		{"", 20, true},
		{"?limit=1", 1, true},
		{"?limit=100", 100, true},
		{"?limit=0", 0, false},
		{"?limit=101", 0, false},
		{"?limit=ten", 0, false},
	}

	for _, tc := range cases {
		limit, err := pagination.LimitFromRequest(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil))
		if tc.valid {
			require.NoError(t, err, tc.query)
			assert.Equal(t, tc.expected, limit)
			continue
		}
		require.Error(t, err, tc.query)
		assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)
	}
}
