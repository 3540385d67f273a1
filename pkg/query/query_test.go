// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/uservault/pkg/query"
)

func TestStringSlice(t *testing.T) {
	assert.Nil(t, query.StringSlice(""))
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, query.StringSlice(" https://a.dev, ,https://b.dev "))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "neo", query.FirstNonEmpty("", "  ", " neo ", "trinity"))
	assert.Equal(t, "", query.FirstNonEmpty())
}
