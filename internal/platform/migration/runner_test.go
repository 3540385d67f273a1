// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPgx5DSN(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/vault":   "pgx5://u:p@db:5432/vault",
		"postgresql://u:p@db:5432/vault": "pgx5://u:p@db:5432/vault",
		"pgx5://u:p@db:5432/vault":       "pgx5://u:p@db:5432/vault",
		"host=db user=u dbname=vault":    "host=db user=u dbname=vault",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, ToPgx5DSN(input), input)
	}
}
