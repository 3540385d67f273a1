// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/pkg/convert"
)

func TestUCToBigInt(t *testing.T) {
	cases := []struct {
		name     string
		input    any
		expected string
	}{
		{"decimal string truncates", "123.45", "123"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float truncates toward zero", -9.99, "-9"},
		{"json number", json.Number("1000000000000000000000"), "1000000000000000000000"},
		{"padded string", " 88 ", "88"},
		{"big int copy", big.NewInt(5), "5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := convert.UCToBigInt(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result.String())
		})
	}
}

func TestUCToBigInt_NotNumeric(t *testing.T) {
	for _, input := range []any{"abc", "", nil, true, math.NaN()} {
		_, err := convert.UCToBigInt(input)
		assert.ErrorIs(t, err, convert.ErrNotNumeric, "%v", input)
	}
}

func TestToIntD(t *testing.T) {
	assert.Equal(t, 20, convert.ToIntD("", 20))
	assert.Equal(t, 20, convert.ToIntD("x", 20))
	assert.Equal(t, 5, convert.ToIntD("5", 20))
}
