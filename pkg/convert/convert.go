// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides type-conversion utilities for loosely typed input.

Values arriving from the bot bridge and stored procedures are JSON, so
currency amounts may be numbers, numeric strings, or decimal strings.
*/
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when a value cannot be read as a number.
var ErrNotNumeric = errors.New("convert: value is not numeric")

// ToIntD converts a string to an int, returning def if parsing fails or the string is empty.
func ToIntD(str string, def int) int {
	if str == "" {
		return def
	}
	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	return def
}

// UCToBigInt converts a currency amount to a big integer, truncating any
// fractional part toward zero.
//
//	UCToBigInt("123.45") // 123
//	UCToBigInt(42)       // 42
//	UCToBigInt("abc")    // ErrNotNumeric
func UCToBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case nil:
		return nil, fmt.Errorf("%w: <nil>", ErrNotNumeric)
	case *big.Int:
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float32:
		return floatToBigInt(float64(v))
	case float64:
		return floatToBigInt(v)
	case json.Number:
		return decimalToBigInt(string(v))
	case string:
		return decimalToBigInt(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotNumeric, value)
	}
}

func floatToBigInt(f float64) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNotNumeric, f)
	}
	result, _ := big.NewFloat(math.Trunc(f)).Int(nil)
	return result, nil
}

// decimalToBigInt parses s with arbitrary precision so large amounts keep every digit.
func decimalToBigInt(s string) (*big.Int, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty string", ErrNotNumeric)
	}

	parsed, ok := new(big.Float).SetPrec(256).SetString(clean)
	if !ok || parsed.IsInf() {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	result, _ := parsed.Int(nil)
	return result, nil
}
