// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/uservault/pkg/pointer"
)

func TestPointerHelpers(t *testing.T) {
	assert.Equal(t, "bio", *pointer.To("bio"))
	assert.Equal(t, "", pointer.Val[string](nil))
	assert.Equal(t, "fallback", pointer.Fallback(nil, "fallback"))
	assert.Equal(t, 3, pointer.Fallback(pointer.To(3), 9))

	assert.Nil(t, pointer.NonZero(""))
	assert.Equal(t, "reason", *pointer.NonZero("reason"))
}
