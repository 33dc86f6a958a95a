package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Len(t, Hash("Save"), 64)
	assert.NotEqual(t, Hash("Save"), Hash("save"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Hello", Truncate("Hello", 5))
	assert.Equal(t, "Hel...", Truncate("Hello", 3))
	assert.Equal(t, "こんに...", Truncate("こんにちは", 3))
	assert.Equal(t, "...", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("", 0))
}
