package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNextPath(t *testing.T) {
	assert.True(t, SafeNextPath("/dashboard"))
	assert.True(t, SafeNextPath("/songs/upload"))
	assert.True(t, SafeNextPath("/dashboard?tab=profile"))

	assert.False(t, SafeNextPath(""))
	assert.False(t, SafeNextPath("dashboard"))
	assert.False(t, SafeNextPath("https://evil.example.com/"))
	assert.False(t, SafeNextPath("//evil.example.com/"))
	assert.False(t, SafeNextPath("/\\evil.example.com"))
	assert.False(t, SafeNextPath("javascript:alert(1)"))
}
