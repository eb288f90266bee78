package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordAsBcrypt("123La!")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "123La!", hash)

	assert.True(t, CheckPasswordHash(hash, "123La!"))
	assert.False(t, CheckPasswordHash(hash, "notthepassword"))
	assert.False(t, CheckPasswordHash("", "123La!"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPasswordAsBcrypt("123La!")
	assert.NoError(t, err)
	second, err := HashPasswordAsBcrypt("123La!")
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}
