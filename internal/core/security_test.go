// AngelaMos | 2026
// security_test.go

package core

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	require.Error(t, err)

	_, err = VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA")
	require.Error(t, err)
}

func TestVerifyPasswordTimingSafeWithoutHash(t *testing.T) {
	ok, newHash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)
}

var tempPasswordPattern = regexp.MustCompile(`^temp[0-9a-z]{9}$`)

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)
		assert.Regexp(t, tempPasswordPattern, pw)
		seen[pw] = struct{}{}
	}
	assert.Len(t, seen, 50)
}

func TestGenerateResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{40}$`, token)

	hash := HashToken(token)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(token+"0", hash))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "client@example.com", NormalizeEmail("  Client@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
