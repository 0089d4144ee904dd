package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyVerifier(t *testing.T) {
	hash, err := HashAPIKey("s3cret")
	require.NoError(t, err)

	v := NewAPIKeyVerifier(hash)
	assert.True(t, v.Configured())
	assert.True(t, v.Verify("s3cret"))
	assert.True(t, v.Verify("s3cret"), "second check is served from the verified set")
	assert.False(t, v.Verify("wrong"))
	assert.False(t, v.Verify(""))

	unset := NewAPIKeyVerifier("")
	assert.False(t, unset.Configured())
	assert.False(t, unset.Verify("s3cret"))
}

func TestHashAPIKey_Errors(t *testing.T) {
	_, err := HashAPIKey("")
	assert.Error(t, err)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = HashAPIKey(string(long))
	assert.Error(t, err)
}

func TestMemberTokens(t *testing.T) {
	tokens := NewMemberTokens("test-secret", time.Hour)

	token, err := tokens.Issue("member-1", []string{"members", "staff"})
	require.NoError(t, err)

	member, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "member-1", member.ID)
	assert.Equal(t, []string{"members", "staff"}, member.Groups)
}

func TestMemberTokens_Rejects(t *testing.T) {
	tokens := NewMemberTokens("test-secret", time.Hour)

	otherSecret, err := NewMemberTokens("other-secret", time.Hour).Issue("member-1", nil)
	require.NoError(t, err)

	expired, err := NewMemberTokens("test-secret", -time.Minute).Issue("member-1", nil)
	require.NoError(t, err)

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, MemberClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "member-1",
			Issuer:    "delivery",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", otherSecret},
		{"expired", expired},
		{"none algorithm", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
