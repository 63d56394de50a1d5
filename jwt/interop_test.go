package jwt

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuedTokenVerifiesWithJWX(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice", "role": "demo-user"}, 900)
	require.NoError(t, err)

	tok, err := jwxjwt.Parse([]byte(issued.Token), jwxjwt.WithKey(jwa.HS256, testSecret))
	require.NoError(t, err)

	assert.Equal(t, "alice", tok.Subject())
	role, ok := tok.Get("role")
	require.True(t, ok)
	assert.Equal(t, "demo-user", role)
	assert.Equal(t, 900*time.Second, tok.Expiration().Sub(tok.IssuedAt()))
}

func TestIssuedTokenVerifiesWithGolangJWT(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice"}, 60)
	require.NoError(t, err)

	parsed, err := gjwt.Parse(issued.Token, func(*gjwt.Token) (any, error) {
		return testSecret, nil
	}, gjwt.WithValidMethods([]string{"HS256"}), gjwt.WithExpirationRequired())
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestGolangJWTTokenVerifies(t *testing.T) {
	now := time.Now()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub":  "carol",
		"role": "auditor",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Minute).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	claims, err := Verify(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject())
	assert.Equal(t, "auditor", claims.Role())
}

func TestGolangJWTTokenWrongKeyRejected(t *testing.T) {
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = Verify(testSecret, token)
	require.ErrorIs(t, err, ErrBadSignature)
}
