package jwt

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("topsecret")

func TestIssueVerifyDemoUser(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice", "role": "demo-user"}, 900)
	require.NoError(t, err)

	claims, err := Verify(testSecret, issued.Token)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject())
	assert.Equal(t, "demo-user", claims.Role())

	iat, ok := claims.IssuedAt()
	require.True(t, ok)
	exp, ok := claims.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, int64(900), exp-iat)
	assert.Len(t, claims, 4)
}

func TestIssueHeaderSegmentIsFixed(t *testing.T) {
	a, err := Issue(testSecret, Claims{"sub": "a"}, 60)
	require.NoError(t, err)
	b, err := Issue([]byte("other"), Claims{"sub": "b", "x": 1}, 5)
	require.NoError(t, err)

	headA := strings.SplitN(a.Token, ".", 2)[0]
	headB := strings.SplitN(b.Token, ".", 2)[0]
	assert.Equal(t, headA, headB)

	var h Header
	require.NoError(t, DecodeJSON(headA, &h))
	assert.Equal(t, Header{Alg: "HS256", Typ: "JWT"}, h)
}

func TestIssueReservedClaimsWin(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := Claims{"sub": "alice", "iat": "forged", "exp": int64(4_000_000_000)}

	issued, err := IssueAt(testSecret, in, 30, now)
	require.NoError(t, err)

	assert.Equal(t, now.Unix(), issued.Claims["iat"])
	assert.Equal(t, now.Unix()+30, issued.Claims["exp"])
	assert.Equal(t, "forged", in["iat"], "caller claims must not be mutated")
	assert.Equal(t, int64(4_000_000_000), in["exp"])

	claims, err := VerifyAt(testSecret, issued.Token, now)
	require.NoError(t, err)
	exp, _ := claims.ExpiresAt()
	assert.Equal(t, now.Unix()+30, exp)
}

func TestIssueNilClaims(t *testing.T) {
	issued, err := Issue(testSecret, nil, 10)
	require.NoError(t, err)
	claims, err := Verify(testSecret, issued.Token)
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestIssueIsDeterministicForFixedClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := Claims{"sub": "alice", "role": "demo-user", "tags": []string{"a", "b"}}
	first, err := IssueAt(testSecret, c, 900, now)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := IssueAt(testSecret, c, 900, now)
		require.NoError(t, err)
		require.Equal(t, first.Token, again.Token)
	}
}

func TestVerifyPreservesCallerClaims(t *testing.T) {
	in := Claims{"sub": "bob", "n": 7, "nested": map[string]any{"k": "v"}, "ok": true}
	issued, err := Issue(testSecret, in, 60)
	require.NoError(t, err)

	claims, err := Verify(testSecret, issued.Token)
	require.NoError(t, err)

	assert.Equal(t, "bob", claims.Subject())
	n, ok := claims.Int64("n")
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, map[string]any{"k": "v"}, claims["nested"])
	assert.Equal(t, true, claims["ok"])
}

func TestVerifyWrongSecret(t *testing.T) {
	issued, err := Issue([]byte("secret-one"), Claims{"sub": "alice"}, 60)
	require.NoError(t, err)

	_, err = Verify([]byte("secret-two"), issued.Token)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyExpired(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice"}, -1)
	require.NoError(t, err)

	_, err = Verify(testSecret, issued.Token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issued, err := IssueAt(testSecret, Claims{"sub": "alice"}, 10, now)
	require.NoError(t, err)

	_, err = VerifyAt(testSecret, issued.Token, now.Add(9*time.Second))
	require.NoError(t, err)

	_, err = VerifyAt(testSecret, issued.Token, now.Add(10*time.Second))
	require.ErrorIs(t, err, ErrExpiredToken, "exp equal to now is expired")

	_, err = VerifyAt(testSecret, issued.Token, now.Add(10*time.Second+900*time.Millisecond))
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyZeroTTLIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issued, err := IssueAt(testSecret, nil, 0, now)
	require.NoError(t, err)
	_, err = VerifyAt(testSecret, issued.Token, now)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTamperedClaims(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice", "role": "demo-user"}, 900)
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ".")
	mid := []byte(parts[1])
	if mid[5] == 'A' {
		mid[5] = 'B'
	} else {
		mid[5] = 'A'
	}
	tampered := parts[0] + "." + string(mid) + "." + parts[2]

	_, err = Verify(testSecret, tampered)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyForgedRoleIsRejected(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice", "role": "demo-user"}, 900)
	require.NoError(t, err)
	parts := strings.Split(issued.Token, ".")

	forged, err := EncodeJSON(Claims{"sub": "alice", "role": "admin", "exp": 4_000_000_000})
	require.NoError(t, err)

	_, err = Verify(testSecret, parts[0]+"."+forged+"."+parts[2])
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyUnsignedTokenRejected(t *testing.T) {
	head, err := EncodeJSON(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	body, err := EncodeJSON(Claims{"sub": "mallory", "exp": 4_000_000_000})
	require.NoError(t, err)

	_, err = Verify(testSecret, head+"."+body+".")
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifySegmentCount(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "a.b.c.d", "....", "a..b.c"} {
		_, err := Verify(testSecret, tok)
		require.ErrorIs(t, err, ErrMalformedToken, "token %q", tok)
		require.NotErrorIs(t, err, ErrBadSignature)
	}
}

func TestVerifyBadSignatureEncoding(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice"}, 60)
	require.NoError(t, err)
	parts := strings.Split(issued.Token, ".")

	_, err = Verify(testSecret, parts[0]+"."+parts[1]+".***")
	require.ErrorIs(t, err, ErrMalformedToken)
	require.ErrorIs(t, err, ErrDecode)
}

func TestVerifyRejectsPaddedSignatureSegment(t *testing.T) {
	issued, err := Issue(testSecret, Claims{"sub": "alice"}, 60)
	require.NoError(t, err)

	// A 32-byte MAC encodes to 43 characters; one "=" restores the padded form.
	_, err = Verify(testSecret, issued.Token+"=")
	require.ErrorIs(t, err, ErrMalformedToken)
	require.ErrorIs(t, err, ErrDecode)
}

func TestVerifyMalformedClaimsWithValidSignature(t *testing.T) {
	sign := func(head, body string) string {
		mac, err := Sign(testSecret, []byte(head+"."+body))
		require.NoError(t, err)
		return head + "." + body + "." + EncodeBytes(mac)
	}
	head, err := EncodeJSON(DefaultHeader())
	require.NoError(t, err)

	cases := map[string]string{
		"not base64": "!!!",
		"not json":   EncodeBytes([]byte("not json")),
		"array":      EncodeBytes([]byte(`[1,2]`)),
		"null":       EncodeBytes([]byte(`null`)),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Verify(testSecret, sign(head, body))
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestVerifyExpMustBeNumber(t *testing.T) {
	head, err := EncodeJSON(DefaultHeader())
	require.NoError(t, err)

	for name, body := range map[string]string{
		"missing": `{"sub":"alice"}`,
		"string":  `{"sub":"alice","exp":"4000000000"}`,
		"null":    `{"sub":"alice","exp":null}`,
		"bool":    `{"sub":"alice","exp":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			seg := EncodeBytes([]byte(body))
			mac, err := Sign(testSecret, []byte(head+"."+seg))
			require.NoError(t, err)

			_, err = Verify(testSecret, head+"."+seg+"."+EncodeBytes(mac))
			require.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestVerifyExpErrorNamesTheProblem(t *testing.T) {
	head, err := EncodeJSON(DefaultHeader())
	require.NoError(t, err)

	cases := map[string]struct {
		body string
		want string
	}{
		"missing":      {body: `{"sub":"alice"}`, want: "exp missing"},
		"string":       {body: `{"exp":"4000000000"}`, want: "exp not a number"},
		"overflow":     {body: `{"exp":1e400}`, want: "exp out of range"},
		"neg overflow": {body: `{"exp":-1e400}`, want: "exp out of range"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			seg := EncodeBytes([]byte(tc.body))
			mac, err := Sign(testSecret, []byte(head+"."+seg))
			require.NoError(t, err)

			_, err = Verify(testSecret, head+"."+seg+"."+EncodeBytes(mac))
			require.ErrorIs(t, err, ErrExpiredToken)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestVerifyAcceptsFractionalExp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	head, err := EncodeJSON(DefaultHeader())
	require.NoError(t, err)
	seg := EncodeBytes([]byte(`{"exp":1700000000.5}`))
	mac, err := Sign(testSecret, []byte(head+"."+seg))
	require.NoError(t, err)

	_, err = VerifyAt(testSecret, head+"."+seg+"."+EncodeBytes(mac), now)
	require.NoError(t, err)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := Issue(nil, Claims{"sub": "alice"}, 60)
	require.ErrorIs(t, err, ErrEmptySecret)

	issued, err := Issue(testSecret, Claims{"sub": "alice"}, 60)
	require.NoError(t, err)
	_, err = Verify([]byte{}, issued.Token)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssueVerifyConcurrent(t *testing.T) {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*50)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			secret := []byte{byte('a' + w), 'k', 'e', 'y'}
			for i := 0; i < 50; i++ {
				issued, err := Issue(secret, Claims{"sub": "u", "i": i}, 60)
				if err != nil {
					errs <- err
					continue
				}
				if _, err := Verify(secret, issued.Token); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
