package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue(Identity{UserID: 7, Email: "ada@example.com"})
	require.NoError(t, err)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 7, Email: "ada@example.com"}, identity)
	assert.Equal(t, "7|ada@example.com", identity.String())

	_, err = NewIssuer([]byte("other"), time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue(Identity{UserID: 1, Email: "a@b.co"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGate(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	var seen *Identity
	handler := issuer.Gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(header string) (int, string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		var body struct {
			Error string `json:"error"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		return rec.Code, body.Error
	}

	status, message := call("")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, MessageMissingToken, message)
	assert.Nil(t, seen)

	status, message = call("Bearer nonsense")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, MessageInvalidToken, message)
	assert.Nil(t, seen)

	token, err := issuer.Issue(Identity{UserID: 3, Email: "x@y.io"})
	require.NoError(t, err)
	status, _ = call("Bearer " + token)
	assert.Equal(t, http.StatusNoContent, status)
	require.NotNil(t, seen)
	assert.Equal(t, int64(3), seen.UserID)
}

func TestIdentityFromContext(t *testing.T) {
	assert.Nil(t, IdentityFromContext(context.Background()))
	identity := &Identity{UserID: 1}
	assert.Same(t, identity, IdentityFromContext(identity.ContextWithIdentity(context.Background())))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "correct horse"))
	assert.False(t, ComparePassword(hash, "wrong"))
}

func TestRefreshTokens(t *testing.T) {
	token, hash, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashRefreshToken(token))

	other, _, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
