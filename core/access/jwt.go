// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"

	"github.com/relabs-tech/folio/core/logger"
)

// Claims are the claims of an access token
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer issues and verifies HS256 access tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer signing with secret. Tokens expire after ttl.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if len(secret) == 0 {
		panic("access token secret must not be empty")
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed access token for identity
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := i.now()
	claims := Claims{
		ID:    identity.UserID,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}
	return token, nil
}

// Verify parses tokenString and returns its identity. Any failure, including
// expiry, is reported as ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Identity, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.ID, Email: claims.Email}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if len(bearer) == 0 || bearer == "null" {
		return ""
	}
	if len(bearer) >= 7 && strings.ToLower(bearer[:7]) == "bearer " {
		return strings.TrimSpace(bearer[7:])
	}
	return ""
}

// Gate returns a middleware which admits only requests with a valid bearer
// token. It answers 401 when the token is missing and 403 when it is invalid or
// expired. Admitted requests carry the identity in their context.
func (i *Issuer) Gate(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := IdentityFromContext(r.Context()); identity != nil { // already authenticated?
			h.ServeHTTP(w, r)
			return
		}
		tokenString := BearerToken(r)
		if len(tokenString) == 0 {
			writeError(w, http.StatusUnauthorized, MessageMissingToken)
			return
		}
		identity, err := i.Verify(tokenString)
		if err != nil {
			logger.FromContext(r.Context()).Debugln("rejected bearer token:", err)
			writeError(w, http.StatusForbidden, MessageInvalidToken)
			return
		}
		ctx := identity.ContextWithIdentity(r.Context())
		ctx, _ = logger.ContextWithLoggerIdentity(ctx, identity.String())
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GateFunc is the handler function version of Gate
func (i *Issuer) GateFunc(h http.HandlerFunc) http.Handler {
	return i.Gate(h)
}

func writeError(w http.ResponseWriter, status int, message string) {
	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
