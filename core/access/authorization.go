// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package access provides utilities for access control

An Identity is attached to the request context by the Gate middleware after a
bearer token was verified. Retrieve it with

	identity := IdentityFromContext(ctx)

The identity lives for one request only.
*/
package access

import (
	"context"
	"errors"
	"strconv"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeyIdentity contextKey = "_identity_"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("access token missing")
	// ErrInvalidToken is returned when a bearer token cannot be verified or has expired
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Messages returned to clients for rejected requests
const (
	MessageMissingToken = "Access token missing"
	MessageInvalidToken = "Invalid or expired token"
)

// Identity is the authenticated account of a request
type Identity struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// String returns the identity in the form "id|email" as used in log fields
func (i *Identity) String() string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(i.UserID, 10) + "|" + i.Email
}

// ContextWithIdentity returns a new context with this identity added to it
func (i *Identity) ContextWithIdentity(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, i)
}

// IdentityFromContext retrieves an identity from the context. It returns nil
// for unauthenticated requests.
func IdentityFromContext(ctx context.Context) *Identity {
	i, ok := ctx.Value(contextKeyIdentity).(*Identity)
	if ok {
		return i
	}
	return nil
}
