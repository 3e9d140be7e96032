// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/access"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/schema"
	"github.com/relabs-tech/folio/core/store"
)

const (
	msgInvalidCredentials   = "Invalid email or password"
	msgInvalidRefreshToken  = "Invalid or expired refresh token"
	msgRefreshTokenRequired = "Refresh token is required"
)

type registered struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type tokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// errInvalidCredentials is answered with 401 by every auth route
var errInvalidCredentials = errors.New("invalid credentials")

func (b *Backend) handleAuth(router *mux.Router) {
	logger.Default().Debugln("authentication")
	logger.Default().Debugln("  handle route: /api/auth/register POST")
	logger.Default().Debugln("  handle route: /api/auth/login POST")
	logger.Default().Debugln("  handle route: /api/auth/refresh POST")
	logger.Default().Debugln("  handle route: /api/auth/logout POST")
	logger.Default().Debugln("  handle route: /api/auth/me GET")

	router.HandleFunc("/auth/register", b.register).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	router.HandleFunc("/auth/refresh", b.refresh).Methods(http.MethodPost)
	router.Handle("/auth/logout", b.issuer.GateFunc(b.logout)).Methods(http.MethodPost)
	router.Handle("/auth/me", b.issuer.GateFunc(b.me)).Methods(http.MethodGet)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4801", message: "Failed to register user"}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	credentials, err := b.validator.ValidateCredentials(body)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	hash, err := access.HashPassword(credentials.Password)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	user, err := b.store.CreateUser(r.Context(), credentials.Email, hash)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("registered user %d", user.ID)
	writeJSON(w, http.StatusCreated, registered{Message: "User registered successfully", UserID: user.ID})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4802", message: "Failed to login"}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	credentials, err := b.validator.ValidateCredentials(body)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	user, err := b.store.UserByEmail(r.Context(), credentials.Email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !access.ComparePassword(user.PasswordHash, credentials.Password)) {
		logger.FromContext(r.Context()).Infof("failed login for %s", credentials.Email)
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	pair, err := b.issueTokens(r.Context(), user)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued
func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4803", message: "Failed to refresh token"}
	token, err := refreshTokenFromBody(w, r, true)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	stored, err := b.store.ConsumeRefreshToken(r.Context(), access.HashRefreshToken(token))
	if err == nil && !stored.ExpiresAt.After(b.now()) {
		err = fmt.Errorf("refresh token of user %d expired at %s: %w", stored.UserID, stored.ExpiresAt, errInvalidCredentials)
	}
	var user store.User
	if err == nil {
		user, err = b.store.UserByID(r.Context(), stored.UserID)
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, errInvalidCredentials) {
		logger.FromContext(r.Context()).Infoln("rejected refresh token:", err)
		writeError(w, http.StatusUnauthorized, msgInvalidRefreshToken)
		return
	}
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	pair, err := b.issueTokens(r.Context(), user)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// logout revokes the presented refresh token, or all refresh tokens of the
// user if none is presented. Access tokens stay valid until they expire.
func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4804", message: "Failed to logout"}
	identity := access.IdentityFromContext(r.Context())
	token, err := refreshTokenFromBody(w, r, false)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	if token != "" {
		err = b.store.RevokeRefreshToken(r.Context(), access.HashRefreshToken(token))
	} else {
		err = b.store.RevokeRefreshTokens(r.Context(), identity.UserID)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("user %d logged out", identity.UserID)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, access.IdentityFromContext(r.Context()))
}

func (b *Backend) issueTokens(ctx context.Context, user store.User) (tokenPair, error) {
	token, err := b.issuer.Issue(access.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return tokenPair{}, fmt.Errorf("cannot issue access token: %w", err)
	}
	refreshToken, hash, err := access.NewRefreshToken()
	if err != nil {
		return tokenPair{}, fmt.Errorf("cannot create refresh token: %w", err)
	}
	err = b.store.SaveRefreshToken(ctx, store.RefreshToken{
		Hash:      hash,
		UserID:    user.ID,
		ExpiresAt: b.now().Add(b.refreshTTL).UTC(),
	})
	if err != nil {
		return tokenPair{}, fmt.Errorf("cannot save refresh token: %w", err)
	}
	return tokenPair{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresIn:    int(b.issuer.TTL().Seconds()),
	}, nil
}

// refreshTokenFromBody returns the refreshToken property of the body. An empty
// body is accepted unless required is set.
func refreshTokenFromBody(w http.ResponseWriter, r *http.Request, required bool) (string, error) {
	body, err := readBody(w, r)
	if err != nil {
		return "", err
	}
	var request refreshRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &request); err != nil {
			return "", &schema.ValidationError{Field: "refreshToken", Message: msgRefreshTokenRequired}
		}
	}
	if required && request.RefreshToken == "" {
		return "", &schema.ValidationError{Field: "refreshToken", Message: msgRefreshTokenRequired}
	}
	return request.RefreshToken, nil
}
