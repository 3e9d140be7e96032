// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package postgres

import (
	"context"
	"fmt"

	"github.com/relabs-tech/folio/core/store"
)

func scanUser(row scanner) (store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func scanToken(row scanner) (store.RefreshToken, error) {
	var t store.RefreshToken
	err := row.Scan(&t.Hash, &t.UserID, &t.ExpiresAt)
	return t, err
}

// CreateUser inserts an account. A taken email returns store.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (store.User, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO "+s.users+" (email, password_hash) VALUES ($1, $2) RETURNING "+userColumns+";",
		email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		return store.User{}, fmt.Errorf("cannot create user: %w", classify(err))
	}
	return u, nil
}

// UserByEmail returns the account with email
func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM "+s.users+" WHERE email = $1;", email))
	return u, classify(err)
}

// UserByID returns the account with id
func (s *Store) UserByID(ctx context.Context, id int64) (store.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM "+s.users+" WHERE id = $1;", id))
	return u, classify(err)
}

// SaveRefreshToken inserts token
func (s *Store) SaveRefreshToken(ctx context.Context, token store.RefreshToken) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+s.refreshTokens+" ("+tokenColumns+") VALUES ($1, $2, $3);",
		token.Hash, token.UserID, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("cannot save refresh token: %w", classify(err))
	}
	return nil
}

// ConsumeRefreshToken deletes the token with hash and returns it
func (s *Store) ConsumeRefreshToken(ctx context.Context, hash string) (store.RefreshToken, error) {
	t, err := scanToken(s.db.QueryRowContext(ctx,
		"DELETE FROM "+s.refreshTokens+" WHERE token_hash = $1 RETURNING "+tokenColumns+";", hash))
	return t, classify(err)
}

// RevokeRefreshToken deletes the token with hash if it exists
func (s *Store) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+s.refreshTokens+" WHERE token_hash = $1;", hash)
	return classify(err)
}

// RevokeRefreshTokens deletes all tokens of the account with userID
func (s *Store) RevokeRefreshTokens(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+s.refreshTokens+" WHERE user_id = $1;", userID)
	return classify(err)
}
