// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package memory

import (
	"context"
	"strings"

	"github.com/relabs-tech/folio/core/store"
)

// CreateUser stores a new account. Emails are unique ignoring case.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (store.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return store.User{}, store.ErrConflict
		}
	}
	s.lastUserID++
	u := store.User{ID: s.lastUserID, Email: email, PasswordHash: passwordHash, CreatedAt: s.now().UTC()}
	s.users[u.ID] = u
	return u, nil
}

// UserByEmail returns the account with email
func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

// UserByID returns the account with id
func (s *Store) UserByID(ctx context.Context, id int64) (store.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

// SaveRefreshToken stores token
func (s *Store) SaveRefreshToken(ctx context.Context, token store.RefreshToken) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tokens[token.Hash] = token
	return nil
}

// ConsumeRefreshToken removes the token with hash and returns it
func (s *Store) ConsumeRefreshToken(ctx context.Context, hash string) (store.RefreshToken, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	token, ok := s.tokens[hash]
	if !ok {
		return store.RefreshToken{}, store.ErrNotFound
	}
	delete(s.tokens, hash)
	return token, nil
}

// RevokeRefreshToken removes the token with hash if it exists
func (s *Store) RevokeRefreshToken(ctx context.Context, hash string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tokens, hash)
	return nil
}

// RevokeRefreshTokens removes all tokens of the account with userID
func (s *Store) RevokeRefreshTokens(ctx context.Context, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for hash, token := range s.tokens {
		if token.UserID == userID {
			delete(s.tokens, hash)
		}
	}
	return nil
}
