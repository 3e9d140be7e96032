// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package store defines the entity store of the portfolio backend.

A Store maps the domain operations on projects, skills, contacts and accounts
to a persistence backend. Implementations live in the sub packages memory,
postgres and supabase; driver selects one of them at startup.

All implementations share these rules:

  - ids are assigned by the store and never taken from the caller
  - a partial update changes only the fields mentioned in the patch; an empty
    patch behaves like a read
  - projects are listed featured first, then by ascending id; skills by
    ascending id; contacts newest first
  - absence is reported as ErrNotFound
*/
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("conflict")
	// ErrUnavailable is returned when the persistence backend cannot be reached
	ErrUnavailable = errors.New("persistence unavailable")
)

// Projects is the data access for projects
type Projects interface {
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	CreateProject(ctx context.Context, project Project) (Project, error)
	UpdateProject(ctx context.Context, id int64, patch ProjectPatch) (Project, error)
	DeleteProject(ctx context.Context, id int64) (Project, error)
}

// Skills is the data access for skills
type Skills interface {
	ListSkills(ctx context.Context, filter SkillFilter) ([]Skill, error)
	GetSkill(ctx context.Context, id int64) (Skill, error)
	CreateSkill(ctx context.Context, skill Skill) (Skill, error)
	UpdateSkill(ctx context.Context, id int64, patch SkillPatch) (Skill, error)
	DeleteSkill(ctx context.Context, id int64) (Skill, error)
}

// Contacts is the data access for contact submissions. Contacts are never
// deleted; the read flag is the only mutable field.
type Contacts interface {
	CreateContact(ctx context.Context, contact NewContact) (Contact, error)
	ListContacts(ctx context.Context) ([]Contact, error)
	MarkContactRead(ctx context.Context, id int64) (Contact, error)
}

// Users is the data access for accounts. CreateUser returns ErrConflict if the
// email is taken.
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
}

// Tokens is the data access for refresh tokens.
//
// ConsumeRefreshToken removes the token and returns it, so a refresh token can
// be used exactly once.
type Tokens interface {
	SaveRefreshToken(ctx context.Context, token RefreshToken) error
	ConsumeRefreshToken(ctx context.Context, hash string) (RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) error
	RevokeRefreshTokens(ctx context.Context, userID int64) error
}

// Store is the complete entity store
type Store interface {
	Projects
	Skills
	Contacts
	Users
	Tokens

	// Stats recomputes the statistics from the current contents
	Stats(ctx context.Context) (Stats, error)
	// Ping returns ErrUnavailable if the backend cannot be reached
	Ping(ctx context.Context) error
	// Driver returns the name of the backend, e.g. "postgres"
	Driver() string
	Close() error
}
