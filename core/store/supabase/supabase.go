// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package supabase implements store.Store on the PostgREST API of a supabase
// project. The project must hold the tables created by csql.DB.Migrate in its
// public schema.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/relabs-tech/folio/core/store"
)

// Store is a store.Store on supabase
type Store struct {
	client *Client
}

var _ store.Store = (*Store)(nil)

// New returns a store using client
func New(client *Client) *Store {
	return &Store{client: client}
}

// Driver returns "supabase"
func (s *Store) Driver() string { return "supabase" }

// Close does nothing, the HTTP client needs no teardown
func (s *Store) Close() error { return nil }

// Ping reads a single project id
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.client.From("projects").Select("id").Limit(1).Execute(ctx)
	return check(resp, err)
}

// check maps transport failures and server errors to store.ErrUnavailable and
// conflicts to store.ErrConflict
func check(resp *Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %v", store.ErrConflict, resp.Error())
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %v", store.ErrUnavailable, resp.Error())
	}
	return resp.Error()
}

// decode checks resp and unmarshals the rows into v
func decode(resp *Response, err error, v interface{}) error {
	if err := check(resp, err); err != nil {
		return err
	}
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

// first decodes a row list which must hold a single row
func first[T any](resp *Response, err error) (T, error) {
	var rows []T
	var zero T
	if err := decode(resp, err, &rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, store.ErrNotFound
	}
	return rows[0], nil
}

type projectRow struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
	Link        string   `json:"link"`
	Image       *string  `json:"image"`
	Featured    bool     `json:"featured"`
}

func normalizeProject(p store.Project) store.Project {
	if p.Tech == nil {
		p.Tech = []string{}
	}
	return p
}

// ListProjects returns the projects featured first, then by ascending id
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error) {
	q := s.client.From("projects").Select("*").Order("featured", false).Order("id", true)
	if filter.Featured != nil {
		q = q.Eq("featured", *filter.Featured)
	}
	projects := []store.Project{}
	resp, err := q.Execute(ctx)
	if err := decode(resp, err, &projects); err != nil {
		return nil, fmt.Errorf("cannot list projects: %w", err)
	}
	for i := range projects {
		projects[i] = normalizeProject(projects[i])
	}
	return projects, nil
}

// GetProject returns the project with id
func (s *Store) GetProject(ctx context.Context, id int64) (store.Project, error) {
	resp, err := s.client.From("projects").Select("*").Eq("id", id).Limit(1).Execute(ctx)
	p, err := first[store.Project](resp, err)
	return normalizeProject(p), err
}

// CreateProject inserts project. The id of project is ignored.
func (s *Store) CreateProject(ctx context.Context, project store.Project) (store.Project, error) {
	row := projectRow{
		Title:       project.Title,
		Description: project.Description,
		Tech:        project.Tech,
		Link:        project.Link,
		Image:       project.Image,
		Featured:    project.Featured,
	}
	if row.Tech == nil {
		row.Tech = []string{}
	}
	resp, err := s.client.From("projects").ExecuteInsert(ctx, row)
	p, err := first[store.Project](resp, err)
	if err != nil {
		return store.Project{}, fmt.Errorf("cannot create project: %w", err)
	}
	return normalizeProject(p), nil
}

// UpdateProject changes the mentioned fields of the project with id. An empty
// patch reads the project.
func (s *Store) UpdateProject(ctx context.Context, id int64, patch store.ProjectPatch) (store.Project, error) {
	patch.NormalizeImage()
	fields := map[string]interface{}{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Tech != nil {
		fields["tech"] = patch.Tech
	}
	if patch.Link != nil {
		fields["link"] = *patch.Link
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	} else if patch.ClearImage {
		fields["image"] = nil
	}
	if patch.Featured != nil {
		fields["featured"] = *patch.Featured
	}
	if len(fields) == 0 {
		return s.GetProject(ctx, id)
	}
	resp, err := s.client.From("projects").Eq("id", id).ExecuteUpdate(ctx, fields)
	p, err := first[store.Project](resp, err)
	return normalizeProject(p), err
}

// DeleteProject deletes the project with id and returns it
func (s *Store) DeleteProject(ctx context.Context, id int64) (store.Project, error) {
	resp, err := s.client.From("projects").Eq("id", id).ExecuteDelete(ctx)
	p, err := first[store.Project](resp, err)
	return normalizeProject(p), err
}

type skillRow struct {
	Name     string `json:"name"`
	Level    *int   `json:"level"`
	Category string `json:"category"`
}

// ListSkills returns the skills by ascending id
func (s *Store) ListSkills(ctx context.Context, filter store.SkillFilter) ([]store.Skill, error) {
	q := s.client.From("skills").Select("*").Order("id", true)
	if filter.Category != "" {
		q = q.Eq("category", filter.Category)
	}
	skills := []store.Skill{}
	resp, err := q.Execute(ctx)
	if err := decode(resp, err, &skills); err != nil {
		return nil, fmt.Errorf("cannot list skills: %w", err)
	}
	return skills, nil
}

// GetSkill returns the skill with id
func (s *Store) GetSkill(ctx context.Context, id int64) (store.Skill, error) {
	resp, err := s.client.From("skills").Select("*").Eq("id", id).Limit(1).Execute(ctx)
	return first[store.Skill](resp, err)
}

// CreateSkill inserts skill
func (s *Store) CreateSkill(ctx context.Context, skill store.Skill) (store.Skill, error) {
	resp, err := s.client.From("skills").ExecuteInsert(ctx, skillRow{Name: skill.Name, Level: skill.Level, Category: skill.Category})
	sk, err := first[store.Skill](resp, err)
	if err != nil {
		return store.Skill{}, fmt.Errorf("cannot create skill: %w", err)
	}
	return sk, nil
}

// UpdateSkill changes the mentioned fields of the skill with id
func (s *Store) UpdateSkill(ctx context.Context, id int64, patch store.SkillPatch) (store.Skill, error) {
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Level != nil {
		fields["level"] = *patch.Level
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if len(fields) == 0 {
		return s.GetSkill(ctx, id)
	}
	resp, err := s.client.From("skills").Eq("id", id).ExecuteUpdate(ctx, fields)
	return first[store.Skill](resp, err)
}

// DeleteSkill deletes the skill with id and returns it
func (s *Store) DeleteSkill(ctx context.Context, id int64) (store.Skill, error) {
	resp, err := s.client.From("skills").Eq("id", id).ExecuteDelete(ctx)
	return first[store.Skill](resp, err)
}

// CreateContact inserts contact. Timestamp and read flag are set by the database.
func (s *Store) CreateContact(ctx context.Context, contact store.NewContact) (store.Contact, error) {
	resp, err := s.client.From("contacts").ExecuteInsert(ctx, contact)
	c, err := first[store.Contact](resp, err)
	if err != nil {
		return store.Contact{}, fmt.Errorf("cannot create contact: %w", err)
	}
	return c, nil
}

// ListContacts returns the contacts newest first
func (s *Store) ListContacts(ctx context.Context) ([]store.Contact, error) {
	contacts := []store.Contact{}
	resp, err := s.client.From("contacts").Select("*").Order("timestamp", false).Order("id", false).Execute(ctx)
	if err := decode(resp, err, &contacts); err != nil {
		return nil, fmt.Errorf("cannot list contacts: %w", err)
	}
	return contacts, nil
}

// MarkContactRead sets the read flag of the contact with id
func (s *Store) MarkContactRead(ctx context.Context, id int64) (store.Contact, error) {
	resp, err := s.client.From("contacts").Eq("id", id).ExecuteUpdate(ctx, map[string]bool{"read": true})
	return first[store.Contact](resp, err)
}

// Stats aggregates the full entity lists. PostgREST offers no grouping without
// a stored procedure, so the counts are computed here.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	projects, err := s.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		return store.Stats{}, err
	}
	skills, err := s.ListSkills(ctx, store.SkillFilter{})
	if err != nil {
		return store.Stats{}, err
	}
	contacts, err := s.ListContacts(ctx)
	if err != nil {
		return store.Stats{}, err
	}
	return store.Aggregate(projects, skills, contacts), nil
}

type userRow struct {
	ID           int64     `json:"id,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

func (u userRow) user() store.User {
	return store.User{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
}

// CreateUser inserts an account. A taken email returns store.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (store.User, error) {
	resp, err := s.client.From("users").ExecuteInsert(ctx, map[string]string{"email": email, "password_hash": passwordHash})
	u, err := first[userRow](resp, err)
	if err != nil {
		return store.User{}, fmt.Errorf("cannot create user: %w", err)
	}
	return u.user(), nil
}

// UserByEmail returns the account with email
func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	resp, err := s.client.From("users").Select("*").Eq("email", email).Limit(1).Execute(ctx)
	u, err := first[userRow](resp, err)
	return u.user(), err
}

// UserByID returns the account with id
func (s *Store) UserByID(ctx context.Context, id int64) (store.User, error) {
	resp, err := s.client.From("users").Select("*").Eq("id", id).Limit(1).Execute(ctx)
	u, err := first[userRow](resp, err)
	return u.user(), err
}

// SaveRefreshToken inserts token
func (s *Store) SaveRefreshToken(ctx context.Context, token store.RefreshToken) error {
	resp, err := s.client.From("refresh_tokens").ExecuteInsert(ctx, token)
	if err := check(resp, err); err != nil {
		return fmt.Errorf("cannot save refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken deletes the token with hash and returns it
func (s *Store) ConsumeRefreshToken(ctx context.Context, hash string) (store.RefreshToken, error) {
	resp, err := s.client.From("refresh_tokens").Eq("token_hash", hash).ExecuteDelete(ctx)
	return first[store.RefreshToken](resp, err)
}

// RevokeRefreshToken deletes the token with hash if it exists
func (s *Store) RevokeRefreshToken(ctx context.Context, hash string) error {
	resp, err := s.client.From("refresh_tokens").Eq("token_hash", hash).ExecuteDelete(ctx)
	return check(resp, err)
}

// RevokeRefreshTokens deletes all tokens of the account with userID
func (s *Store) RevokeRefreshTokens(ctx context.Context, userID int64) error {
	resp, err := s.client.From("refresh_tokens").Eq("user_id", userID).ExecuteDelete(ctx)
	return check(resp, err)
}
