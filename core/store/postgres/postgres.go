// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package postgres implements store.Store on a postgres database
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/relabs-tech/folio/core/csql"
	"github.com/relabs-tech/folio/core/store"
)

const (
	projectColumns = "id, title, description, tech, link, image, featured"
	skillColumns   = "id, name, level, category"
	contactColumns = "id, name, email, message, timestamp, read"
	userColumns    = "id, email, password_hash, created_at"
	tokenColumns   = "token_hash, user_id, expires_at"

	uniqueViolation = "23505"
)

// Store is a store.Store on postgres. The tables are expected in the schema of
// the database, see csql.DB.Migrate.
type Store struct {
	db *csql.DB

	projects      string
	skills        string
	contacts      string
	users         string
	refreshTokens string
}

var _ store.Store = (*Store)(nil)

// New returns a store on db
func New(db *csql.DB) *Store {
	return &Store{
		db:            db,
		projects:      db.Table("projects"),
		skills:        db.Table("skills"),
		contacts:      db.Table("contacts"),
		users:         db.Table("users"),
		refreshTokens: db.Table("refresh_tokens"),
	}
}

// Driver returns "postgres"
func (s *Store) Driver() string { return "postgres" }

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// classify maps database errors to the store errors
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Message)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (store.Project, error) {
	var p store.Project
	var image sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Description, pq.Array(&p.Tech), &p.Link, &image, &p.Featured)
	if err != nil {
		return store.Project{}, err
	}
	if p.Tech == nil {
		p.Tech = []string{}
	}
	if image.Valid {
		p.Image = &image.String
	}
	return p, nil
}

func scanSkill(row scanner) (store.Skill, error) {
	var sk store.Skill
	var level sql.NullInt64
	if err := row.Scan(&sk.ID, &sk.Name, &level, &sk.Category); err != nil {
		return store.Skill{}, err
	}
	if level.Valid {
		l := int(level.Int64)
		sk.Level = &l
	}
	return sk, nil
}

func scanContact(row scanner) (store.Contact, error) {
	var c store.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Timestamp, &c.Read)
	return c, err
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// assignments builds the SET clause of a partial update. The returned
// arguments end with id.
type assignments struct {
	parts []string
	args  []interface{}
}

func (a *assignments) set(column string, value interface{}) {
	a.args = append(a.args, value)
	a.parts = append(a.parts, fmt.Sprintf("%s = $%d", column, len(a.args)))
}

func (a *assignments) empty() bool {
	return len(a.parts) == 0
}

func (a *assignments) update(table string, id int64, returning string) (string, []interface{}) {
	args := append(a.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s;",
		table, strings.Join(a.parts, ", "), len(args), returning)
	return query, args
}

// ListProjects returns the projects featured first, then by ascending id
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error) {
	query := "SELECT " + projectColumns + " FROM " + s.projects
	var args []interface{}
	if filter.Featured != nil {
		query += " WHERE featured = $1"
		args = append(args, *filter.Featured)
	}
	query += " ORDER BY featured DESC, id;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list projects: %w", classify(err))
	}
	defer rows.Close()
	projects := []store.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, classify(rows.Err())
}

// GetProject returns the project with id
func (s *Store) GetProject(ctx context.Context, id int64) (store.Project, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM "+s.projects+" WHERE id = $1;", id)
	p, err := scanProject(row)
	return p, classify(err)
}

// CreateProject inserts project. The id of project is ignored.
func (s *Store) CreateProject(ctx context.Context, project store.Project) (store.Project, error) {
	tech := project.Tech
	if tech == nil {
		tech = []string{}
	}
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO "+s.projects+" (title, description, tech, link, image, featured) VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+projectColumns+";",
		project.Title, project.Description, pq.Array(tech), project.Link, nullable(project.Image), project.Featured)
	p, err := scanProject(row)
	if err != nil {
		return store.Project{}, fmt.Errorf("cannot create project: %w", classify(err))
	}
	return p, nil
}

// UpdateProject changes the mentioned fields of the project with id. An empty
// patch reads the project.
func (s *Store) UpdateProject(ctx context.Context, id int64, patch store.ProjectPatch) (store.Project, error) {
	patch.NormalizeImage()
	var a assignments
	if patch.Title != nil {
		a.set("title", *patch.Title)
	}
	if patch.Description != nil {
		a.set("description", *patch.Description)
	}
	if patch.Tech != nil {
		a.set("tech", pq.Array(patch.Tech))
	}
	if patch.Link != nil {
		a.set("link", *patch.Link)
	}
	if patch.Image != nil {
		a.set("image", *patch.Image)
	} else if patch.ClearImage {
		a.set("image", nil)
	}
	if patch.Featured != nil {
		a.set("featured", *patch.Featured)
	}
	if a.empty() {
		return s.GetProject(ctx, id)
	}
	query, args := a.update(s.projects, id, projectColumns)
	p, err := scanProject(s.db.QueryRowContext(ctx, query, args...))
	return p, classify(err)
}

// DeleteProject deletes the project with id and returns it
func (s *Store) DeleteProject(ctx context.Context, id int64) (store.Project, error) {
	row := s.db.QueryRowContext(ctx, "DELETE FROM "+s.projects+" WHERE id = $1 RETURNING "+projectColumns+";", id)
	p, err := scanProject(row)
	return p, classify(err)
}

// ListSkills returns the skills by ascending id
func (s *Store) ListSkills(ctx context.Context, filter store.SkillFilter) ([]store.Skill, error) {
	query := "SELECT " + skillColumns + " FROM " + s.skills
	var args []interface{}
	if filter.Category != "" {
		query += " WHERE category = $1"
		args = append(args, filter.Category)
	}
	query += " ORDER BY id;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list skills: %w", classify(err))
	}
	defer rows.Close()
	skills := []store.Skill{}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, classify(rows.Err())
}

// GetSkill returns the skill with id
func (s *Store) GetSkill(ctx context.Context, id int64) (store.Skill, error) {
	sk, err := scanSkill(s.db.QueryRowContext(ctx, "SELECT "+skillColumns+" FROM "+s.skills+" WHERE id = $1;", id))
	return sk, classify(err)
}

// CreateSkill inserts skill
func (s *Store) CreateSkill(ctx context.Context, skill store.Skill) (store.Skill, error) {
	var level interface{}
	if skill.Level != nil {
		level = *skill.Level
	}
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO "+s.skills+" (name, level, category) VALUES ($1, $2, $3) RETURNING "+skillColumns+";",
		skill.Name, level, skill.Category)
	sk, err := scanSkill(row)
	if err != nil {
		return store.Skill{}, fmt.Errorf("cannot create skill: %w", classify(err))
	}
	return sk, nil
}

// UpdateSkill changes the mentioned fields of the skill with id
func (s *Store) UpdateSkill(ctx context.Context, id int64, patch store.SkillPatch) (store.Skill, error) {
	var a assignments
	if patch.Name != nil {
		a.set("name", *patch.Name)
	}
	if patch.Level != nil {
		a.set("level", *patch.Level)
	}
	if patch.Category != nil {
		a.set("category", *patch.Category)
	}
	if a.empty() {
		return s.GetSkill(ctx, id)
	}
	query, args := a.update(s.skills, id, skillColumns)
	sk, err := scanSkill(s.db.QueryRowContext(ctx, query, args...))
	return sk, classify(err)
}

// DeleteSkill deletes the skill with id and returns it
func (s *Store) DeleteSkill(ctx context.Context, id int64) (store.Skill, error) {
	sk, err := scanSkill(s.db.QueryRowContext(ctx, "DELETE FROM "+s.skills+" WHERE id = $1 RETURNING "+skillColumns+";", id))
	return sk, classify(err)
}

// CreateContact inserts contact. Timestamp and read flag are set by the database.
func (s *Store) CreateContact(ctx context.Context, contact store.NewContact) (store.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO "+s.contacts+" (name, email, message) VALUES ($1, $2, $3) RETURNING "+contactColumns+";",
		contact.Name, contact.Email, contact.Message)
	c, err := scanContact(row)
	if err != nil {
		return store.Contact{}, fmt.Errorf("cannot create contact: %w", classify(err))
	}
	return c, nil
}

// ListContacts returns the contacts newest first
func (s *Store) ListContacts(ctx context.Context) ([]store.Contact, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM "+s.contacts+" ORDER BY timestamp DESC, id DESC;")
	if err != nil {
		return nil, fmt.Errorf("cannot list contacts: %w", classify(err))
	}
	defer rows.Close()
	contacts := []store.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, classify(rows.Err())
}

// MarkContactRead sets the read flag of the contact with id
func (s *Store) MarkContactRead(ctx context.Context, id int64) (store.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx, "UPDATE "+s.contacts+" SET read = TRUE WHERE id = $1 RETURNING "+contactColumns+";", id))
	return c, classify(err)
}

// Stats counts the current contents. The counts and the category grouping are
// two statements and not isolated from concurrent writes.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	stats := store.Stats{SkillsByCategory: map[string]int{}}
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT
(SELECT COUNT(*) FROM %[1]s),
(SELECT COUNT(*) FROM %[1]s WHERE featured),
(SELECT COUNT(*) FROM %[2]s),
(SELECT COUNT(*) FROM %[3]s),
(SELECT COUNT(*) FROM %[3]s WHERE NOT read);`, s.projects, s.skills, s.contacts)).
		Scan(&stats.TotalProjects, &stats.FeaturedProjects, &stats.TotalSkills, &stats.TotalContacts, &stats.UnreadContacts)
	if err != nil {
		return store.Stats{}, fmt.Errorf("cannot count entities: %w", classify(err))
	}

	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM "+s.skills+" GROUP BY category;")
	if err != nil {
		return store.Stats{}, fmt.Errorf("cannot group skills: %w", classify(err))
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return store.Stats{}, fmt.Errorf("cannot scan skill group: %w", err)
		}
		stats.SkillsByCategory[category] = count
	}
	return stats, classify(rows.Err())
}
