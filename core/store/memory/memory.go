// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package memory implements a volatile store kept in process memory. It serves
// as the degraded fallback when persistence is unreachable, and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/relabs-tech/folio/core/store"
)

// Store is a store.Store kept in memory. All its contents are lost when the
// process ends.
type Store struct {
	mutex sync.RWMutex
	now   func() time.Time

	projects map[int64]store.Project
	skills   map[int64]store.Skill
	contacts map[int64]store.Contact
	users    map[int64]store.User
	tokens   map[string]store.RefreshToken

	lastProjectID int64
	lastSkillID   int64
	lastContactID int64
	lastUserID    int64
}

var _ store.Store = (*Store)(nil)

// New returns an empty memory store
func New() *Store {
	return &Store{
		now:      time.Now,
		projects: map[int64]store.Project{},
		skills:   map[int64]store.Skill{},
		contacts: map[int64]store.Contact{},
		users:    map[int64]store.User{},
		tokens:   map[string]store.RefreshToken{},
	}
}

// NewSeeded returns a memory store holding the default projects and skills
func NewSeeded() *Store {
	s := New()
	for _, p := range store.DefaultProjects() {
		s.CreateProject(context.Background(), p)
	}
	for _, sk := range store.DefaultSkills() {
		s.CreateSkill(context.Background(), sk)
	}
	return s
}

// Driver returns "memory"
func (s *Store) Driver() string { return "memory" }

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close does nothing
func (s *Store) Close() error { return nil }

func copyProject(p store.Project) store.Project {
	p.Tech = append([]string{}, p.Tech...)
	if p.Image != nil {
		image := *p.Image
		p.Image = &image
	}
	return p
}

func copySkill(sk store.Skill) store.Skill {
	if sk.Level != nil {
		level := *sk.Level
		sk.Level = &level
	}
	return sk
}

// ListProjects returns the projects featured first, then by ascending id
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	projects := []store.Project{}
	for _, p := range s.projects {
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		projects = append(projects, copyProject(p))
	}
	store.SortProjects(projects)
	return projects, nil
}

// GetProject returns the project with id
func (s *Store) GetProject(ctx context.Context, id int64) (store.Project, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	return copyProject(p), nil
}

// CreateProject stores project under a new id. The id of project is ignored.
func (s *Store) CreateProject(ctx context.Context, project store.Project) (store.Project, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastProjectID++
	project = copyProject(project)
	project.ID = s.lastProjectID
	s.projects[project.ID] = project
	return copyProject(project), nil
}

// UpdateProject applies patch to the project with id
func (s *Store) UpdateProject(ctx context.Context, id int64, patch store.ProjectPatch) (store.Project, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	patch.Apply(&p)
	s.projects[id] = p
	return copyProject(p), nil
}

// DeleteProject removes the project with id and returns it
func (s *Store) DeleteProject(ctx context.Context, id int64) (store.Project, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	delete(s.projects, id)
	return p, nil
}

// ListSkills returns the skills by ascending id
func (s *Store) ListSkills(ctx context.Context, filter store.SkillFilter) ([]store.Skill, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	skills := []store.Skill{}
	for _, sk := range s.skills {
		if filter.Category != "" && sk.Category != filter.Category {
			continue
		}
		skills = append(skills, copySkill(sk))
	}
	store.SortSkills(skills)
	return skills, nil
}

// GetSkill returns the skill with id
func (s *Store) GetSkill(ctx context.Context, id int64) (store.Skill, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sk, ok := s.skills[id]
	if !ok {
		return store.Skill{}, store.ErrNotFound
	}
	return copySkill(sk), nil
}

// CreateSkill stores skill under a new id
func (s *Store) CreateSkill(ctx context.Context, skill store.Skill) (store.Skill, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSkillID++
	skill = copySkill(skill)
	skill.ID = s.lastSkillID
	s.skills[skill.ID] = skill
	return copySkill(skill), nil
}

// UpdateSkill applies patch to the skill with id
func (s *Store) UpdateSkill(ctx context.Context, id int64, patch store.SkillPatch) (store.Skill, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sk, ok := s.skills[id]
	if !ok {
		return store.Skill{}, store.ErrNotFound
	}
	patch.Apply(&sk)
	s.skills[id] = sk
	return copySkill(sk), nil
}

// DeleteSkill removes the skill with id and returns it
func (s *Store) DeleteSkill(ctx context.Context, id int64) (store.Skill, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sk, ok := s.skills[id]
	if !ok {
		return store.Skill{}, store.ErrNotFound
	}
	delete(s.skills, id)
	return sk, nil
}

// CreateContact stores a contact with the current time, unread
func (s *Store) CreateContact(ctx context.Context, contact store.NewContact) (store.Contact, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastContactID++
	c := store.Contact{
		ID:        s.lastContactID,
		Name:      contact.Name,
		Email:     contact.Email,
		Message:   contact.Message,
		Timestamp: s.now().UTC(),
	}
	s.contacts[c.ID] = c
	return c, nil
}

// ListContacts returns the contacts newest first
func (s *Store) ListContacts(ctx context.Context) ([]store.Contact, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	contacts := make([]store.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, c)
	}
	store.SortContacts(contacts)
	return contacts, nil
}

// MarkContactRead sets the read flag of the contact with id
func (s *Store) MarkContactRead(ctx context.Context, id int64) (store.Contact, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return store.Contact{}, store.ErrNotFound
	}
	c.Read = true
	s.contacts[id] = c
	return c, nil
}

// Stats counts the current contents
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	projects := make([]store.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	skills := make([]store.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		skills = append(skills, sk)
	}
	contacts := make([]store.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, c)
	}
	return store.Aggregate(projects, skills, contacts), nil
}
