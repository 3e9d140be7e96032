// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package storetest holds a test suite every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/relabs-tech/folio/core/pointers"
	"github.com/relabs-tech/folio/core/store"
)

// StoreSuite runs the store contract against the store returned by NewStore.
// NewStore is called before every test and must return an empty store.
type StoreSuite struct {
	suite.Suite
	NewStore func() store.Store

	store store.Store
	ctx   context.Context
}

// SetupTest creates a fresh store
func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

// TearDownTest closes the store
func (s *StoreSuite) TearDownTest() {
	s.store.Close()
}

func (s *StoreSuite) newProject(title string, featured bool) store.Project {
	p, err := s.store.CreateProject(s.ctx, store.Project{
		Title:       title,
		Description: title + " description",
		Tech:        []string{"Go", "SQL"},
		Link:        store.DefaultLink,
		Featured:    featured,
	})
	s.Require().NoError(err)
	return p
}

func (s *StoreSuite) TestProjectOrdering() {
	a := s.newProject("a", false)
	b := s.newProject("b", true)
	c := s.newProject("c", false)
	d := s.newProject("d", true)

	projects, err := s.store.ListProjects(s.ctx, store.ProjectFilter{})
	s.Require().NoError(err)
	var ids []int64
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	s.Equal([]int64{b.ID, d.ID, a.ID, c.ID}, ids)

	featured, err := s.store.ListProjects(s.ctx, store.ProjectFilter{Featured: pointers.BoolPtr(true)})
	s.Require().NoError(err)
	s.Len(featured, 2)
	for _, p := range featured {
		s.True(p.Featured)
	}

	other, err := s.store.ListProjects(s.ctx, store.ProjectFilter{Featured: pointers.BoolPtr(false)})
	s.Require().NoError(err)
	s.Len(other, 2)
}

func (s *StoreSuite) TestEmptyListIsNotAnError() {
	projects, err := s.store.ListProjects(s.ctx, store.ProjectFilter{})
	s.Require().NoError(err)
	s.NotNil(projects)
	s.Empty(projects)

	skills, err := s.store.ListSkills(s.ctx, store.SkillFilter{Category: "nothing"})
	s.Require().NoError(err)
	s.Empty(skills)

	contacts, err := s.store.ListContacts(s.ctx)
	s.Require().NoError(err)
	s.Empty(contacts)
}

func (s *StoreSuite) TestProjectRoundTrip() {
	created, err := s.store.CreateProject(s.ctx, store.Project{
		ID:          999,
		Title:       "Folio",
		Description: "Portfolio backend",
		Tech:        []string{"Go", "Postgres"},
		Link:        "https://example.com",
		Image:       pointers.StringPtr("https://example.com/a.png"),
		Featured:    true,
	})
	s.Require().NoError(err)
	s.NotEqual(int64(999), created.ID)

	got, err := s.store.GetProject(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, got)

	_, err = s.store.GetProject(s.ctx, created.ID+1000)
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestProjectPartialUpdate() {
	p := s.newProject("Old", true)

	updated, err := s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{Title: pointers.StringPtr("New")})
	s.Require().NoError(err)
	expected := p
	expected.Title = "New"
	s.Equal(expected, updated)

	same, err := s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{})
	s.Require().NoError(err)
	s.Equal(expected, same)

	withImage, err := s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{Image: pointers.StringPtr("img.png"), Tech: []string{"Rust"}})
	s.Require().NoError(err)
	s.Equal("img.png", pointers.Safe(withImage.Image))
	s.Equal([]string{"Rust"}, withImage.Tech)
	s.Equal("New", withImage.Title)

	cleared, err := s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{ClearImage: true})
	s.Require().NoError(err)
	s.Nil(cleared.Image)

	_, err = s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{Image: pointers.StringPtr("img.png")})
	s.Require().NoError(err)
	emptied, err := s.store.UpdateProject(s.ctx, p.ID, store.ProjectPatch{Image: pointers.StringPtr("")})
	s.Require().NoError(err)
	s.Nil(emptied.Image)

	_, err = s.store.UpdateProject(s.ctx, p.ID+1000, store.ProjectPatch{Title: pointers.StringPtr("x")})
	s.True(errors.Is(err, store.ErrNotFound))
	_, err = s.store.UpdateProject(s.ctx, p.ID+1000, store.ProjectPatch{})
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestProjectDelete() {
	p := s.newProject("Gone", false)
	deleted, err := s.store.DeleteProject(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p, deleted)

	_, err = s.store.DeleteProject(s.ctx, p.ID)
	s.True(errors.Is(err, store.ErrNotFound))
	_, err = s.store.GetProject(s.ctx, p.ID)
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestUniqueIDsUnderConcurrency() {
	const n = 20
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sk, err := s.store.CreateSkill(s.ctx, store.Skill{Name: "Go", Category: "backend"})
			if err == nil {
				ids <- sk.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		s.False(seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	s.Len(seen, n)
}

func (s *StoreSuite) TestSkills() {
	a, err := s.store.CreateSkill(s.ctx, store.Skill{Name: "Go", Level: pointers.IntPtr(90), Category: "backend"})
	s.Require().NoError(err)
	b, err := s.store.CreateSkill(s.ctx, store.Skill{Name: "React", Category: "frontend"})
	s.Require().NoError(err)
	s.Nil(b.Level)

	skills, err := s.store.ListSkills(s.ctx, store.SkillFilter{})
	s.Require().NoError(err)
	s.Require().Len(skills, 2)
	s.Equal(a.ID, skills[0].ID)
	s.Equal(b.ID, skills[1].ID)

	frontend, err := s.store.ListSkills(s.ctx, store.SkillFilter{Category: "frontend"})
	s.Require().NoError(err)
	s.Require().Len(frontend, 1)
	s.Equal("React", frontend[0].Name)

	updated, err := s.store.UpdateSkill(s.ctx, a.ID, store.SkillPatch{Level: pointers.IntPtr(95)})
	s.Require().NoError(err)
	s.Equal(95, pointers.Safe(updated.Level))
	s.Equal("Go", updated.Name)
	s.Equal("backend", updated.Category)

	same, err := s.store.UpdateSkill(s.ctx, a.ID, store.SkillPatch{})
	s.Require().NoError(err)
	s.Equal(updated, same)

	got, err := s.store.GetSkill(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(updated, got)

	deleted, err := s.store.DeleteSkill(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, deleted.ID)
	_, err = s.store.DeleteSkill(s.ctx, b.ID)
	s.True(errors.Is(err, store.ErrNotFound))
	_, err = s.store.UpdateSkill(s.ctx, b.ID, store.SkillPatch{Name: pointers.StringPtr("x")})
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestContacts() {
	first, err := s.store.CreateContact(s.ctx, store.NewContact{Name: "Ada", Email: "ada@example.com", Message: "first message"})
	s.Require().NoError(err)
	s.False(first.Read)
	s.False(first.Timestamp.IsZero())
	time.Sleep(10 * time.Millisecond)
	second, err := s.store.CreateContact(s.ctx, store.NewContact{Name: "Bob", Email: "bob@example.com", Message: "second message"})
	s.Require().NoError(err)

	contacts, err := s.store.ListContacts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(contacts, 2)
	s.Equal(second.ID, contacts[0].ID)
	s.Equal(first.ID, contacts[1].ID)

	read, err := s.store.MarkContactRead(s.ctx, first.ID)
	s.Require().NoError(err)
	s.True(read.Read)
	s.Equal(first.Message, read.Message)

	_, err = s.store.MarkContactRead(s.ctx, second.ID+1000)
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestStats() {
	s.newProject("a", true)
	s.newProject("b", false)
	s.newProject("c", true)
	for _, sk := range []store.Skill{{Name: "Go", Category: "backend"}, {Name: "SQL", Category: "backend"}, {Name: "CSS", Category: "frontend"}} {
		_, err := s.store.CreateSkill(s.ctx, sk)
		s.Require().NoError(err)
	}
	c, err := s.store.CreateContact(s.ctx, store.NewContact{Name: "Ada", Email: "a@b.co", Message: "hello there!"})
	s.Require().NoError(err)
	_, err = s.store.CreateContact(s.ctx, store.NewContact{Name: "Bob", Email: "b@b.co", Message: "hello again!"})
	s.Require().NoError(err)
	_, err = s.store.MarkContactRead(s.ctx, c.ID)
	s.Require().NoError(err)

	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(store.Stats{
		TotalProjects:    3,
		FeaturedProjects: 2,
		TotalSkills:      3,
		SkillsByCategory: map[string]int{"backend": 2, "frontend": 1},
		TotalContacts:    2,
		UnreadContacts:   1,
	}, stats)

	sum := 0
	for _, n := range stats.SkillsByCategory {
		sum += n
	}
	s.Equal(stats.TotalSkills, sum)
}

func (s *StoreSuite) TestUsersAndTokens() {
	u, err := s.store.CreateUser(s.ctx, "ada@example.com", "hash")
	s.Require().NoError(err)
	_, err = s.store.CreateUser(s.ctx, "ada@example.com", "other")
	s.True(errors.Is(err, store.ErrConflict))

	byEmail, err := s.store.UserByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
	s.Equal("hash", byEmail.PasswordHash)
	byID, err := s.store.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)
	_, err = s.store.UserByEmail(s.ctx, "nobody@example.com")
	s.True(errors.Is(err, store.ErrNotFound))

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	s.Require().NoError(s.store.SaveRefreshToken(s.ctx, store.RefreshToken{Hash: "h1", UserID: u.ID, ExpiresAt: expires}))
	s.Require().NoError(s.store.SaveRefreshToken(s.ctx, store.RefreshToken{Hash: "h2", UserID: u.ID, ExpiresAt: expires}))
	s.Require().NoError(s.store.SaveRefreshToken(s.ctx, store.RefreshToken{Hash: "h3", UserID: u.ID, ExpiresAt: expires}))

	token, err := s.store.ConsumeRefreshToken(s.ctx, "h1")
	s.Require().NoError(err)
	s.Equal(u.ID, token.UserID)
	s.True(expires.Equal(token.ExpiresAt))
	_, err = s.store.ConsumeRefreshToken(s.ctx, "h1")
	s.True(errors.Is(err, store.ErrNotFound))

	s.Require().NoError(s.store.RevokeRefreshToken(s.ctx, "h2"))
	_, err = s.store.ConsumeRefreshToken(s.ctx, "h2")
	s.True(errors.Is(err, store.ErrNotFound))

	s.Require().NoError(s.store.RevokeRefreshTokens(s.ctx, u.ID))
	_, err = s.store.ConsumeRefreshToken(s.ctx, "h3")
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *StoreSuite) TestSeed() {
	s.Require().NoError(store.Seed(s.ctx, s.store))
	s.Require().NoError(store.Seed(s.ctx, s.store))

	projects, err := s.store.ListProjects(s.ctx, store.ProjectFilter{})
	s.Require().NoError(err)
	s.Len(projects, len(store.DefaultProjects()))
	skills, err := s.store.ListSkills(s.ctx, store.SkillFilter{})
	s.Require().NoError(err)
	s.Len(skills, len(store.DefaultSkills()))
}
