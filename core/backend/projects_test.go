package backend_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/relabs-tech/folio/core/access"
	"github.com/relabs-tech/folio/core/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(title string, featured bool) map[string]interface{} {
	return map[string]interface{}{
		"title":       title,
		"description": "Description of " + title,
		"tech":        []string{"Go", "Postgres"},
		"featured":    featured,
	}
}

func TestProjectCRUD(t *testing.T) {
	s := createTestService(t)
	projects := s.adminClient.Collection("projects")

	var created store.Project
	status, err := projects.Create(map[string]interface{}{
		"title":       "Folio",
		"description": "A portfolio backend",
		"tech":        []string{"Go"},
		"id":          999,
	}, &created)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.NotEqual(t, int64(999), created.ID, "ids are assigned by the store")
	assert.Equal(t, "#", created.Link)
	assert.Nil(t, created.Image)
	assert.False(t, created.Featured)

	var read store.Project
	_, err = s.client.Collection("projects").Item(created.ID).Read(&read)
	require.NoError(t, err)
	assert.Equal(t, created, read)

	var updated store.Project
	_, err = projects.Item(created.ID).Update(map[string]interface{}{"title": "Folio 2"}, &updated)
	require.NoError(t, err)
	assert.Equal(t, "Folio 2", updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Tech, updated.Tech)
	assert.Equal(t, created.Link, updated.Link)

	var unchanged store.Project
	_, err = projects.Item(created.ID).Update(map[string]interface{}{}, &unchanged)
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	var message map[string]string
	status, err = s.adminClient.RawPut(projects.Item(created.ID).Path(), []byte(`{"image":"https://img.example.com/a.png"}`), &updated)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, updated.Image)
	_, err = s.adminClient.RawPut(projects.Item(created.ID).Path(), []byte(`{"image":null}`), &updated)
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	_, err = s.adminClient.RawPut(projects.Item(created.ID).Path(), []byte(`{"image":"https://img.example.com/b.png"}`), &updated)
	require.NoError(t, err)
	var emptied map[string]interface{}
	_, err = s.adminClient.RawPut(projects.Item(created.ID).Path(), []byte(`{"image":""}`), &emptied)
	require.NoError(t, err)
	assert.Nil(t, emptied["image"], "an empty image is stored as null")

	res, err := s.adminClient.Do(http.MethodDelete, projects.Item(created.ID).Path(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.NoError(t, res.JSON(&message))
	assert.Equal(t, "Project deleted successfully", message["message"])

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		res, err = s.adminClient.DoJSON(method, projects.Item(created.ID).Path(), []byte(`{"title":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.Status, method)
		assert.Equal(t, "Project not found", res.Error(), method)
	}

	res, err = s.client.Do(http.MethodGet, "/api/projects/abc", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestProjectOrdering(t *testing.T) {
	s := createTestService(t)
	projects := s.adminClient.Collection("projects")
	for i, featured := range []bool{false, true, false, true, false} {
		_, err := projects.Create(newProject(string(rune('A'+i)), featured), nil)
		require.NoError(t, err)
	}

	var all []store.Project
	_, err := s.client.Collection("projects").List(&all)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		prev, next := all[i-1], all[i]
		if prev.Featured == next.Featured {
			assert.Less(t, prev.ID, next.ID)
		} else {
			assert.True(t, prev.Featured, "featured projects come first")
		}
	}

	var featured []store.Project
	_, err = s.client.Collection("projects").WithParameter("featured", "true").List(&featured)
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	var other []store.Project
	_, err = s.client.Collection("projects").WithParameter("featured", "false").List(&other)
	require.NoError(t, err)
	assert.Len(t, other, 3)

	var ignored []store.Project
	_, err = s.client.Collection("projects").WithParameter("featured", "maybe").List(&ignored)
	require.NoError(t, err)
	assert.Len(t, ignored, 5)
}

func TestProjectEmptyList(t *testing.T) {
	s := createTestService(t)
	var raw []byte
	_, err := s.client.RawGet("/api/projects", &raw)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestProjectValidation(t *testing.T) {
	s := createTestService(t)

	res, err := s.adminClient.DoJSON(http.MethodPost, "/api/projects", map[string]interface{}{"title": "No tech", "description": "d"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Missing required fields", res.Error())

	res, err = s.adminClient.DoJSON(http.MethodPost, "/api/projects", []byte(`not json`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res, err = s.adminClient.Do(http.MethodPost, "/api/projects", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status, "a request without body is rejected, not recovered from")
	assert.Equal(t, "Request body must be a JSON object", res.Error())
}

func TestProjectAuthGate(t *testing.T) {
	s := createTestService(t)
	expired, err := access.NewIssuer(testSecret, -time.Minute).Issue(access.Identity{UserID: 1, Email: "admin@example.com"})
	require.NoError(t, err)
	foreign, err := access.NewIssuer([]byte("other-secret"), time.Hour).Issue(access.Identity{UserID: 1, Email: "admin@example.com"})
	require.NoError(t, err)

	requests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/projects"},
		{http.MethodPut, "/api/projects/1"},
		{http.MethodDelete, "/api/projects/1"},
		{http.MethodPost, "/api/skills"},
		{http.MethodGet, "/api/contacts"},
		{http.MethodPatch, "/api/contacts/1/read"},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, request := range requests {
		res, err := s.client.DoJSON(request.method, request.path, newProject("X", false))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Status, request)
		assert.Equal(t, "Access token missing", res.Error(), request)

		for _, token := range []string{"garbage", expired, foreign} {
			res, err = s.client.WithToken(token).DoJSON(request.method, request.path, newProject("X", false))
			require.NoError(t, err)
			assert.Equal(t, http.StatusForbidden, res.Status, request)
			assert.Equal(t, "Invalid or expired token", res.Error(), request)
		}
	}

	var projects []store.Project
	_, err = s.client.Collection("projects").List(&projects)
	require.NoError(t, err)
	assert.Empty(t, projects, "rejected requests must not create anything")

	status, err := s.adminClient.Collection("projects").Create(newProject("X", false), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}

func TestProjectUniqueIDs(t *testing.T) {
	s := createTestService(t)
	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		var p store.Project
		_, err := s.adminClient.Collection("projects").Create(newProject("P", i%2 == 0), &p)
		require.NoError(t, err)
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		if i%3 == 0 {
			_, err = s.adminClient.Collection("projects").Item(p.ID).Delete()
			require.NoError(t, err)
		}
	}
}
