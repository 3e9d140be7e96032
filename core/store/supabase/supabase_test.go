package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/folio/core/pointers"
	"github.com/relabs-tech/folio/core/store"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{URL: srv.URL + "/", APIKey: "key"})
	require.NoError(t, err)
	return New(client)
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(Config{APIKey: "key"})
	assert.Error(t, err)
	_, err = NewClient(Config{URL: "http://localhost"})
	assert.Error(t, err)
}

func TestListProjectsOrdering(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "featured.desc,id.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "eq.true", r.URL.Query().Get("featured"))
		assert.Equal(t, "key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":2,"title":"B","description":"d","tech":["Go"],"link":"#","image":null,"featured":true}]`))
	})

	projects, err := s.ListProjects(context.Background(), store.ProjectFilter{Featured: pointers.BoolPtr(true)})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, int64(2), projects[0].ID)
	assert.Nil(t, projects[0].Image)
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.9", r.URL.Query().Get("id"))
		w.Write([]byte(`[]`))
	})
	_, err := s.GetProject(context.Background(), 9)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestUpdateProjectSendsOnlyMentionedFields(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.4", r.URL.Query().Get("id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		body, _ := io.ReadAll(r.Body)
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &fields))
		assert.Equal(t, map[string]interface{}{"title": "New", "image": nil}, fields)
		w.Write([]byte(`[{"id":4,"title":"New","description":"d","tech":["Go"],"link":"#","image":null,"featured":false}]`))
	})

	p, err := s.UpdateProject(context.Background(), 4, store.ProjectPatch{Title: pointers.StringPtr("New"), ClearImage: true})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Title)
}

func TestUpdateProjectEmptyPatchReads(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[{"id":4,"title":"T","description":"d","tech":null,"link":"#","image":"a.png","featured":false}]`))
	})

	p, err := s.UpdateProject(context.Background(), 4, store.ProjectPatch{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, p.Tech)
	assert.Equal(t, "a.png", pointers.Safe(p.Image))
}

func TestDeleteSkillMissing(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`[]`))
	})
	_, err := s.DeleteSkill(context.Background(), 1)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCreateUserConflict(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})
	_, err := s.CreateUser(context.Background(), "a@b.co", "hash")
	assert.True(t, errors.Is(err, store.ErrConflict))
}

func TestCreateUserDecodesHash(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":1,"email":"a@b.co","password_hash":"hash","created_at":"2024-01-01T10:00:00Z"}]`))
	})
	u, err := s.CreateUser(context.Background(), "a@b.co", "hash")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, int64(1), u.ID)
}

func TestServerErrorsAreUnavailable(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.True(t, errors.Is(s.Ping(context.Background()), store.ErrUnavailable))
}

func TestTransportErrorsAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client, err := NewClient(Config{URL: srv.URL, APIKey: "key"})
	require.NoError(t, err)

	_, err = New(client).ListSkills(context.Background(), store.SkillFilter{})
	assert.True(t, errors.Is(err, store.ErrUnavailable))
}

func TestStatsAggregatesLists(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/projects":
			w.Write([]byte(`[{"id":1,"featured":true},{"id":2,"featured":false}]`))
		case "/rest/v1/skills":
			w.Write([]byte(`[{"id":1,"name":"Go","category":"backend"},{"id":2,"name":"CSS","category":"frontend"}]`))
		case "/rest/v1/contacts":
			assert.Equal(t, "timestamp.desc,id.desc", r.URL.Query().Get("order"))
			w.Write([]byte(`[{"id":1,"read":false,"timestamp":"2024-01-01T10:00:00Z"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Stats{
		TotalProjects:    2,
		FeaturedProjects: 1,
		TotalSkills:      2,
		SkillsByCategory: map[string]int{"backend": 1, "frontend": 1},
		TotalContacts:    1,
		UnreadContacts:   1,
	}, stats)
}
