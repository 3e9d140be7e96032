package client

import (
	"io"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	client := NewWithRouter(nil)

	collection := client.Collection("projects")
	assert.Equal(t, "/api/projects", collection.CollectionPath())
	assert.Equal(t, "/api/projects/42", collection.Item(42).Path())

	filtered := collection.WithParameter("featured", "true")
	assert.Equal(t, "/api/projects?featured=true", filtered.CollectionPath())
	assert.Equal(t, "/api/projects", collection.CollectionPath(), "parameters must not leak into the original")
}

func TestWithHeaderCopies(t *testing.T) {
	base := NewWithRouter(nil)
	a := base.WithHeader("X-Test", "a")
	_ = a.WithHeader("X-Other", "b")
	assert.Empty(t, base.defaultHeaders)
	assert.Len(t, a.defaultHeaders, 1)
}

func TestRequests(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}).Methods(http.MethodPost)
	router.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Route not found"}`, http.StatusNotFound)
	})

	client := NewWithRouter(router).WithToken("secret")

	var result map[string]string
	status, err := client.RawPost("/api/echo", map[string]string{"hello": "world"}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "world", result["hello"])

	res, err := client.DoJSON(http.MethodPost, "/api/echo", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", res.Header.Get("X-Auth"))

	status, err = client.RawGet("/api/missing", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	res, err = client.Do(http.MethodGet, "/api/missing", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Route not found", res.Error())
}
