package backend_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/relabs-tech/folio/core/backend"
	"github.com/relabs-tech/folio/core/backend/kss"
	"github.com/relabs-tech/folio/core/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadImage(t *testing.T) {
	s := createTestService(t)

	var uploaded struct {
		Message  string `json:"message"`
		URL      string `json:"url"`
		PublicID string `json:"public_id"`
	}
	_, err := s.client.PostMultipart("/api/uploads/image", "image", []client.File{{Name: "cover.png", Data: []byte("png")}}, &uploaded)
	require.NoError(t, err)
	assert.Equal(t, "Image uploaded successfully", uploaded.Message)
	assert.NotEmpty(t, uploaded.PublicID)
	require.True(t, strings.HasPrefix(uploaded.URL, "http://localhost:5000/uploads/"), uploaded.URL)

	// the local driver serves the file itself
	var data []byte
	_, err = s.client.RawGet(strings.TrimPrefix(uploaded.URL, "http://localhost:5000"), &data)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestUploadImages(t *testing.T) {
	s := createTestService(t)

	var uploaded struct {
		Message string      `json:"message"`
		Images  []kss.Asset `json:"images"`
	}
	files := []client.File{{Name: "a.jpg", Data: []byte("a")}, {Name: "b.webp", Data: []byte("b")}}
	_, err := s.client.PostMultipart("/api/uploads/images", "images", files, &uploaded)
	require.NoError(t, err)
	assert.Equal(t, "Images uploaded successfully", uploaded.Message)
	require.Len(t, uploaded.Images, 2)
	assert.NotEqual(t, uploaded.Images[0].PublicID, uploaded.Images[1].PublicID)

	var tooMany []client.File
	for i := 0; i <= backend.MaxUploadFiles; i++ {
		tooMany = append(tooMany, client.File{Name: strconv.Itoa(i) + ".png", Data: []byte("x")})
	}
	status, err := s.client.PostMultipart("/api/uploads/images", "images", tooMany, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUploadRejects(t *testing.T) {
	s := createTestService(t)

	status, err := s.client.PostMultipart("/api/uploads/image", "other", []client.File{{Name: "a.png", Data: []byte("x")}}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)

	res, err := s.client.DoJSON(http.MethodPost, "/api/uploads/image", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "No file uploaded", res.Error())

	res, err = s.client.DoJSON(http.MethodPost, "/api/uploads/images", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "No files uploaded", res.Error())

	status, err = s.client.PostMultipart("/api/uploads/image", "image", []client.File{{Name: "script.svg", Data: []byte("<svg/>")}}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

type failingUploads struct{}

func (failingUploads) Upload(ctx context.Context, file kss.File) (kss.Asset, error) {
	io.Copy(io.Discard, file.Body)
	return kss.Asset{}, errors.New("cloud is down")
}

func (failingUploads) Name() string { return "failing" }

func TestUploadDriverFailure(t *testing.T) {
	s := createTestService(t, func(b *backend.Builder) { b.Uploads = failingUploads{} })
	res, err := s.client.Do(http.MethodPost, "/api/uploads/image", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	status, err := s.client.PostMultipart("/api/uploads/image", "image", []client.File{{Name: "a.png", Data: []byte("x")}}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, err.Error(), "Failed to upload image")
}
