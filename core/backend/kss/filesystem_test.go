package kss_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/backend/kss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*kss.LocalFilesystem, *mux.Router) {
	router := mux.NewRouter()
	f, err := kss.NewLocalFilesystem(router, kss.LocalConfiguration{
		BasePath:  t.TempDir(),
		PublicURL: "https://example.com/",
	})
	require.NoError(t, err)
	return f, router
}

func Test_Local_UploadGet(t *testing.T) {
	f, router := newLocal(t)

	asset, err := f.Upload(context.Background(), kss.File{Filename: "cat.PNG", Body: strings.NewReader("meow")})
	require.NoError(t, err)
	assert.NotEmpty(t, asset.PublicID)
	assert.Equal(t, "https://example.com/uploads/"+asset.PublicID+".png", asset.URL)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+asset.PublicID+".png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "meow", string(body))
}

func Test_Local_UnknownFile(t *testing.T) {
	_, router := newLocal(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Local_RejectsFormat(t *testing.T) {
	f, _ := newLocal(t)
	_, err := f.Upload(context.Background(), kss.File{Filename: "notes.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, kss.ErrFormat)
}

func TestFormat(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.gif", "d.webp", "e.png"} {
		_, err := kss.Format(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"a", "b.svg", "c.png.exe"} {
		_, err := kss.Format(name)
		assert.ErrorIs(t, err, kss.ErrFormat, name)
	}
}

func TestNew(t *testing.T) {
	_, err := kss.New(context.Background(), kss.Configuration{DriverType: "ftp"}, mux.NewRouter())
	assert.Error(t, err)

	_, err = kss.New(context.Background(), kss.Configuration{DriverType: kss.DriverTypeCloudinary}, mux.NewRouter())
	assert.Error(t, err)

	d, err := kss.New(context.Background(), kss.Configuration{
		DriverType:         kss.DriverTypeLocal,
		LocalConfiguration: &kss.LocalConfiguration{BasePath: t.TempDir(), PublicURL: "http://localhost:5000"},
	}, mux.NewRouter())
	require.NoError(t, err)
	assert.Equal(t, "local", d.Name())
}
