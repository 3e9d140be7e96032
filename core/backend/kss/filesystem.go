// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package kss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/logger"
)

// FilesystemRoute is the route under which locally stored files are served
const FilesystemRoute = "/uploads"

// LocalFilesystem stores images in a local folder and serves them itself
type LocalFilesystem struct {
	baseFolder string
	publicURL  url.URL
}

// NewLocalFilesystem returns a new LocalFilesystem. The download route is
// added to router unless router is nil.
func NewLocalFilesystem(router *mux.Router, config LocalConfiguration) (*LocalFilesystem, error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("BasePath must not be empty")
	}
	u, err := url.Parse(config.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public URL '%s': %w", config.PublicURL, err)
	}
	if err := os.MkdirAll(config.BasePath, 0700); err != nil {
		return nil, fmt.Errorf("cannot create '%s': %w", config.BasePath, err)
	}
	f := &LocalFilesystem{baseFolder: config.BasePath, publicURL: *u}
	if router != nil {
		f.configure(router)
	}
	return f, nil
}

func (f *LocalFilesystem) configure(router *mux.Router) {
	logger.Default().Debugln("filesystem routes enabled")
	logger.Default().Debugln("  handle upload route: " + FilesystemRoute + "/{name} GET")

	router.Handle(FilesystemRoute+"/{name}", http.HandlerFunc(f.handler)).Methods(http.MethodOptions, http.MethodGet)
}

func (f *LocalFilesystem) handler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.Error(w, ".. not authorized in names", http.StatusBadRequest)
		return
	}
	filePath := filepath.Join(f.baseFolder, name)
	if _, err := os.Stat(filePath); err != nil {
		http.NotFound(w, r)
		return
	}
	logger.FromContext(r.Context()).Debugf("Filesystem: [%s] name: '%s'", r.Method, name)
	http.ServeFile(w, r, filePath)
}

// Name implements Driver
func (f *LocalFilesystem) Name() string {
	return string(DriverTypeLocal)
}

// Upload implements Driver. Files are stored under a random name which keeps
// the original extension.
func (f *LocalFilesystem) Upload(ctx context.Context, file File) (Asset, error) {
	rlog := logger.FromContext(ctx)
	ext, err := Format(file.Filename)
	if err != nil {
		return Asset{}, err
	}
	publicID := uuid.New().String()
	name := publicID + "." + ext

	dstFile, err := os.Create(filepath.Join(f.baseFolder, name))
	if err != nil {
		rlog.WithError(err).Errorf("Error 1202: Could not create `%s`", name)
		return Asset{}, err
	}
	defer dstFile.Close()
	if _, err = io.Copy(dstFile, file.Body); err != nil {
		rlog.WithError(err).Errorf("Error 1204: Could not copy `%s`", name)
		os.Remove(dstFile.Name())
		return Asset{}, err
	}
	rlog.Infof("stored upload '%s' as '%s'", file.Filename, name)

	u := f.publicURL
	u.Path = strings.TrimSuffix(u.Path, "/") + FilesystemRoute + "/" + name
	return Asset{URL: u.String(), PublicID: publicID}, nil
}
