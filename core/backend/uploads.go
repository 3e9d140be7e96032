// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/backend/kss"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/schema"
)

// Upload limits
const (
	MaxUploadFiles    = 10
	MaxUploadFileSize = 10 << 20
	multipartMemory   = 32 << 20
)

type uploadedImage struct {
	Message  string `json:"message"`
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type uploadedImages struct {
	Message string      `json:"message"`
	Images  []kss.Asset `json:"images"`
}

func (b *Backend) handleUploads(router *mux.Router) {
	logger.Default().Debugln("uploads")
	logger.Default().Debugln("  handle route: /api/uploads/image POST")
	logger.Default().Debugln("  handle route: /api/uploads/images POST")

	router.HandleFunc("/uploads/image", b.uploadImage).Methods(http.MethodPost)
	router.HandleFunc("/uploads/images", b.uploadImages).Methods(http.MethodPost)
}

func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4701", message: "Failed to upload image"}
	headers, err := b.multipartFiles(w, r, "image", 1, "No file uploaded")
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	asset, err := b.uploadFile(r, headers[0])
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, uploadedImage{Message: "Image uploaded successfully", URL: asset.URL, PublicID: asset.PublicID})
}

func (b *Backend) uploadImages(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4702", message: "Failed to upload images"}
	headers, err := b.multipartFiles(w, r, "images", MaxUploadFiles, "No files uploaded")
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	assets := make([]kss.Asset, 0, len(headers))
	for _, header := range headers {
		asset, err := b.uploadFile(r, header)
		if err != nil {
			respondError(w, r, err, f)
			return
		}
		assets = append(assets, asset)
	}
	writeJSON(w, http.StatusOK, uploadedImages{Message: "Images uploaded successfully", Images: assets})
}

// multipartFiles returns the files of field. It fails with a validation error
// if there is none, more than max or a file exceeds MaxUploadFileSize.
func (b *Backend) multipartFiles(w http.ResponseWriter, r *http.Request, field string, max int, missing string) ([]*multipart.FileHeader, error) {
	if b.uploads == nil {
		return nil, errors.New("no upload driver configured")
	}
	if r.Body == nil {
		return nil, &schema.ValidationError{Field: field, Message: missing}
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(max)*MaxUploadFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		logger.FromContext(r.Context()).WithError(err).Debugln("cannot parse multipart form")
		return nil, &schema.ValidationError{Field: field, Message: missing}
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, &schema.ValidationError{Field: field, Message: missing}
	}
	if len(headers) > max {
		return nil, &schema.ValidationError{Field: field, Message: fmt.Sprintf("At most %d files can be uploaded at once", max)}
	}
	for _, header := range headers {
		if header.Size > MaxUploadFileSize {
			return nil, &schema.ValidationError{Field: field, Message: fmt.Sprintf("File %s exceeds %d MB", header.Filename, MaxUploadFileSize>>20)}
		}
	}
	return headers, nil
}

// uploadFile hands a single file to the upload driver
func (b *Backend) uploadFile(r *http.Request, header *multipart.FileHeader) (kss.Asset, error) {
	if _, err := kss.Format(header.Filename); err != nil {
		return kss.Asset{}, &schema.ValidationError{Field: "image", Message: "Only jpg, png, jpeg, gif and webp images are allowed"}
	}
	file, err := header.Open()
	if err != nil {
		return kss.Asset{}, fmt.Errorf("cannot open %s: %w", header.Filename, err)
	}
	defer file.Close()

	asset, err := b.uploads.Upload(r.Context(), kss.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return kss.Asset{}, fmt.Errorf("%s upload of %s: %w", b.uploads.Name(), header.Filename, err)
	}
	logger.FromContext(r.Context()).Infof("uploaded %s to %s", header.Filename, asset.URL)
	return asset, nil
}
