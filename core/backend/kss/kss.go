// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package kss stores uploaded images outside of the entity store.
//
// There are three backends: Cloudinary, AWS S3 and the local file system.
// Each of them returns a public URL under which the image can be fetched.
package kss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// ErrFormat is returned when the file extension is not an accepted image format
var ErrFormat = errors.New("unsupported image format")

// AllowedFormats are the accepted image file extensions
var AllowedFormats = []string{"jpg", "png", "jpeg", "gif", "webp"}

// File is a single file to be uploaded
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Asset is a stored image
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Driver defines the interface for the KSS service
type Driver interface {
	Upload(ctx context.Context, file File) (Asset, error)
	// Name returns the name of the backend, e.g. "cloudinary"
	Name() string
}

// DriverType represents the different type of KSS Drivers
type DriverType string

// DriverTypeLocal is the local filesystem implementation of the KSS service
const DriverTypeLocal DriverType = "local"

// DriverTypeAWSS3 is the AWS S3 implementation of the KSS service
const DriverTypeAWSS3 DriverType = "s3"

// DriverTypeCloudinary is the Cloudinary implementation of the KSS service
const DriverTypeCloudinary DriverType = "cloudinary"

// Configuration contains the configuration for the KSS service
type Configuration struct {
	DriverType              DriverType
	LocalConfiguration      *LocalConfiguration
	S3Configuration         *S3Configuration
	CloudinaryConfiguration *CloudinaryConfiguration
}

// LocalConfiguration contains the configuration for the local filesystem KSS service
type LocalConfiguration struct {
	BasePath string
	// PublicURL is the externally visible base URL of the service
	PublicURL string
}

// S3Configuration contains the configuration for the AWS S3 KSS service
type S3Configuration struct {
	AWSBucketName string
	AWSRegion     string
	AccessID      string
	AccessKey     string
	KeyPrefix     string
}

// CloudinaryConfiguration contains the configuration for the Cloudinary KSS service
type CloudinaryConfiguration struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// New returns the driver selected by config. The local driver registers its
// download route on router.
func New(ctx context.Context, config Configuration, router *mux.Router) (Driver, error) {
	switch config.DriverType {
	case DriverTypeLocal:
		if config.LocalConfiguration == nil {
			return nil, fmt.Errorf("missing local configuration")
		}
		return NewLocalFilesystem(router, *config.LocalConfiguration)
	case DriverTypeAWSS3:
		if config.S3Configuration == nil {
			return nil, fmt.Errorf("missing S3 configuration")
		}
		return NewS3(ctx, *config.S3Configuration)
	case DriverTypeCloudinary:
		if config.CloudinaryConfiguration == nil {
			return nil, fmt.Errorf("missing cloudinary configuration")
		}
		return NewCloudinary(*config.CloudinaryConfiguration)
	}
	return nil, fmt.Errorf("unknown upload driver '%s'", config.DriverType)
}

// Format returns the lower case extension of filename without the dot, or
// ErrFormat if it is not one of AllowedFormats.
func Format(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, f := range AllowedFormats {
		if f == ext {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrFormat, filepath.Ext(filename))
}
