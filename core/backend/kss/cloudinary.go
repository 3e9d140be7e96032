// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package kss

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/relabs-tech/folio/core/logger"
)

type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary is the implementation of the KSS Driver for Cloudinary
type Cloudinary struct {
	uploader cloudinaryUploader
	folder   string
}

// NewCloudinary returns a new Cloudinary
func NewCloudinary(kssConfig CloudinaryConfiguration) (*Cloudinary, error) {
	if kssConfig.CloudName == "" || kssConfig.APIKey == "" || kssConfig.APISecret == "" {
		return nil, fmt.Errorf("cloud name, API key and API secret must not be empty")
	}
	cld, err := cloudinary.NewFromParams(kssConfig.CloudName, kssConfig.APIKey, kssConfig.APISecret)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("KSS cloudinary enabled")
	return &Cloudinary{uploader: &cld.Upload, folder: kssConfig.Folder}, nil
}

// Name implements Driver
func (c *Cloudinary) Name() string {
	return string(DriverTypeCloudinary)
}

// Upload implements Driver
func (c *Cloudinary) Upload(ctx context.Context, file File) (Asset, error) {
	if _, err := Format(file.Filename); err != nil {
		return Asset{}, err
	}
	formats := make(api.CldAPIArray, len(AllowedFormats))
	copy(formats, AllowedFormats)

	resp, err := c.uploader.Upload(ctx, file.Body, uploader.UploadParams{
		Folder:         c.folder,
		AllowedFormats: formats,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("Error 1220: could not upload '%s'", file.Filename)
		return Asset{}, err
	}
	if resp.Error.Message != "" {
		logger.FromContext(ctx).Errorf("Error 1221: cloudinary rejected '%s': %s", file.Filename, resp.Error.Message)
		return Asset{}, fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	return Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
