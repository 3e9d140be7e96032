// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package kss

import (
	"context"
	"fmt"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/relabs-tech/folio/core/logger"
)

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 is the implementation of the KSS Driver for AWS S3
type S3 struct {
	uploader    s3Uploader
	bucket      string
	baseKeyName string
}

// NewS3 returns a new S3
func NewS3(ctx context.Context, kssConfig S3Configuration) (*S3, error) {
	if kssConfig.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	options := []func(*config.LoadOptions) error{config.WithRegion(kssConfig.AWSRegion)}
	if kssConfig.AccessID != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(kssConfig.AccessID, kssConfig.AccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("KSS S3 enabled")
	return &S3{
		uploader:    manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:      kssConfig.AWSBucketName,
		baseKeyName: kssConfig.KeyPrefix,
	}, nil
}

// Name implements Driver
func (s *S3) Name() string {
	return string(DriverTypeAWSS3)
}

// Upload implements Driver. The object key is the key prefix followed by a
// random name with the original extension.
func (s *S3) Upload(ctx context.Context, file File) (Asset, error) {
	ext, err := Format(file.Filename)
	if err != nil {
		return Asset{}, err
	}
	publicID := path.Join(s.baseKeyName, uuid.New().String())
	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension("." + ext)
	}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(publicID + "." + ext),
		Body:        file.Body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("Error 1210: could not upload '%s' to bucket %s", file.Filename, s.bucket)
		return Asset{}, fmt.Errorf("failed to upload file, %v", err)
	}
	logger.FromContext(ctx).Infof("uploaded '%s' to %s", file.Filename, out.Location)
	return Asset{URL: out.Location, PublicID: publicID}, nil
}
