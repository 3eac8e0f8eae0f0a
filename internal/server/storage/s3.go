// Package storage hands out presigned S3 upload URLs for donation images.
// Clients PUT the image directly to the bucket and then store the returned
// public URL on the donation.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadExpiry is how long a presigned upload URL stays valid.
const UploadExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Config describes the bucket and the credentials used for presigning.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base of image URLs; empty means Endpoint/Bucket.
	PublicURL string
}

// Upload is a presigned PUT for one object.
type Upload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ImageURL  string    `json:"imageUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type S3ImageStore struct {
	cfg Config
	now func() time.Time
}

func NewS3ImageStore(cfg Config) *S3ImageStore {
	return &S3ImageStore{cfg: cfg, now: time.Now}
}

// ImageKey returns a fresh object key under donations/<yyyy>/<mm>/<dd>/.
func ImageKey(t time.Time) string {
	return fmt.Sprintf("donations/%04d/%02d/%02d/%s", t.Year(), int(t.Month()), t.Day(), uuid.NewString())
}

func (s *S3ImageStore) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// PresignUpload creates a presigned PUT for a new image object. contentType
// is optional; when set the upload must use the same Content-Type.
func (s *S3ImageStore) PresignUpload(ctx context.Context, contentType string) (*Upload, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	bucket := s.cfg.Bucket
	key := ImageKey(now)

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(presignClient, ctx, in, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		return nil, err
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		ImageURL:  s.PublicURL(key),
		ExpiresAt: now.Add(UploadExpiry),
	}, nil
}

// PublicURL is the URL under which an uploaded object is served.
func (s *S3ImageStore) PublicURL(key string) string {
	base := s.cfg.PublicURL
	if base == "" {
		base = strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return strings.TrimRight(base, "/") + "/" + key
}
