package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"wardrobeapi/config"
	"wardrobeapi/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobProvider is the Blob Store used for clothing images.
type BlobProvider interface {
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
	PublicURL(bucket, key string) string
	PresignUpload(ctx context.Context, bucket, key string) (string, error)
	Ping(ctx context.Context, bucket string) error
}

// S3Storage talks to any S3 compatible endpoint (Supabase Storage, R2,
// MinIO) with path-style addressing.
type S3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	endpoint      string
	publicBase    string
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	endpoint := strings.TrimRight(cfg.StorageEndpoint, "/")
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint, SigningRegion: cfg.StorageRegion}, nil
	})
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.StorageAccessKey, cfg.StorageSecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load storage config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		endpoint:      endpoint,
		publicBase:    strings.TrimRight(cfg.StoragePublicBase, "/"),
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &models.StoreError{Op: "upload " + key, Err: err}
	}
	return key, nil
}

func (s *S3Storage) PublicURL(bucket, key string) string {
	return JoinPublicURL(s.publicBase, s.endpoint, bucket, key)
}

func (s *S3Storage) PresignUpload(ctx context.Context, bucket, key string) (string, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", &models.StoreError{Op: "presign " + key, Err: err}
	}
	return request.URL, nil
}

func (s *S3Storage) Ping(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return &models.StoreError{Op: "head bucket", Err: err}
	}
	return nil
}

// JoinPublicURL builds {base}/{bucket}/{key}, falling back to the
// endpoint when no public base is configured.
func JoinPublicURL(publicBase, endpoint, bucket, key string) string {
	base := publicBase
	if base == "" {
		base = endpoint
	}
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), strings.Join(segments, "/"))
}

var _ BlobProvider = (*S3Storage)(nil)
