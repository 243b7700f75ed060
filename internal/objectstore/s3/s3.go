// Package s3 implements objectstore.Store on Amazon S3 or any
// S3-compatible endpoint (MinIO, R2) using aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
	"github.com/MrSnakeDoc/devure/internal/utils"
)

// Options configures the S3 client.
type Options struct {
	Bucket          string // target bucket
	Region          string // ex: "eu-west-3"
	Endpoint        string // optional, custom endpoint for S3-compatible providers
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string // optional
	UsePathStyle    bool   // required by most self-hosted providers
	PublicBaseURL   string // optional, overrides the virtual-hosted URL of objects
}

// Store talks to a single bucket.
type Store struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
	logger        logger.Logger
}

// New builds an S3 client from opts and the ambient AWS configuration.
func New(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		// S3-compatible providers often reject the trailing checksums the
		// SDK sends by default.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	log.Info("s3 object store configured",
		logger.String("bucket", opts.Bucket),
		logger.String("region", opts.Region),
		logger.String("endpoint", opts.Endpoint),
		logger.Bool("path_style", opts.UsePathStyle))

	return NewWithClient(client, opts, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, opts Options, log logger.Logger) *Store {
	return &Store{
		client:        client,
		bucket:        opts.Bucket,
		region:        opts.Region,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:        log,
	}
}

func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (*objectstore.PutResult, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, &objectstore.StorageError{Op: "put", Key: key, Err: err}
	}

	return &objectstore.PutResult{
		URL:  s.URL(key),
		Key:  key,
		ETag: aws.ToString(out.ETag),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*objectstore.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &objectstore.StorageError{Op: "get", Key: key, Err: err}
	}
	defer utils.Close(out.Body)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &objectstore.StorageError{Op: "get", Key: key, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return &objectstore.Object{
		Content:      data,
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		Metadata:     out.Metadata,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &objectstore.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists issues a HEAD request. Not-found, permission and network errors
// all read as false; the cause is only visible in debug logs.
func (s *Store) Exists(ctx context.Context, key string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Debug("s3 head object failed, reporting absent",
			logger.String("key", key),
			logger.Error(err))
		return false
	}
	return true
}

func (s *Store) List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var infos []objectstore.ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &objectstore.StorageError{Op: "list", Key: prefix, Err: err}
		}
		for _, obj := range page.Contents {
			infos = append(infos, objectstore.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return infos, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return &objectstore.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Bucket() string { return s.bucket }
func (s *Store) Region() string { return s.region }

// URL returns the browser-facing address of key.
func (s *Store) URL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
