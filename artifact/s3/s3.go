// Package s3 stores run artifacts in an S3 compatible bucket. Objects are
// keyed <prefix>/<runID>/<artifactID>.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/webscout/artifact"
	"github.com/hupe1980/webscout/core"
)

var _ core.ArtifactStore = (*Store)(nil)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Options configures a Store.
type Options struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the service endpoint (MinIO, localstack).
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// UsePathStyle addresses the bucket in the path instead of the host.
	UsePathStyle bool
	// Timeout bounds every request.
	Timeout time.Duration
	// Client replaces the client built from the other options.
	Client API
}

// Store implements core.ArtifactStore on S3.
type Store struct {
	client  API
	bucket  string
	prefix  string
	timeout time.Duration
}

// New creates a store. Static credentials are used when an access key is
// configured; otherwise requests are sent unsigned.
func New(optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		Region:  "us-east-1",
		Timeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bucket == "" {
		return nil, errors.New("s3 artifact store: bucket is required")
	}

	client := opts.Client
	if client == nil {
		s3opts := awss3.Options{
			Region:       opts.Region,
			UsePathStyle: opts.UsePathStyle,
		}

		if opts.Endpoint != "" {
			s3opts.BaseEndpoint = aws.String(opts.Endpoint)
		}

		if opts.AccessKeyID != "" {
			s3opts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
		}

		client = awss3.New(s3opts)
	}

	return &Store{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  strings.Trim(opts.Prefix, "/"),
		timeout: opts.Timeout,
	}, nil
}

func (s *Store) key(runID, artifactID string) string {
	return path.Join(s.prefix, runID, artifactID)
}

func (s *Store) runPrefix(runID string) string {
	return path.Join(s.prefix, runID) + "/"
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Save uploads the artifact.
func (s *Store) Save(runID, artifactID string, data []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runID, artifactID)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.key(runID, artifactID), err)
	}

	return nil
}

// Get downloads the artifact or returns artifact.ErrNotFound.
func (s *Store) Get(runID, artifactID string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runID, artifactID)),
	})
	if err != nil {
		if notFound(err) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", s.key(runID, artifactID), err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// List returns the artifact ids of a run in key order.
func (s *Store) List(runID string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	prefix := s.runPrefix(runID)
	ids := []string{}

	p := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			ids = append(ids, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}
	}

	return ids, nil
}

// Delete removes the artifact or returns artifact.ErrNotFound.
func (s *Store) Delete(runID, artifactID string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	key := s.key(runID, artifactID)

	if _, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if notFound(err) {
			return artifact.ErrNotFound
		}
		return fmt.Errorf("head %s: %w", key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func notFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
