package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicBaseURL  string
	ForcePathStyle bool
	MaxRetries     int
}

// S3Store implements Store on an S3 (or S3-compatible) bucket with
// public-read objects.
type S3Store struct {
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
	baseURL  string
}

// NewS3Store creates a store for cfg. Credentials come from the usual AWS
// environment (env vars, shared config, instance role).
func NewS3Store(cfg *S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
		MaxRetries:       aws.Int(cfg.MaxRetries),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Store(s3.New(sess), s3manager.NewUploader(sess), cfg.Bucket, baseURL), nil
}

func newS3Store(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket, baseURL string) *S3Store {
	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (s *S3Store) Put(ctx context.Context, pathname string, r io.Reader, opts PutOptions) (*Blob, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	key := newKey(pathname)
	contentType := contentTypeOrDefault(opts.ContentType)
	disposition := contentDisposition(pathname)
	body := &countingReader{r: r}

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               body,
		ACL:                aws.String(s3.ObjectCannedACLPublicRead),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(disposition),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	return &Blob{
		URL:                keyURL(s.baseURL, key),
		Pathname:           pathnameFromKey(key),
		ContentType:        contentType,
		ContentDisposition: disposition,
		Size:               body.n.Load(),
		UploadedAt:         time.Now().UTC(),
	}, nil
}

// List pages through the whole bucket. Listings carry no content headers, so
// each object's stored content type and disposition are read with HeadObject;
// objects deleted between the two calls are skipped.
func (s *S3Store) List(ctx context.Context) ([]Blob, error) {
	var listed []*s3.Object
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		listed = append(listed, page.Contents...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	blobs := make([]Blob, 0, len(listed))
	for _, obj := range listed {
		key := aws.StringValue(obj.Key)
		head, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isS3NotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read blob metadata: %w", err)
		}
		pathname := pathnameFromKey(key)
		disposition := aws.StringValue(head.ContentDisposition)
		if disposition == "" {
			disposition = contentDisposition(pathname)
		}
		blobs = append(blobs, Blob{
			URL:                keyURL(s.baseURL, key),
			Pathname:           pathname,
			ContentType:        contentTypeOrDefault(aws.StringValue(head.ContentType)),
			ContentDisposition: disposition,
			Size:               aws.Int64Value(obj.Size),
			UploadedAt:         aws.TimeValue(obj.LastModified).UTC(),
		})
	}
	return blobs, nil
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.baseURL, url)
	if !ok {
		slog.Debug("Ignoring delete of foreign URL", "url", url)
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// countingReader counts bytes as the uploader consumes them.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
