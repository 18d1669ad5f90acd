// Copyright © 2026 Fogtools

package artifact

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Option for the S3 sink
type S3Option func(*s3Sink)

// Bucket sets the bucket receiving artifacts
func Bucket(bucket string) S3Option {
	return func(s *s3Sink) {
		s.bucket = bucket
	}
}

// Prefix roots all artifact keys under a key prefix in the bucket
func Prefix(prefix string) S3Option {
	return func(s *s3Sink) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// S3AWSConfig sets a custom AWS client configuration
func S3AWSConfig(cfg *aws.Config) S3Option {
	return func(s *s3Sink) {
		s.awsConfig = cfg
	}
}

// NewS3 creates a sink backed by an S3 bucket
func NewS3(option S3Option, options ...S3Option) Sink {
	s := new(s3Sink)
	option(s)
	for _, apply := range options {
		apply(s)
	}

	s.s3 = s3.New(session.Must(session.NewSession(s.awsConfig)))
	s.uploader = s3manager.NewUploaderWithClient(s.s3)
	return s
}

type s3Sink struct {
	bucket    string
	prefix    string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
}

func (s *s3Sink) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *s3Sink) Put(ctx context.Context, key string, rdr io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   rdr,
	})
	return err
}

func (s *s3Sink) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

func (s *s3Sink) String() string {
	if s.prefix == "" {
		return "s3@" + s.bucket
	}
	return "s3@" + s.bucket + "/" + s.prefix
}
