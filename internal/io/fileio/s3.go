package fileio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/pkg/config"
)

type s3store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 returns a store of objects in the configured bucket under prefix.
// Credentials come from the default AWS chain.
func NewS3(ctx context.Context, cfg config.Config, prefix string) (files.Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		slog.Error("Cannot load AWS configuration", "error", err)
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	res := s3store{
		client: client,
		bucket: cfg.S3Bucket,
		prefix: strings.Trim(prefix, "/"),
	}
	return &res, nil
}

// Open returns the body of an object.
func (s *s3store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	if s.prefix != "" {
		k = path.Join(s.prefix, k)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, notFound(key)
		}
		slog.Error("Cannot get object", "bucket", s.bucket, "key", k,
			"error", err)
		return nil, err
	}
	return out.Body, nil
}
