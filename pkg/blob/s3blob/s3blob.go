// Package s3blob uploads export blobs to S3 or an S3-compatible store
// (MinIO, R2) through the AWS SDK v2.
package s3blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "s3blob")

var (
	ErrBucketRequired = errors.New("s3 bucket name is required")
	ErrRegionRequired = errors.New("s3 region is required")
)

type Config struct {
	// Endpoint is the S3-compatible endpoint URL; leave empty for AWS S3.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" env:"S3_ENDPOINT"`
	Region   string `yaml:"region" json:"region" env:"S3_REGION"`
	Bucket   string `yaml:"bucket" json:"bucket" env:"S3_BUCKET"`

	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty" env:"S3_PREFIX"`

	AccessKey string `yaml:"accessKey,omitempty" json:"-" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey,omitempty" json:"-" env:"S3_SECRET_KEY"`

	UseSSL         bool `yaml:"useSSL" json:"useSSL"`
	ForcePathStyle bool `yaml:"forcePathStyle" json:"forcePathStyle"`
}

func (c Config) Validate() error {
	if c.Bucket == "" {
		return ErrBucketRequired
	}

	if c.Region == "" {
		return ErrRegionRequired
	}

	return nil
}

// Writer stores one object.
type Writer interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}

// Client uploads objects into the configured bucket.
type Client struct {
	s3     *s3.Client
	bucket string
	prefix string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	// without static keys the default credential chain is used
	if cfg.AccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, errors.Wrap(err, "can not load aws config")
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Client{
		s3:     s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// Put uploads data with a single PutObject request under the client prefix.
func (c *Client) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	key = path.Join(c.prefix, key)
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "can not put s3://%s/%s", c.bucket, key)
	}

	log.Infof("uploaded s3://%s/%s", c.bucket, key)
	return nil
}

// ObjectKey names an export blob: <symbol>/<symbol>-<yyyymmdd-hhmmss><ext>.
func ObjectKey(symbol string, t time.Time, ext string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = "chart"
	}
	return path.Join(symbol, symbol+"-"+t.UTC().Format("20060102-150405")+ext)
}

// normaliseEndpoint prepends a scheme to an endpoint given without one.
func normaliseEndpoint(endpoint string, useSSL bool) string {
	if parsed, err := url.Parse(endpoint); err == nil && strings.Contains(endpoint, "://") && parsed.Host != "" {
		return endpoint
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint
}
