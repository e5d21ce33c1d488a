// Package s3 is the Amazon S3 driver. A custom endpoint makes it usable with
// S3 compatible stores such as LocalStack.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.S3)

const DefaultRegion = "us-east-1"

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.S3, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Has("bucket") && cfg.Has("database") {
		cfg["bucket"] = cfg.String("database", "")
	}
	cfg = cfg.WithDefaults(adapter.Config{"region": DefaultRegion, "path_style": false})

	if cfg.Has("access_key") != cfg.Has("secret_key") {
		return nil, adapter.NewConfigurationError(Label, "secret_key", "access_key and secret_key must be set together")
	}
	return cfg, nil
}

// Endpoint returns the custom endpoint of cfg, empty for AWS itself.
func Endpoint(cfg adapter.Config) string {
	if e := cfg.String("endpoint", ""); e != "" {
		return e
	}
	host := cfg.String("host", "")
	if host == "" || strings.HasSuffix(host, "amazonaws.com") {
		return ""
	}
	scheme := "http://"
	if cfg.Bool("ssl", false) {
		scheme = "https://"
	}
	return scheme + dbcapabilities.JoinHostPort(host, cfg.Int("port", 0))
}

// Client is the handle returned by Start.
type Client struct {
	*s3.Client
	// Bucket is the configured bucket, empty when none is set
	Bucket string
}

// Start builds the client. Loading the AWS config reads the environment and
// shared files but does not call AWS.
func (d *Driver) Start(ctx context.Context, cfg adapter.Config) (adapter.Handle, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.String("region", DefaultRegion))}
	if key := cfg.String("access_key", ""); key != "" {
		loaders = append(loaders, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			cfg.String("secret_key", ""),
			cfg.String("session_token", ""),
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "", fmt.Sprintf("failed to load AWS config: %v", err))
	}

	endpoint := Endpoint(cfg)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.Bool("path_style", false)
	})
	return &Client{Client: client, Bucket: cfg.String("bucket", "")}, nil
}

// Ping checks the bucket when one is configured and lists buckets otherwise.
func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	c, ok := h.(*Client)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	if c.Bucket != "" {
		_, err := c.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.Bucket)})
		return err
	}
	_, err := c.ListBuckets(ctx, &s3.ListBucketsInput{})
	return err
}
