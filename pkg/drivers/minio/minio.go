// Package minio is the MinIO driver.
package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.MinIO)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.MinIO, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Has("bucket") && cfg.Has("database") {
		cfg["bucket"] = cfg.String("database", "")
	}
	if cfg.String("access_key", "") == "" || cfg.String("secret_key", "") == "" {
		return nil, adapter.NewConfigurationError(Label, "access_key", "access_key and secret_key are required")
	}
	return cfg, nil
}

// Client is the handle returned by Start.
type Client struct {
	*minio.Client
	Bucket string
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	endpoint := dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.String("access_key", ""), cfg.String("secret_key", ""), cfg.String("session_token", "")),
		Secure: cfg.Bool("ssl", false),
		Region: cfg.String("region", ""),
	})
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "host", err.Error())
	}
	return &Client{Client: client, Bucket: cfg.String("bucket", "")}, nil
}

// Ping checks that the bucket exists, or lists buckets when none is configured.
func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	c, ok := h.(*Client)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	if c.Bucket == "" {
		_, err := c.ListBuckets(ctx)
		return err
	}

	exists, err := c.BucketExists(ctx, c.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", c.Bucket)
	}
	return nil
}
