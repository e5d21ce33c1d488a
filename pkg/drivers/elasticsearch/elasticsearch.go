// Package elasticsearch is the Elasticsearch driver. The client has no
// connection to release and no hooks to integrate.
package elasticsearch

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Elasticsearch)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

// Configure defaults the host to localhost:9200.
func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Elasticsearch, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Has("api_key") && cfg.Has("user") {
		return nil, adapter.NewConfigurationError(Label, "api_key", "cannot be combined with user")
	}
	return cfg, nil
}

// ClientConfig builds the client config. "hosts" lists full addresses and
// takes precedence over host and port.
func ClientConfig(cfg adapter.Config) elasticsearch.Config {
	addrs := cfg.Strings("hosts")
	if len(addrs) == 0 {
		scheme := "http"
		if cfg.Bool("ssl", false) {
			scheme = "https"
		}
		addrs = []string{scheme + "://" + dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))}
	}
	return elasticsearch.Config{
		Addresses: addrs,
		Username:  cfg.String("user", ""),
		Password:  cfg.String("password", ""),
		APIKey:    cfg.String("api_key", ""),
		CloudID:   cfg.String("cloud_id", ""),
	}
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	client, err := elasticsearch.NewClient(ClientConfig(cfg))
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "hosts", err.Error())
	}
	return client, nil
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	client, ok := h.(*elasticsearch.Client)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return adapter.NewConnectionError(Label, "", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return adapter.NewConnectionError(Label, "", fmt.Errorf("ping returned %s", res.Status()))
	}
	return nil
}
