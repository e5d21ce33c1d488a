// Package drivers bundles the drivers shipped with hopper.
package drivers

import (
	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/drivers/cassandra"
	"github.com/redbco/redb-hopper/pkg/drivers/clickhouse"
	"github.com/redbco/redb-hopper/pkg/drivers/elasticsearch"
	"github.com/redbco/redb-hopper/pkg/drivers/influxdb"
	"github.com/redbco/redb-hopper/pkg/drivers/kafka"
	"github.com/redbco/redb-hopper/pkg/drivers/minio"
	"github.com/redbco/redb-hopper/pkg/drivers/mongodb"
	"github.com/redbco/redb-hopper/pkg/drivers/mysql"
	"github.com/redbco/redb-hopper/pkg/drivers/nats"
	"github.com/redbco/redb-hopper/pkg/drivers/neo4j"
	"github.com/redbco/redb-hopper/pkg/drivers/pebble"
	"github.com/redbco/redb-hopper/pkg/drivers/postgres"
	"github.com/redbco/redb-hopper/pkg/drivers/redis"
	"github.com/redbco/redb-hopper/pkg/drivers/s3"
	"github.com/redbco/redb-hopper/pkg/drivers/sqlite"
)

// Defaults returns a fresh instance of every bundled driver keyed by label.
func Defaults() map[string]adapter.Driver {
	all := []adapter.Driver{
		cassandra.New(),
		clickhouse.New(),
		elasticsearch.New(),
		influxdb.New(),
		kafka.New(),
		minio.New(),
		mongodb.New(),
		mysql.New(),
		nats.New(),
		neo4j.New(),
		pebble.New(),
		postgres.New(),
		redis.New(),
		s3.New(),
		sqlite.New(),
	}

	m := make(map[string]adapter.Driver, len(all))
	for _, d := range all {
		m[d.Label()] = d
	}
	return m
}
