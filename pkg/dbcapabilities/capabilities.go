package dbcapabilities

import (
	"slices"
	"strings"
)

// DatabaseID is the canonical identifier for a backend with a bundled driver.
// It is also the label the driver registers under.
type DatabaseID string

const (
	// Relational SQL
	PostgreSQL DatabaseID = "postgres"
	MySQL      DatabaseID = "mysql"
	SQLite     DatabaseID = "sqlite"
	ClickHouse DatabaseID = "clickhouse"

	// NoSQL / Other paradigms
	Cassandra     DatabaseID = "cassandra"
	MongoDB       DatabaseID = "mongodb"
	Redis         DatabaseID = "redis"
	Neo4j         DatabaseID = "neo4j"
	Elasticsearch DatabaseID = "elasticsearch"
	Pebble        DatabaseID = "pebble"
	InfluxDB      DatabaseID = "influxdb"

	// Object Storage
	S3    DatabaseID = "s3"
	MinIO DatabaseID = "minio"

	// Messaging
	Kafka DatabaseID = "kafka"
	NATS  DatabaseID = "nats"
)

// DataParadigm enumerates the primary data storage paradigms a backend supports.
type DataParadigm string

const (
	ParadigmRelational  DataParadigm = "relational"    // Tables, schemas, SQL
	ParadigmDocument    DataParadigm = "document"      // Collections, documents
	ParadigmKeyValue    DataParadigm = "keyvalue"      // Key/Value
	ParadigmGraph       DataParadigm = "graph"         // Nodes/Edges
	ParadigmColumnar    DataParadigm = "columnar"      // Columnar analytics
	ParadigmWideColumn  DataParadigm = "widecolumn"    // Wide-column (e.g., Cassandra)
	ParadigmSearchIndex DataParadigm = "searchindex"   // Inverted indices (e.g., Elasticsearch)
	ParadigmTimeSeries  DataParadigm = "timeseries"    // Time-series specialized
	ParadigmObjectStore DataParadigm = "objectstorage" // Object/blob storage
	ParadigmStream      DataParadigm = "stream"        // Logs, topics, subjects
)

// Capability describes a backend in a way drivers and tools can consume uniformly.
type Capability struct {
	// Human-friendly product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID, e.g., "postgres".
	ID DatabaseID `json:"id"`

	// Host and port a driver falls back to when the config names none.
	// Embedded backends have no network address.
	DefaultHost string `json:"defaultHost,omitempty"`
	DefaultPort int    `json:"defaultPort,omitempty"`
	Embedded    bool   `json:"embedded,omitempty"`

	// Whether the backend exposes a built-in/system database and its typical names.
	HasSystemDatabase bool     `json:"hasSystemDatabase"`
	SystemDatabases   []string `json:"systemDatabases,omitempty"`

	// Primary data storage paradigms supported.
	Paradigms []DataParadigm `json:"paradigms"`

	// Common aliases (URL schemes, driver names) that map to this backend.
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical ID.
var All = map[DatabaseID]Capability{
	PostgreSQL: {
		Name:              "PostgreSQL",
		ID:                PostgreSQL,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       5432,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"postgres"},
		Paradigms:         []DataParadigm{ParadigmRelational},
		Aliases:           []string{"postgresql", "pgsql", "pg"},
	},
	MySQL: {
		Name:              "MySQL",
		ID:                MySQL,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       3306,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"mysql"},
		Paradigms:         []DataParadigm{ParadigmRelational},
		Aliases:           []string{"mariadb", "aurora-mysql"},
	},
	SQLite: {
		Name:      "SQLite",
		ID:        SQLite,
		Embedded:  true,
		Paradigms: []DataParadigm{ParadigmRelational},
		Aliases:   []string{"sqlite3"},
	},
	ClickHouse: {
		Name:              "ClickHouse",
		ID:                ClickHouse,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       9000,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system", "default"},
		Paradigms:         []DataParadigm{ParadigmColumnar},
		Aliases:           []string{"ch"},
	},
	Cassandra: {
		Name:              "Apache Cassandra",
		ID:                Cassandra,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       9042,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Paradigms:         []DataParadigm{ParadigmWideColumn},
		Aliases:           []string{"scylla", "cql"},
	},
	MongoDB: {
		Name:              "MongoDB",
		ID:                MongoDB,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       27017,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"admin"},
		Paradigms:         []DataParadigm{ParadigmDocument},
		Aliases:           []string{"mongo", "mongodb+srv"},
	},
	Redis: {
		Name:        "Redis",
		ID:          Redis,
		DefaultHost: "127.0.0.1",
		DefaultPort: 6379,
		Paradigms:   []DataParadigm{ParadigmKeyValue},
		Aliases:     []string{"rediss", "valkey"},
	},
	Neo4j: {
		Name:              "Neo4j",
		ID:                Neo4j,
		DefaultHost:       "127.0.0.1",
		DefaultPort:       7687,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Paradigms:         []DataParadigm{ParadigmGraph},
		Aliases:           []string{"bolt", "neo4j+s"},
	},
	Elasticsearch: {
		Name:        "Elasticsearch",
		ID:          Elasticsearch,
		DefaultHost: "localhost",
		DefaultPort: 9200,
		Paradigms:   []DataParadigm{ParadigmSearchIndex, ParadigmDocument},
		Aliases:     []string{"elastic", "es"},
	},
	Pebble: {
		Name:      "Pebble",
		ID:        Pebble,
		Embedded:  true,
		Paradigms: []DataParadigm{ParadigmKeyValue},
	},
	InfluxDB: {
		Name:        "InfluxDB",
		ID:          InfluxDB,
		DefaultHost: "localhost",
		DefaultPort: 8086,
		Paradigms:   []DataParadigm{ParadigmTimeSeries},
		Aliases:     []string{"influx"},
	},
	S3: {
		Name:      "Amazon S3",
		ID:        S3,
		Paradigms: []DataParadigm{ParadigmObjectStore},
		Aliases:   []string{"aws-s3"},
	},
	MinIO: {
		Name:        "MinIO",
		ID:          MinIO,
		DefaultHost: "localhost",
		DefaultPort: 9000,
		Paradigms:   []DataParadigm{ParadigmObjectStore},
	},
	Kafka: {
		Name:        "Apache Kafka",
		ID:          Kafka,
		DefaultHost: "localhost",
		DefaultPort: 9092,
		Paradigms:   []DataParadigm{ParadigmStream},
	},
	NATS: {
		Name:        "NATS",
		ID:          NATS,
		DefaultHost: "127.0.0.1",
		DefaultPort: 4222,
		Paradigms:   []DataParadigm{ParadigmStream},
	},
}

// nameToID is a normalized lookup index from any known name/alias to the canonical DatabaseID.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*3)
	for id, capability := range All {
		nameToID[strings.ToLower(string(id))] = id
		nameToID[strings.ToLower(capability.Name)] = id
		for _, a := range capability.Aliases {
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID resolves a canonical id, alias, URL scheme or product name to a DatabaseID.
func ParseID(name string) (DatabaseID, bool) {
	id, ok := nameToID[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Get returns the capability for id.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// GetByName resolves name with ParseID and returns its capability.
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// IDs returns every known ID, sorted.
func IDs() []DatabaseID {
	ids := make([]DatabaseID, 0, len(All))
	for id := range All {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SupportsParadigm reports whether id lists p among its paradigms.
func SupportsParadigm(id DatabaseID, p DataParadigm) bool {
	c, ok := Get(id)
	return ok && slices.Contains(c.Paradigms, p)
}

// Address returns host:port for the backend, filling the default host and port.
func Address(id DatabaseID, host string, port int) string {
	c, _ := Get(id)
	if host == "" {
		host = c.DefaultHost
	}
	if port == 0 {
		port = c.DefaultPort
	}
	return JoinHostPort(host, port)
}
