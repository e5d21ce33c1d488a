// Package dbcapabilities describes the backends the bundled drivers connect to.
// Drivers use it for default hosts and ports and for connection URL parsing;
// tools use it to present uniform metadata.
//
// Minimal usage example:
//
//	if c, ok := dbcapabilities.GetByName("postgresql"); ok {
//	    fmt.Println(c.Name, c.DefaultPort) // PostgreSQL 5432
//	}
//
// Expanding a url entry of a connection config:
//
//	cfg, err := dbcapabilities.ExpandURL(adapter.Config{
//	    "driver": "postgres",
//	    "url":    "postgresql://app:secret@db:5432/orders?sslmode=require",
//	})
//	// cfg["host"] == "db", cfg["database"] == "orders", cfg["sslmode"] == "require"
package dbcapabilities
