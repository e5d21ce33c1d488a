package sqlaudit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/logger"
)

func TestParse(t *testing.T) {
	tests := []struct {
		sql    string
		action string
		table  string
	}{
		{`create table users (id int)`, "create", "users"},
		{`ALTER TABLE "orders" ADD COLUMN total int`, "alter", "orders"},
		{`drop table 'audit_log'`, "drop", "audit_log"},
		{`CREATE TABLE IF NOT EXISTS events_2024 (id int)`, "create", "events_2024"},
		{`drop table if exists tmp`, "drop", "tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			got, ok := Parse(tt.sql)
			require.True(t, ok)
			assert.Equal(t, tt.action, got.Action)
			assert.Equal(t, tt.table, got.Table)
			assert.Equal(t, tt.sql, got.Query)
		})
	}

	for _, sql := range []string{"select * from users", "insert into tables values (1)", "create index idx on users (id)"} {
		_, ok := Parse(sql)
		assert.False(t, ok, sql)
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("hopper", "test", &buf, "info")
	cfg := adapter.Config{"driver": "postgres", "host": "db", "database": "app", "logger": log}

	assert.True(t, Log(cfg, "create table users (id int)"))
	assert.False(t, Log(cfg, "select 1"))
	assert.False(t, Log(adapter.Config{}, "create table users (id int)"), "no logger")

	out := buf.String()
	assert.Contains(t, out, `"scope":"table-action"`)
	assert.Contains(t, out, `"table":"users"`)
	assert.Contains(t, out, `"database":"app"`)
}
