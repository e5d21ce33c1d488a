// Package sqlaudit detects schema changing statements in SQL text so drivers
// can log them.
package sqlaudit

import (
	"regexp"
	"strings"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

var tableAction = regexp.MustCompile(`(?i)\b(create|alter|drop)\s+table\s+(?:if\s+(?:not\s+)?exists\s+)?['"]?([a-z_0-9]+)['"]?`)

// TableAction is a create, alter or drop of a table.
type TableAction struct {
	Action string
	Table  string
	Query  string
}

// Parse returns the first table action in sql.
func Parse(sql string) (TableAction, bool) {
	m := tableAction.FindStringSubmatch(sql)
	if m == nil {
		return TableAction{}, false
	}
	return TableAction{
		Action: strings.ToLower(m[1]),
		Table:  strings.ToLower(m[2]),
		Query:  sql,
	}, true
}

// Log writes a table-action entry for sql to the logger of cfg.
// Nothing is logged without a logger or without a table action.
func Log(cfg adapter.Config, sql string) bool {
	log := cfg.Logger()
	if log == nil {
		return false
	}

	action, ok := Parse(sql)
	if !ok {
		return false
	}

	log.WithFields(map[string]string{
		"scope":    "table-action",
		"action":   action.Action,
		"table":    action.Table,
		"query":    action.Query,
		"host":     cfg.String("host", ""),
		"database": cfg.String("database", ""),
		"driver":   cfg.Driver(),
	}).Info("table " + action.Action)
	return true
}

