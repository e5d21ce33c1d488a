package adapter

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redbco/redb-hopper/pkg/logger"
)

// Well-known config keys. Everything else is driver specific.
const (
	KeyDriver = "driver"
	KeyLogger = "logger"
	KeyURL    = "url"
)

// Config is the connection configuration handed to a driver.
// The core only reads the driver and logger keys.
type Config map[string]any

// Driver returns the registered driver name the connection uses.
func (c Config) Driver() string {
	return c.String(KeyDriver, "")
}

// Logger returns the shared logger stored under the logger key, or nil.
func (c Config) Logger() *logger.Logger {
	if l, ok := c[KeyLogger].(*logger.Logger); ok {
		return l
	}
	return nil
}

// Has reports whether key is present with a non-nil value.
func (c Config) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// String returns the value under key as a string, or def when absent or empty.
func (c Config) String(key, def string) string {
	switch v := c[key].(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
		return v
	case fmt.Stringer:
		return v.String()
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	default:
		return def
	}
}

// Int returns the value under key as an int, or def when absent or not numeric.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint16:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the value under key as a bool, or def when absent or not boolean.
func (c Config) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Duration returns the value under key as a duration. Strings are parsed with
// time.ParseDuration and bare numbers are read as milliseconds.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

// Strings returns a list value. A single comma separated string is split.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// Clone returns a deep copy of nested maps and slices. Other values, the
// logger included, are shared.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Config:
		return val.Clone()
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	case map[string]string:
		return maps.Clone(val)
	default:
		return v
	}
}

// WithDefaults returns a copy of c where every key missing from c is taken from defaults.
func (c Config) WithDefaults(defaults Config) Config {
	out := make(Config, len(c)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range c {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Redacted returns a copy suitable for display: secrets are masked and the logger is dropped.
func (c Config) Redacted() Config {
	out := make(Config, len(c))
	for k, v := range c {
		switch {
		case k == KeyLogger:
			continue
		case isSecretKey(k):
			out[k] = "********"
		case k == KeyURL:
			out[k] = redactURL(v)
		default:
			out[k] = v
		}
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range []string{"password", "secret", "token", "api_key"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func redactURL(v any) any {
	raw, ok := v.(string)
	if !ok {
		return v
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "********"
	}
	return u.Redacted()
}
