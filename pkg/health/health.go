package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redbco/redb-hopper/pkg/datastore"
	"github.com/redbco/redb-hopper/pkg/hopper"
	"github.com/redbco/redb-hopper/pkg/logger"
)

// Status is the outcome of a health check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown marks a connection that could not be checked (not open, no ping support)
	StatusUnknown Status = "unknown"
)

// CheckFunc is a function that performs a health check
type CheckFunc func(ctx context.Context) error

// Check represents a single health check result
type Check struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// Checker manages health checks for the connections of a registry
type Checker struct {
	mu          sync.RWMutex
	checks      map[string]*Check
	lastHealthy time.Time
	timeout     time.Duration
	logger      *logger.Logger
	onResult    []func(name string, status Status)
}

// NewChecker creates a new health checker. Each check is bounded by timeout
// when it is positive.
func NewChecker(timeout time.Duration, log *logger.Logger) *Checker {
	return &Checker{
		checks:      make(map[string]*Check),
		lastHealthy: time.Now(),
		timeout:     timeout,
		logger:      log,
	}
}

// RunCheck executes a health check and updates the status
func (c *Checker) RunCheck(ctx context.Context, name string, checkFunc CheckFunc) Status {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	status := StatusHealthy
	message := "OK"

	if err := checkFunc(ctx); err != nil {
		status = StatusUnhealthy
		message = err.Error()

		switch {
		case errors.Is(err, datastore.ErrNotOpen):
			status = StatusUnknown
		case errors.Is(err, datastore.ErrPingUnsupported):
			status = StatusUnknown
		default:
			c.logger.Warnf("health check %s failed: %v", name, err)
		}
	}

	c.record(name, status, message)

	c.mu.RLock()
	callbacks := c.onResult
	c.mu.RUnlock()
	for _, fn := range callbacks {
		fn(name, status)
	}
	return status
}

// OnResult registers fn to be called after every check.
func (c *Checker) OnResult(fn func(name string, status Status)) {
	c.mu.Lock()
	c.onResult = append(c.onResult, fn)
	c.mu.Unlock()
}

func (c *Checker) record(name string, status Status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = &Check{
		Name:        name,
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}

	// Update last healthy time if all checks pass
	if c.isHealthy() {
		c.lastHealthy = time.Now()
	}
}

// CheckRegistry pings every datastore of reg. Datastores that are not open
// are reported as unknown without calling the driver.
func (c *Checker) CheckRegistry(ctx context.Context, reg *hopper.Registry) {
	reg.Each(func(name string, store *datastore.Datastore) {
		c.RunCheck(ctx, name, store.Ping)
	})
}

// Monitor runs CheckRegistry every interval until ctx is done.
func (c *Checker) Monitor(ctx context.Context, reg *hopper.Registry, interval time.Duration) {
	c.CheckRegistry(ctx, reg)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckRegistry(ctx, reg)
		}
	}
}

// GetOverallStatus returns the overall health status. Unknown checks are ignored.
func (c *Checker) GetOverallStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	known, unhealthyCount := 0, 0
	for _, check := range c.checks {
		switch check.Status {
		case StatusUnknown:
			continue
		case StatusUnhealthy:
			unhealthyCount++
		}
		known++
	}

	if unhealthyCount == 0 {
		return StatusHealthy
	} else if unhealthyCount < known {
		return StatusDegraded
	}

	return StatusUnhealthy
}

// GetAllChecks returns all health check results sorted by name
func (c *Checker) GetAllChecks() []*Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	checks := make([]*Check, 0, len(c.checks))
	for _, check := range c.checks {
		checkCopy := *check
		checks = append(checks, &checkCopy)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return checks
}

// GetLastHealthyTime returns the last time all checks were healthy
func (c *Checker) GetLastHealthyTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHealthy
}

func (c *Checker) isHealthy() bool {
	for _, check := range c.checks {
		if check.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}

// Handler serves the current results as JSON. Unhealthy overall status answers 503.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := c.GetOverallStatus()

		w.Header().Set("Content-Type", "application/json")
		if status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(struct {
			Status      Status    `json:"status"`
			LastHealthy time.Time `json:"last_healthy"`
			Checks      []*Check  `json:"checks"`
		}{status, c.GetLastHealthyTime(), c.GetAllChecks()})
	})
}
