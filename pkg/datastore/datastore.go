package datastore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/history"
	"github.com/redbco/redb-hopper/pkg/logger"
)

// HistoryCapacity is how many errors and events a datastore retains.
const HistoryCapacity = 40

// Info is a detached snapshot of a datastore's state.
type Info struct {
	Status     Status
	ErrorCount int
	Config     adapter.Config
}

// Option configures a Datastore.
type Option func(*Datastore)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *logger.Logger) Option {
	return func(d *Datastore) {
		d.logger = l
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(d *Datastore) {
		if o != nil {
			d.addObserver(o)
		}
	}
}

// Datastore wraps one named connection and the driver that creates it.
type Datastore struct {
	driver *adapter.Binding
	logger *logger.Logger

	// lifecycle serialises Setup, Open, End and Reopen
	lifecycle sync.Mutex

	mu         sync.Mutex
	name       string
	config     adapter.Config
	handle     adapter.Handle
	status     Status
	errorCount int
	errors     *history.History[error]
	events     *history.History[any]
	observers  []observerEntry
	nextID     uint64
}

// New creates a cold datastore for driver.
func New(driver *adapter.Binding, opts ...Option) *Datastore {
	d := &Datastore{
		driver: driver,
		status: StatusCold,
		errors: history.New[error](HistoryCapacity),
		events: history.New[any](HistoryCapacity),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Setup validates cfg through the driver and stores the canonical config.
// It may be called from any state. Driver errors are returned unchanged and
// leave the datastore as it was.
func (d *Datastore) Setup(name string, cfg adapter.Config) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidArgument)
	}
	if cfg == nil {
		return fmt.Errorf("%w: config must not be nil", ErrInvalidArgument)
	}

	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	configured, err := d.driver.Configure(cfg)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.name = name
	d.config = configured
	d.mu.Unlock()

	d.SetStatus(StatusConfigured)
	return nil
}

// Open starts the connection, or returns the existing handle when one is live.
// A Future handle is stored as is and never awaited.
func (d *Datastore) Open(ctx context.Context) (adapter.Handle, error) {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	return d.open(ctx)
}

func (d *Datastore) open(ctx context.Context) (adapter.Handle, error) {
	d.mu.Lock()
	if d.handle != nil {
		h := d.handle
		d.mu.Unlock()
		return h, nil
	}
	cfg := d.config
	d.mu.Unlock()

	h, err := d.driver.Start(ctx, cfg)
	if err != nil {
		d.logger.Warnf("failed to start %s connection %s: %v", d.driver.Label(), d.Name(), err)
		return nil, err
	}

	d.mu.Lock()
	d.handle = h
	d.mu.Unlock()

	d.driver.Integrate(h, d)
	d.SetStatus(StatusOpened)
	return h, nil
}

// End closes the connection. The status becomes closed before the driver is
// asked to release the handle. When the driver fails to end the handle, the
// error is returned unchanged and the handle is kept.
func (d *Datastore) End(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	return d.end(ctx)
}

func (d *Datastore) end(ctx context.Context) error {
	d.SetStatus(StatusClosed)

	d.mu.Lock()
	h := d.handle
	d.mu.Unlock()

	if h != nil && d.driver.CanEnd() {
		if err := d.driver.End(ctx, h); err != nil {
			d.logger.Warnf("failed to end %s connection %s: %v", d.driver.Label(), d.Name(), err)
			return err
		}
	}

	d.mu.Lock()
	d.handle = nil
	d.mu.Unlock()
	return nil
}

// Reopen ends the connection and opens it again. If ending fails the error is
// returned and Open is not attempted.
func (d *Datastore) Reopen(ctx context.Context) (adapter.Handle, error) {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.SetStatus(StatusReopening)
	if err := d.end(ctx); err != nil {
		return nil, err
	}
	return d.open(ctx)
}

// Ping asks the driver to verify the live handle. Failures are also recorded
// with AddError.
func (d *Datastore) Ping(ctx context.Context) error {
	h := d.Handle()
	if h == nil {
		return ErrNotOpen
	}
	if !d.driver.CanPing() {
		return ErrPingUnsupported
	}

	if err := d.driver.Ping(ctx, h); err != nil {
		d.AddError(err)
		return err
	}
	return nil
}

// SetStatus sets the status and notifies every observer, even when the status
// did not change. An unknown status is ignored and reported as false.
func (d *Datastore) SetStatus(s Status) bool {
	if !s.Valid() {
		return false
	}

	d.mu.Lock()
	d.status = s
	change := StateChange{
		Event:      EventChangedState,
		Name:       d.name,
		Driver:     d.driver.Label(),
		Status:     s,
		ErrorCount: d.errorCount,
		At:         time.Now(),
	}
	observers := make([]Observer, len(d.observers))
	for i, entry := range d.observers {
		observers[i] = entry.observer
	}
	d.mu.Unlock()

	d.logger.Debugf("datastore %s changed state to %s", change.Name, s)
	for _, o := range observers {
		o.Observe(change)
	}
	return true
}

// AddError records an error reported by the driver. Nil is ignored.
// The status is never changed.
func (d *Datastore) AddError(err error) {
	if err == nil {
		return
	}

	d.mu.Lock()
	d.errorCount++
	d.errors.Push(err)
	d.mu.Unlock()
}

// AddEvent records a driver event. Nil is ignored.
func (d *Datastore) AddEvent(event any) {
	if event == nil {
		return
	}

	d.mu.Lock()
	d.events.Push(event)
	d.mu.Unlock()
}

// Observe registers o and returns a function that removes it.
func (d *Datastore) Observe(o Observer) (cancel func()) {
	if o == nil {
		return func() {}
	}

	d.mu.Lock()
	id := d.addObserver(o)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, entry := range d.observers {
				if entry.id == id {
					d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (d *Datastore) addObserver(o Observer) uint64 {
	d.nextID++
	d.observers = append(d.observers, observerEntry{id: d.nextID, observer: o})
	return d.nextID
}

func (d *Datastore) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Config returns a copy of the configured config, nil before Setup.
func (d *Datastore) Config() adapter.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config.Clone()
}

func (d *Datastore) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// ErrorCount is the total number of errors ever recorded, including evicted ones.
func (d *Datastore) ErrorCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errorCount
}

// Errors returns the retained errors, oldest first.
func (d *Datastore) Errors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors.Items()
}

// Events returns the retained events, oldest first.
func (d *Datastore) Events() []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.Items()
}

// LastError returns the most recent retained error.
func (d *Datastore) LastError() error {
	errs := d.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs[len(errs)-1]
}

// Handle returns the live handle, nil when not open.
func (d *Datastore) Handle() adapter.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle
}

func (d *Datastore) DriverLabel() string {
	return d.driver.Label()
}

// Driver returns the bound driver.
func (d *Datastore) Driver() *adapter.Binding {
	return d.driver
}

// Info returns a snapshot detached from the datastore.
func (d *Datastore) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Info{
		Status:     d.status,
		ErrorCount: d.errorCount,
		Config:     d.config.Clone(),
	}
}
