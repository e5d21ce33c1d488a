package hopper

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/datastore"
	"github.com/redbco/redb-hopper/pkg/logger"
)

// GlobalConfig describes a whole set of connections.
type GlobalConfig struct {
	// Default is the connection name Get resolves an empty name to
	Default string
	// Logger is shared with every connection that does not set its own
	Logger *logger.Logger
	// Connections maps connection names to their configs
	Connections map[string]adapter.Config
}

type options struct {
	logger    *logger.Logger
	drivers   map[string]adapter.Driver
	observers []datastore.Observer
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the registry logger. It is also handed to connections whose
// config has no logger of its own.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDrivers registers drivers at construction time. Invalid drivers are
// logged and skipped.
func WithDrivers(drivers map[string]adapter.Driver) Option {
	return func(o *options) {
		if o.drivers == nil {
			o.drivers = make(map[string]adapter.Driver, len(drivers))
		}
		for name, d := range drivers {
			o.drivers[name] = d
		}
	}
}

// WithObserver attaches o to every datastore the registry creates.
func WithObserver(obs datastore.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Registry keeps named drivers and the named datastores built from them.
// Names are unique in both maps and datastores are never replaced.
type Registry struct {
	id        string
	logger    *logger.Logger
	observers []datastore.Observer

	mu          sync.RWMutex
	drivers     map[string]*adapter.Binding
	stores      map[string]*datastore.Datastore
	defaultName string
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		id:        uuid.New().String(),
		logger:    o.logger,
		observers: o.observers,
		drivers:   make(map[string]*adapter.Binding),
		stores:    make(map[string]*datastore.Datastore),
	}

	for _, name := range sortedKeys(o.drivers) {
		if err := r.UseDriver(name, o.drivers[name], false); err != nil {
			r.logger.Warnf("skipping driver %s: %v", name, err)
		}
	}

	r.logger.Debugf("registry %s created with %d drivers", r.id, len(r.drivers))
	return r
}

// ID identifies this registry instance in logs.
func (r *Registry) ID() string {
	return r.id
}

// Logger returns the registry logger, which may be nil.
func (r *Registry) Logger() *logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// UseDriver registers d under name. An existing driver is only replaced when
// overwrite is set; otherwise the call is a no-op and d is not inspected.
func (r *Registry) UseDriver(name string, d adapter.Driver, overwrite bool) error {
	if name == "" {
		return newError("use driver", name, fmt.Errorf("%w: driver name", ErrMissingArgument))
	}
	if d == nil {
		return newError("use driver", name, fmt.Errorf("%w: driver", ErrMissingArgument))
	}
	if _, exists := r.Driver(name); exists && !overwrite {
		return nil
	}

	binding, err := adapter.Bind(d)
	if err != nil {
		if errors.Is(err, adapter.ErrMissingDriver) {
			return newError("use driver", name, fmt.Errorf("%w: driver", ErrMissingArgument))
		}
		return newError("use driver", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists && !overwrite {
		return nil
	}

	r.drivers[name] = binding
	r.logger.Debugf("registered driver %s (%s)", name, binding.Label())
	return nil
}

// Register registers d under its own label.
func (r *Registry) Register(d adapter.Driver, overwrite bool) error {
	if d == nil {
		return newError("use driver", "", fmt.Errorf("%w: driver", ErrMissingArgument))
	}
	return r.UseDriver(d.Label(), d, overwrite)
}

// UseDrivers registers every driver in drivers, stopping at the first failure.
func (r *Registry) UseDrivers(drivers map[string]adapter.Driver, overwrite bool) error {
	for _, name := range sortedKeys(drivers) {
		if err := r.UseDriver(name, drivers[name], overwrite); err != nil {
			return err
		}
	}
	return nil
}

// Load creates the datastore name from cfg and sets it up. When name already
// exists the existing datastore is returned and cfg is ignored.
// Errors from the driver's Configure are returned unchanged.
func (r *Registry) Load(name string, cfg adapter.Config) (*datastore.Datastore, error) {
	if name == "" {
		return nil, newError("load", name, ErrMissingName)
	}

	if store, ok := r.lookup(name); ok {
		return store, nil
	}

	if cfg == nil {
		return nil, newError("load", name, ErrMissingConfig)
	}

	driverName := cfg.Driver()
	if driverName == "" {
		return nil, newError("load", name, ErrMissingDriver)
	}

	r.mu.RLock()
	binding, ok := r.drivers[driverName]
	log := r.logger
	r.mu.RUnlock()
	if !ok {
		return nil, newError("load", name, fmt.Errorf("%w: %s", ErrUnknownDriver, driverName))
	}

	cfg = cfg.Clone()
	if _, set := cfg[adapter.KeyLogger]; !set && log != nil {
		cfg[adapter.KeyLogger] = log
	}

	opts := []datastore.Option{datastore.WithLogger(log.Named("datastore"))}
	for _, o := range r.observers {
		opts = append(opts, datastore.WithObserver(o))
	}

	store := datastore.New(binding, opts...)
	if err := store.Setup(name, cfg); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another caller may have loaded the same name meanwhile
	if existing, ok := r.stores[name]; ok {
		return existing, nil
	}
	r.stores[name] = store

	log.Infof("loaded connection %s using driver %s", name, driverName)
	return store, nil
}

// LoadNamed loads a connection whose name is carried in cfg under "name".
func (r *Registry) LoadNamed(cfg adapter.Config) (*datastore.Datastore, error) {
	if cfg == nil {
		return nil, newError("load", "", ErrMissingName)
	}
	return r.Load(cfg.String("name", ""), cfg)
}

// Get returns the datastore name, or the default datastore for an empty name.
// It never creates one.
func (r *Registry) Get(name string) (*datastore.Datastore, bool) {
	if name == "" {
		r.mu.RLock()
		name = r.defaultName
		r.mu.RUnlock()
	}
	return r.lookup(name)
}

func (r *Registry) lookup(name string) (*datastore.Datastore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[name]
	return store, ok
}

// Has reports whether a datastore named name exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Info returns a detached snapshot of the datastore name.
func (r *Registry) Info(name string) (datastore.Info, bool) {
	store, ok := r.lookup(name)
	if !ok {
		return datastore.Info{}, false
	}
	return store.Info(), true
}

// Names returns the loaded connection names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.stores)
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.drivers)
}

// HasDriver reports whether a driver is registered under name.
func (r *Registry) HasDriver(name string) bool {
	_, ok := r.Driver(name)
	return ok
}

// Driver returns the binding registered under name.
func (r *Registry) Driver(name string) (*adapter.Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.drivers[name]
	return b, ok
}

// DefaultName returns the name Get uses for an empty name.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// SetDefault changes the default connection name.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	r.defaultName = name
	r.mu.Unlock()
}

// Configure applies a global configuration. A nil config does nothing.
// The registry logger and g.Logger fill each other when only one is set.
// Connections are loaded in name order and the first failure stops the
// remaining ones; datastores loaded before the failure are kept.
func (r *Registry) Configure(g *GlobalConfig) error {
	if g == nil {
		return nil
	}

	r.mu.Lock()
	if g.Default != "" {
		r.defaultName = g.Default
	}
	if r.logger == nil && g.Logger != nil {
		r.logger = g.Logger
	}
	if g.Logger == nil && r.logger != nil {
		g.Logger = r.logger
	}
	r.mu.Unlock()

	for _, name := range sortedKeys(g.Connections) {
		conf := g.Connections[name].Clone()
		if conf != nil && g.Logger != nil {
			if _, set := conf[adapter.KeyLogger]; !set {
				conf[adapter.KeyLogger] = g.Logger
			}
		}

		if _, err := r.Load(name, conf); err != nil {
			var regErr *RegistryError
			if errors.As(err, &regErr) {
				return err
			}
			return newError("configure", name, err)
		}
	}
	return nil
}

// OpenAll opens every loaded datastore and joins the failures.
func (r *Registry) OpenAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		store, _ := r.lookup(name)
		if _, err := store.Open(ctx); err != nil {
			errs = append(errs, newError("open", name, err))
		}
	}
	return errors.Join(errs...)
}

// EndAll ends every datastore that holds a handle and joins the failures.
// Datastores stay registered.
func (r *Registry) EndAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		store, _ := r.lookup(name)
		if store.Handle() == nil {
			continue
		}
		if err := store.End(ctx); err != nil {
			errs = append(errs, newError("end", name, err))
		}
	}
	return errors.Join(errs...)
}

// Each calls fn for every datastore in name order.
func (r *Registry) Each(fn func(name string, store *datastore.Datastore)) {
	for _, name := range r.Names() {
		if store, ok := r.lookup(name); ok {
			fn(name, store)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
