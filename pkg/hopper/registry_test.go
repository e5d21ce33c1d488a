package hopper

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/datastore"
	"github.com/redbco/redb-hopper/pkg/logger"
)

func identity(cfg adapter.Config) (adapter.Config, error) { return cfg, nil }

func mockDriver() *adapter.Funcs {
	return &adapter.Funcs{
		Name:          "mock",
		ConfigureFunc: identity,
		StartFunc: func(context.Context, adapter.Config) (adapter.Handle, error) {
			return "H", nil
		},
	}
}

type RegistrySuite struct {
	suite.Suite
	reg *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.reg = NewRegistry()
	s.Require().NoError(s.reg.UseDriver("mock", mockDriver(), false))
}

func (s *RegistrySuite) TestMockLifecycle() {
	store, err := s.reg.Load("a", adapter.Config{"driver": "mock"})
	s.Require().NoError(err)
	s.Equal(datastore.StatusConfigured, store.Status())

	got, ok := s.reg.Get("a")
	s.Require().True(ok)
	s.Same(store, got)

	h, err := got.Open(context.Background())
	s.Require().NoError(err)
	s.Equal("H", h)
	s.Equal(datastore.StatusOpened, got.Status())

	s.Require().NoError(got.End(context.Background()))
	s.Nil(got.Handle())
	s.Equal(datastore.StatusClosed, got.Status())
}

func (s *RegistrySuite) TestLoadIsIdempotent() {
	first, err := s.reg.Load("a", adapter.Config{"driver": "mock", "v": 1})
	s.Require().NoError(err)

	second, err := s.reg.Load("a", adapter.Config{"driver": "mock", "v": 2})
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, second.Config()["v"])

	// config is ignored entirely for an existing name
	third, err := s.reg.Load("a", nil)
	s.Require().NoError(err)
	s.Same(first, third)
}

func (s *RegistrySuite) TestLoadErrors() {
	_, err := s.reg.Load("", adapter.Config{"driver": "mock"})
	s.ErrorIs(err, ErrMissingName)

	_, err = s.reg.Load("a", nil)
	s.ErrorIs(err, ErrMissingConfig)

	_, err = s.reg.Load("a", adapter.Config{})
	s.ErrorIs(err, ErrMissingDriver)

	_, err = s.reg.Load("a", adapter.Config{"driver": "nope"})
	s.ErrorIs(err, ErrUnknownDriver)

	var regErr *RegistryError
	s.Require().ErrorAs(err, &regErr)
	s.Equal("load", regErr.Op)
	s.Equal("a", regErr.Name)

	s.False(s.reg.Has("a"))
}

func (s *RegistrySuite) TestLoadDriverErrorsPassThrough() {
	boom := adapter.NewConfigurationError("picky", "host", "required")
	s.Require().NoError(s.reg.UseDriver("picky", &adapter.Funcs{
		ConfigureFunc: func(adapter.Config) (adapter.Config, error) { return nil, boom },
		StartFunc:     func(context.Context, adapter.Config) (adapter.Handle, error) { return nil, nil },
	}, false))

	_, err := s.reg.Load("p", adapter.Config{"driver": "picky"})
	s.Same(boom, err)
	s.False(s.reg.Has("p"), "failed stores are not kept")
}

func (s *RegistrySuite) TestLoadDoesNotMutateCallerConfig() {
	cfg := adapter.Config{"driver": "mock"}
	log := logger.Nop()
	reg := NewRegistry(WithLogger(log), WithDrivers(map[string]adapter.Driver{"mock": mockDriver()}))

	store, err := reg.Load("a", cfg)
	s.Require().NoError(err)
	s.NotContains(cfg, adapter.KeyLogger)
	s.Same(log, store.Config().Logger())
}

func (s *RegistrySuite) TestUseDriver() {
	s.ErrorIs(s.reg.UseDriver("", mockDriver(), false), ErrMissingArgument)
	s.ErrorIs(s.reg.UseDriver("x", nil, false), ErrMissingArgument)

	err := s.reg.UseDriver("other", &adapter.Funcs{ConfigureFunc: identity}, false)
	s.ErrorIs(err, ErrInvalidAdapter)
	s.False(s.reg.HasDriver("other"))

	s.NoError(s.reg.UseDriver("mock", &adapter.Funcs{ConfigureFunc: identity}, false),
		"an existing name is kept without looking at the new driver")
	s.ErrorIs(s.reg.UseDriver("mock", &adapter.Funcs{ConfigureFunc: identity}, true), ErrInvalidAdapter)

	replacement := mockDriver()
	replacement.Name = "replacement"
	s.Require().NoError(s.reg.UseDriver("mock", replacement, false))
	b, _ := s.reg.Driver("mock")
	s.Equal("mock", b.Label(), "no-op without overwrite")

	s.Require().NoError(s.reg.UseDriver("mock", replacement, true))
	b, _ = s.reg.Driver("mock")
	s.Equal("replacement", b.Label())
}

func (s *RegistrySuite) TestRegisterUsesLabel() {
	d := mockDriver()
	d.Name = "labelled"
	s.Require().NoError(s.reg.Register(d, false))
	s.Equal([]string{"labelled", "mock"}, s.reg.Drivers())
	s.ErrorIs(s.reg.Register(nil, false), ErrMissingArgument)

	var typedNil *adapter.Funcs
	s.NotPanics(func() {
		s.ErrorIs(s.reg.Register(typedNil, false), ErrMissingArgument)
	})
	s.False(s.reg.HasDriver("funcs"))
}

func (s *RegistrySuite) TestLoadNamed() {
	store, err := s.reg.LoadNamed(adapter.Config{"name": "n", "driver": "mock"})
	s.Require().NoError(err)
	s.Equal("n", store.Name())

	_, err = s.reg.LoadNamed(adapter.Config{"driver": "mock"})
	s.ErrorIs(err, ErrMissingName)
}

func (s *RegistrySuite) TestGetDefault() {
	_, ok := s.reg.Get("")
	s.False(ok)

	s.Require().NoError(s.reg.Configure(&GlobalConfig{
		Default:     "main",
		Connections: map[string]adapter.Config{"main": {"driver": "mock"}},
	}))

	store, ok := s.reg.Get("")
	s.Require().True(ok)
	s.Equal("main", store.Name())
	s.Equal("main", s.reg.DefaultName())

	_, ok = s.reg.Get("missing")
	s.False(ok, "get never creates")
	s.False(s.reg.Has("missing"))
}

func (s *RegistrySuite) TestInfoIsDetached() {
	_, err := s.reg.Load("a", adapter.Config{"driver": "mock", "addrs": []any{"h1:1", "h2:2"}})
	s.Require().NoError(err)

	info, ok := s.reg.Info("a")
	s.Require().True(ok)
	s.Equal(datastore.StatusConfigured, info.Status)
	info.Config["driver"] = "changed"
	info.Config["addrs"].([]any)[0] = "changed"

	again, _ := s.reg.Info("a")
	s.Equal("mock", again.Config["driver"])
	s.Equal([]any{"h1:1", "h2:2"}, again.Config["addrs"])

	_, ok = s.reg.Info("missing")
	s.False(ok)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func TestConfigure(t *testing.T) {
	t.Run("nil is a no-op", func(t *testing.T) {
		reg := NewRegistry()
		assert.NoError(t, reg.Configure(nil))
		assert.Empty(t, reg.Names())
	})

	t.Run("loggers fill each other", func(t *testing.T) {
		shared := logger.Nop()
		reg := NewRegistry(WithDrivers(map[string]adapter.Driver{"mock": mockDriver()}))
		g := &GlobalConfig{
			Logger: shared,
			Connections: map[string]adapter.Config{
				"a": {"driver": "mock"},
				"b": {"driver": "mock", "logger": nil},
			},
		}
		require.NoError(t, reg.Configure(g))

		assert.Same(t, shared, reg.Logger(), "registry adopts the global logger")
		a, _ := reg.Get("a")
		assert.Same(t, shared, a.Config().Logger())
		b, _ := reg.Get("b")
		assert.Nil(t, b.Config().Logger(), "an explicit logger entry is kept")

		own := logger.Nop()
		reg2 := NewRegistry(WithLogger(own))
		g2 := &GlobalConfig{}
		require.NoError(t, reg2.Configure(g2))
		assert.Same(t, own, g2.Logger, "global config adopts the registry logger")
		assert.Same(t, own, reg2.Logger(), "first write wins")
	})

	t.Run("first failure aborts and names the connection", func(t *testing.T) {
		reg := NewRegistry(WithDrivers(map[string]adapter.Driver{"mock": mockDriver()}))
		err := reg.Configure(&GlobalConfig{Connections: map[string]adapter.Config{
			"a": {"driver": "mock"},
			"b": {"driver": "unknown"},
			"c": {"driver": "mock"},
		}})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownDriver)
		assert.Contains(t, err.Error(), `"b"`)
		assert.Equal(t, []string{"a"}, reg.Names())
	})

	t.Run("adapter errors are wrapped with the connection name", func(t *testing.T) {
		boom := errors.New("rejected")
		reg := NewRegistry(WithDrivers(map[string]adapter.Driver{"picky": &adapter.Funcs{
			ConfigureFunc: func(adapter.Config) (adapter.Config, error) { return nil, boom },
			StartFunc:     func(context.Context, adapter.Config) (adapter.Handle, error) { return nil, nil },
		}}))
		err := reg.Configure(&GlobalConfig{Connections: map[string]adapter.Config{"p": {"driver": "picky"}}})

		assert.ErrorIs(t, err, boom)
		var regErr *RegistryError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, "p", regErr.Name)
	})
}

func TestInvalidConstructionDriversAreSkipped(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("hopper", "test", &buf, "warn")

	reg := NewRegistry(WithLogger(log), WithDrivers(map[string]adapter.Driver{
		"mock":   mockDriver(),
		"broken": &adapter.Funcs{ConfigureFunc: identity},
	}))

	assert.Equal(t, []string{"mock"}, reg.Drivers())
	assert.Contains(t, buf.String(), "skipping driver broken")
	assert.NotEmpty(t, reg.ID())
	assert.NotEqual(t, reg.ID(), NewRegistry().ID())
}

func TestRegistryObserver(t *testing.T) {
	var mu sync.Mutex
	var changes []datastore.StateChange
	reg := NewRegistry(
		WithDrivers(map[string]adapter.Driver{"mock": mockDriver()}),
		WithObserver(datastore.ObserverFunc(func(c datastore.StateChange) {
			mu.Lock()
			changes = append(changes, c)
			mu.Unlock()
		})),
	)

	store, err := reg.Load("a", adapter.Config{"driver": "mock"})
	require.NoError(t, err)
	_, err = store.Open(context.Background())
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, datastore.StatusConfigured, changes[0].Status)
	assert.Equal(t, datastore.StatusOpened, changes[1].Status)
	assert.Equal(t, "a", changes[1].Name)
}

func TestOpenAllAndEndAll(t *testing.T) {
	boom := errors.New("cannot close")
	ended := map[string]int{}
	reg := NewRegistry(WithDrivers(map[string]adapter.Driver{
		"mock": mockDriver(),
		"stubborn": &adapter.Funcs{
			ConfigureFunc: identity,
			StartFunc:     func(context.Context, adapter.Config) (adapter.Handle, error) { return "S", nil },
			EndFunc: func(_ context.Context, h adapter.Handle) error {
				ended[h.(string)]++
				return boom
			},
		},
	}))
	require.NoError(t, reg.Configure(&GlobalConfig{Connections: map[string]adapter.Config{
		"a": {"driver": "mock"},
		"s": {"driver": "stubborn"},
		"z": {"driver": "mock"},
	}}))

	require.NoError(t, reg.OpenAll(context.Background()))
	for _, name := range reg.Names() {
		store, _ := reg.Get(name)
		assert.Equal(t, datastore.StatusOpened, store.Status())
	}

	err := reg.EndAll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ended["S"])
	assert.Equal(t, []string{"a", "s", "z"}, reg.Names(), "stores stay registered")

	var closed []string
	reg.Each(func(name string, store *datastore.Datastore) {
		if store.Status() == datastore.StatusClosed {
			closed = append(closed, name)
		}
	})
	assert.Equal(t, []string{"a", "s", "z"}, closed)
}
