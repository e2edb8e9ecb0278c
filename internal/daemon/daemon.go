package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dealgrid/agentgate/internal/config"
	"github.com/dealgrid/agentgate/internal/logger"
	"github.com/dealgrid/agentgate/pkg/dealtools"
	"github.com/dealgrid/agentgate/pkg/events"
	"github.com/dealgrid/agentgate/pkg/gateway"
	"github.com/dealgrid/agentgate/pkg/policy"
	"github.com/dealgrid/agentgate/pkg/registry"
	"github.com/dealgrid/agentgate/pkg/store"
	"github.com/dealgrid/agentgate/pkg/sweeper"
)

// Daemon wires the gateway and its supporting services together and owns
// their lifecycle.
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	store    store.Store
	registry *registry.Registry
	gateway  *gateway.Gateway
	sweeper  *sweeper.Sweeper
	crm      *dealtools.MemoryCRM

	lifecycle *LifecycleManager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// New creates a daemon instance. Modules are initialized in dependency
// order; a failure at any step tears down what came before.
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := d.initialize(); err != nil {
		cancel()
		return nil, err
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initialize() error {
	st, err := store.NewSQLiteStore(store.SQLiteConfig{
		DatabasePath: d.config.Database.Path,
		Debug:        d.config.Database.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	d.store = st
	d.logger.Info().Str("path", d.config.Database.Path).Msg("Store initialized")

	reg, err := registry.New()
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}
	d.registry = reg
	d.logger.Info().Int("tools", reg.Count()).Msg("Tool registry initialized")

	emitter := events.MultiEmitter{
		events.NewLogEmitter(d.logger.Zerolog()),
		events.NewStoreEmitter(st, d.logger.Zerolog()),
	}

	gw, err := gateway.New(gateway.Config{
		Registry: reg,
		Policy:   d.config.Policy,
		Store:    st,
		Emitter:  emitter,
		Logger:   d.logger.Zerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	d.gateway = gw

	d.crm = dealtools.NewMemoryCRM()
	if err := dealtools.Register(gw, dealtools.Options{
		CRM:       d.crm,
		Messenger: dealtools.NewLogMessenger(d.logger.Zerolog()),
	}); err != nil {
		return fmt.Errorf("failed to register deal tools: %w", err)
	}
	d.logger.Info().Msg("Deal tools registered")

	if d.config.Sweeper.Enabled {
		sw, err := sweeper.New(gw, d.config.Sweeper.Schedule, d.logger.Zerolog())
		if err != nil {
			return fmt.Errorf("failed to create approval sweeper: %w", err)
		}
		d.sweeper = sw
	}

	return nil
}

// Gateway exposes the tool gateway for callers embedding the daemon.
func (d *Daemon) Gateway() *gateway.Gateway {
	return d.gateway
}

// Store exposes the backing store.
func (d *Daemon) Store() store.Store {
	return d.store
}

// Policy returns the safety policy the daemon was started with.
func (d *Daemon) Policy() policy.SafetyPolicy {
	return d.config.Policy
}

// Start brings up background services and marks the daemon running.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon is already running")
	}

	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if d.sweeper != nil {
		if err := d.sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start approval sweeper: %w", err)
		}
		d.logger.Info().Str("schedule", d.config.Sweeper.Schedule).Msg("Approval sweeper started")
	}

	d.startTime = time.Now()
	d.running = true

	d.logger.Info().
		Int("tools", d.registry.Count()).
		Bool("auto_execute", d.config.Policy.AutoExecuteEnabled).
		Msg("Daemon started")

	return nil
}

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		d.logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case <-d.ctx.Done():
	}

	return d.Stop()
}

// Stop shuts down background services and closes the store.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cancel()

	if d.sweeper != nil {
		d.sweeper.Stop()
	}

	d.wg.Wait()

	if err := d.lifecycle.Stop(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to stop lifecycle manager")
	}

	if err := d.store.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close store")
	}

	d.running = false
	d.logger.Info().Msg("Daemon stopped")

	return nil
}

// Status reports daemon state for the status command.
type Status struct {
	Running bool          `json:"running"`
	PID     int           `json:"pid"`
	Uptime  time.Duration `json:"uptime"`
	Tools   int           `json:"tools"`
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Status{
		Running: d.running,
		PID:     os.Getpid(),
		Tools:   d.registry.Count(),
	}
	if d.running {
		s.Uptime = time.Since(d.startTime)
	}
	return s
}
