package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"bananadb/internal/config"
	"bananadb/internal/library"
	"bananadb/internal/logging"
	"bananadb/internal/notifications"
	"bananadb/internal/preflight"
	"bananadb/internal/server"
)

// Daemon owns the collection server lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *library.Store
	server *server.Server

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DatabasePath string
	UploadDir    string
	LockFilePath string
	ImageCount   int
	Favorites    int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, srv *server.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || srv == nil {
		return nil, errors.New("daemon requires config, store, and server")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.ServerLockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		server:   srv,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the server lock, runs preflight checks, and starts serving.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bananadb server instance is already running")
	}

	for _, result := range preflight.Failed(preflight.RunServerChecks(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "collection may fail or store placeholder analysis"))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("bananadb server started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
		logging.String("uploads", d.store.UploadDir()))
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Stop stops the server and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release server lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("bananadb server stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Address:      d.server.Addr(),
		DatabasePath: d.store.Path(),
		UploadDir:    d.store.UploadDir(),
		LockFilePath: d.lockPath,
	}
	if stats, err := d.store.CategoryStats(ctx); err == nil {
		for _, n := range stats {
			status.ImageCount += n
		}
	}
	if n, err := d.store.FavoritesCount(ctx); err == nil {
		status.Favorites = n
	}
	return status
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	return SendTestNotification(ctx, d.cfg)
}

// SendTestNotification sends an ntfy test message when a topic is configured.
func SendTestNotification(ctx context.Context, cfg *config.Config) (bool, string, error) {
	if cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := notifications.NewService(cfg).TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
