package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bananadb/internal/capture"
	"bananadb/internal/collect"
	"bananadb/internal/config"
	"bananadb/internal/daemon"
	"bananadb/internal/fetch"
	"bananadb/internal/library"
	"bananadb/internal/logging"
	"bananadb/internal/nativehost"
	"bananadb/internal/notifications"
	"bananadb/internal/server"
	"bananadb/internal/vision"
)

// Log file names under paths.log_dir.
const (
	ServerLogFile = "server.log"
	HostLogFile   = "host.log"
)

// ServerOptions configures the collection server process.
type ServerOptions struct {
	// Bind overrides paths.api_bind when set.
	Bind string
	// Console selects where human-readable logs go.
	Console logging.Console
}

// RunServer starts the collection server and blocks until a signal arrives
// or cmdCtx is cancelled.
func RunServer(cmdCtx context.Context, cfg *config.Config, opts ServerOptions) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := opts.Console
	if console == "" {
		console = logging.ConsoleStderr
	}
	logger, err := logging.NewFromConfig(cfg, console, ServerLogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		bind = cfg.Paths.APIBind
	}

	store, err := library.Open(cfg, logger)
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		return err
	}

	analyzer := vision.NewClient(cfg.GetVision())
	srv, err := server.New(store, analyzer, fetch.New(cfg.Fetch), server.Options{
		Bind:           bind,
		Token:          cfg.Paths.APIToken,
		ExtensionID:    cfg.Extension.ID,
		MaxUploadBytes: cfg.FetchMaxBytes(),
		Logger:         logger,
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create api server: %w", err)
	}

	d, err := daemon.New(cfg, store, srv, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	logDependencySnapshot(logger, cfg, analyzer)

	if err := d.Run(signalCtx); err != nil {
		logger.Error("server start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "server_start_failed"),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and whether another server holds the lock"))
		return err
	}
	logger.Info("bananadb server shutting down")
	return nil
}

// HostOptions configures a native messaging host process.
type HostOptions struct {
	// Origin is the caller origin Chrome passes as the first argument.
	Origin string
	// ParentPoll is how often the host checks that the browser that started
	// it is still alive. Zero uses defaultParentPoll.
	ParentPoll time.Duration
}

const defaultParentPoll = 5 * time.Second

// errParentExited stops the host when it has been reparented, which happens
// when the browser dies without closing stdin.
var errParentExited = errors.New("parent process exited")

// RunHost speaks the native messaging protocol on in and out until the
// extension disconnects. Logs go to the host log file only, since stdout
// carries protocol frames.
func RunHost(cmdCtx context.Context, cfg *config.Config, in io.Reader, out io.Writer, opts HostOptions) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg, logging.ConsoleNone, HostLogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldSessionID, uuid.NewString()))

	if err := CheckOrigin(cfg, opts.Origin); err != nil {
		logging.ErrorWithContext(logger, "native host rejected caller", "host_origin_rejected",
			logging.String("origin", opts.Origin),
			logging.String(logging.FieldErrorHint, "set extension.id to the id of the installed extension"))
		return err
	}

	host := nativehost.New(in, out, nativehost.Options{
		IconURL:       cfg.Notifications.IconURL,
		Notifications: cfg.Notifications.Browser,
		Logger:        logger,
	})
	collector := collect.NewClient(cfg.Collector.URL, cfg.CollectorTimeout(), collect.WithToken(cfg.Paths.APIToken))
	notifier := notifications.Fanout{host, notifications.NewService(cfg)}
	coord := capture.New(host, notifier, collector, logger)

	logger.Info("native host started",
		logging.String("collector", collector.BaseURL()),
		logging.String("origin", opts.Origin),
		logging.Bool("browser_notifications", cfg.Notifications.Browser))

	poll := opts.ParentPoll
	if poll <= 0 {
		poll = defaultParentPoll
	}
	hostCtx, stop := context.WithCancel(signalCtx)
	defer stop()
	g, gctx := errgroup.WithContext(hostCtx)
	g.Go(func() error {
		defer stop()
		return host.Run(gctx, coord)
	})
	g.Go(func() error {
		return watchParent(gctx, poll, os.Getppid)
	})
	err = g.Wait()
	switch {
	case errors.Is(err, errParentExited):
		logger.Info("native host stopped", logging.String("reason", "browser exited"))
		return nil
	case err != nil && !errors.Is(err, context.Canceled):
		logger.Error("native host stopped", logging.Error(err))
		return err
	}
	logger.Info("native host stopped")
	return nil
}

// watchParent returns errParentExited once getppid stops reporting the
// parent seen at start, and nil when ctx ends first.
func watchParent(ctx context.Context, interval time.Duration, getppid func() int) error {
	parent := getppid()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if getppid() != parent {
				return errParentExited
			}
		}
	}
}

// CheckOrigin accepts any chrome-extension origin when extension.id is empty
// and only that extension's origin otherwise. An empty origin means the host
// was started by hand and is accepted.
func CheckOrigin(cfg *config.Config, origin string) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil
	}
	if !strings.HasPrefix(origin, "chrome-extension://") {
		return fmt.Errorf("native host: unexpected caller %q", origin)
	}
	id := strings.TrimSpace(cfg.Extension.ID)
	if id == "" {
		return nil
	}
	if origin != nativehost.ExtensionOrigin(id) {
		return fmt.Errorf("native host: caller %q is not extension %s", origin, id)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config, analyzer *vision.Client) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("vision_key_present", analyzer.Configured()),
		logging.String("vision_model", analyzer.Model()),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("database", cfg.DatabasePath()),
		logging.Int64("fetch_max_bytes", cfg.FetchMaxBytes()),
	)
}
