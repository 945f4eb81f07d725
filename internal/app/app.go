// Package app wires the importer subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the vocabularies and
// connects the configured sinks, Import runs one pipeline pass, Run serves
// the health and metrics endpoints and re-imports on file changes, and
// Shutdown tears everything down in order.
//
// For testing, inject sinks and metrics via functional options
// (WithSinks, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/pbsimport/internal/config"
	"github.com/MrWong99/pbsimport/internal/export"
	"github.com/MrWong99/pbsimport/internal/export/postgres"
	"github.com/MrWong99/pbsimport/internal/gamedata"
	"github.com/MrWong99/pbsimport/internal/health"
	"github.com/MrWong99/pbsimport/internal/observe"
	"github.com/MrWong99/pbsimport/internal/pipeline"
	"github.com/MrWong99/pbsimport/internal/watch"
)

// App owns all subsystem lifetimes and orchestrates import runs.
type App struct {
	cfg      *config.Config
	metrics  *observe.Metrics
	gatherer prometheus.Gatherer

	// Subsystems; initialised in New, torn down in Shutdown.
	sinks    []export.Sink
	checkers []health.Checker
	status   *health.ImportStatus
	watcher  *watch.Watcher

	// mu guards catalog, which is replaced when the enumeration file changes.
	mu      sync.Mutex
	catalog *gamedata.Catalog

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSinks replaces the sinks New would create from the output config.
func WithSinks(sinks ...export.Sink) Option {
	return func(a *App) { a.sinks = sinks }
}

// WithMetrics sets the metric instruments. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithGatherer sets the Prometheus registry served on /metrics. The default
// is [prometheus.DefaultGatherer].
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg. It loads the enumeration catalog and, unless
// [WithSinks] is given, opens the JSON and PostgreSQL sinks the output
// config enables.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		status: health.NewImportStatus(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.DefaultGatherer
	}

	catalog, err := loadCatalog(cfg.Input.Enumerations)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.catalog = catalog

	if a.sinks == nil {
		if err := a.initSinks(ctx); err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: init sinks: %w", err)
		}
	}
	a.checkers = append([]health.Checker{a.status.Checker()}, a.checkers...)

	// The watcher takes its baseline now so that edits made while the first
	// import runs are still picked up by Run.
	a.watcher = watch.New(a.watchPaths(), a.onChange, watch.WithInterval(cfg.Watch.Interval))
	return a, nil
}

// initSinks opens every sink enabled in the output config.
func (a *App) initSinks(ctx context.Context) error {
	out := a.cfg.Output
	if out.JSONDir != "" {
		a.sinks = append(a.sinks, export.NewJSONDir(out.JSONDir))
	}
	if out.PostgresDSN != "" {
		pg, err := postgres.NewSink(ctx, out.PostgresDSN, out.Table)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, export.NewGuard(pg, 3, time.Minute))
		a.checkers = append(a.checkers, health.Checker{Name: "postgres", Check: pg.Ping})
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		slog.Info("postgres sink connected", "table", out.Table)
	}
	return nil
}

func loadCatalog(path string) (*gamedata.Catalog, error) {
	if path == "" {
		return gamedata.NewCatalog(), nil
	}
	return gamedata.LoadCatalog(path)
}

// ─── Import ──────────────────────────────────────────────────────────────────

// Import runs the pipeline once and writes the resulting tables to every
// sink. Tables are only exported when every kind imported cleanly. The
// outcome is recorded for /status and /readyz.
func (a *App) Import(ctx context.Context) (*pipeline.Result, error) {
	a.mu.Lock()
	catalog := a.catalog
	a.mu.Unlock()

	res, err := pipeline.Run(ctx, pipeline.Options{
		Paths:   a.cfg.Input.Paths(),
		Catalog: catalog,
		Metrics: a.metrics,
	})
	if err == nil {
		err = export.ImportAll(ctx, a.metrics, a.sinks, res.Tables)
	}
	a.status.Record(time.Now(), kindStatus(res), err)
	return res, err
}

func kindStatus(res *pipeline.Result) map[string]health.KindStatus {
	if res == nil {
		return nil
	}
	out := make(map[string]health.KindStatus, len(res.Kinds))
	for _, kr := range res.Kinds {
		ks := health.KindStatus{Records: kr.Records, Duration: kr.Duration}
		if kr.Err != nil {
			ks.Error = kr.Err.Error()
		}
		out[kr.Kind] = ks
	}
	return out
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Handler returns the HTTP handler serving /healthz, /readyz, /status and
// /metrics.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	health.New(a.status, a.checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	return observe.Middleware(a.metrics)(mux)
}

// Run serves [App.Handler] on the configured listen address and re-imports
// whenever an input file changes, until ctx is cancelled. Failed re-imports
// are logged and keep the previous output in place. When ctx is done, Run
// returns context.Canceled (or the underlying cause).
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Watch.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return a.watcher.Run(ctx) })

	slog.Info("app watching input files",
		"listen_addr", ln.Addr().String(),
		"interval", a.cfg.Watch.Interval,
		"files", len(a.watchPaths()),
	)
	return g.Wait()
}

// watchPaths returns the input files and the enumeration file, if any.
func (a *App) watchPaths() []string {
	paths := make([]string, 0, 7)
	for _, p := range a.cfg.Input.Paths() {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	if a.cfg.Input.Enumerations != "" {
		paths = append(paths, a.cfg.Input.Enumerations)
	}
	return paths
}

// onChange reloads the catalog when the enumeration file changed and runs a
// new import.
func (a *App) onChange(ctx context.Context, changed []string) {
	if enums := a.cfg.Input.Enumerations; enums != "" && slices.Contains(changed, enums) {
		catalog, err := loadCatalog(enums)
		if err != nil {
			slog.Warn("app: enumeration reload failed; keeping previous vocabularies", "err", err)
		} else {
			a.mu.Lock()
			a.catalog = catalog
			a.mu.Unlock()
			slog.Info("app: enumerations reloaded", "path", enums)
		}
	}

	res, err := a.Import(ctx)
	if err != nil {
		slog.Error("app: re-import failed", "err", err)
		return
	}
	slog.Info("app: re-import complete", "kinds", len(res.Tables), "records", res.Records())
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll runs every closer, ignoring errors. Used when New fails halfway.
func (a *App) closeAll() {
	for _, c := range a.closers {
		_ = c()
	}
}
