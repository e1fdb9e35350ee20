package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/icalado/geo-snap-pro/internal/auth"
	"github.com/icalado/geo-snap-pro/internal/blob"
	"github.com/icalado/geo-snap-pro/internal/cloudsync"
	"github.com/icalado/geo-snap-pro/internal/config"
	"github.com/icalado/geo-snap-pro/internal/connectivity"
	"github.com/icalado/geo-snap-pro/internal/db"
	"github.com/icalado/geo-snap-pro/internal/geoloc"
	"github.com/icalado/geo-snap-pro/internal/offline"
	"github.com/icalado/geo-snap-pro/internal/recorder"
	"github.com/icalado/geo-snap-pro/internal/server"
	"github.com/icalado/geo-snap-pro/internal/session"
	"github.com/icalado/geo-snap-pro/internal/stream"
	"github.com/icalado/geo-snap-pro/internal/wakelock"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	// A missing remote is survivable: the session store keeps everything
	// until the next start with connectivity.
	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Printf("remote store unreachable, starting offline: %v", err)
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		log.Printf("agent exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

var issueTokenFn = func(cfg config.Config) (string, error) {
	return auth.NewIssuer(cfg.JWTSecret).IssueDeviceToken(cfg.UserID, cfg.DeviceID)
}

// Run wires the engines and serves the control API until a termination
// signal arrives.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	local, err := db.OpenSQLite(cfg.LocalDBPath)
	if err != nil {
		return err
	}
	defer local.Close()

	sessions, err := session.NewStore(local)
	if err != nil {
		return err
	}
	pending, err := offline.NewPendingStore(local)
	if err != nil {
		return err
	}

	var trackStore cloudsync.Store
	var photoRecords offline.RecordStore
	if pg != nil {
		trackStore = cloudsync.NewPGStore(pg)
		photoRecords = offline.NewPGRecordStore(pg)
	}

	var uploader blob.Uploader
	if cfg.BlobUploadURL != "" {
		uploader = blob.NewClient(cfg.BlobUploadURL)
	}

	probe := func(ctx context.Context) error {
		if pg == nil {
			return offline.ErrRemoteUnavailable
		}
		return pg.Ping(ctx)
	}
	monitor := connectivity.NewMonitor(probe, time.Duration(cfg.ProbeIntervalMS)*time.Millisecond)

	var source geoloc.Source
	if cfg.GpsdAddr != "" {
		source = geoloc.NewGPSD(cfg.GpsdAddr)
	}

	hub := stream.NewHub(rdb)
	lock := wakelock.NewInhibitor("geo-snap-agent", "recording field track")

	engine := cloudsync.NewEngine(trackStore, nil, cfg.UserID, time.Duration(cfg.SyncDebounceMS)*time.Millisecond)
	rec := recorder.NewService(source, sessions, lock, hub, engine)
	engine.Attach(rec)

	queue := offline.NewQueue(pending, uploader, photoRecords, monitor)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if monitor.Start(runCtx) {
		if report, err := queue.Drain(runCtx); err != nil {
			log.Printf("startup drain error: %v", err)
		} else if report.Succeeded+report.Failed > 0 {
			log.Printf("startup drain: %d ok, %d failed", report.Succeeded, report.Failed)
		}
	}
	go queue.Run(runCtx, monitor.Transitions())

	if token, err := issueTokenFn(cfg); err == nil {
		log.Printf("device token for %s: %s", cfg.DeviceID, token)
	} else {
		log.Printf("device token mint failed for %s: %v", cfg.DeviceID, err)
	}

	srv := server.NewServer(cfg, rec, engine, queue, hub)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// Final push so the last appended state is not stranded behind a
	// pending debounce timer.
	engine.SyncNow()
	monitor.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
