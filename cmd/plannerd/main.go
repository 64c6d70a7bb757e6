package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/venue-planner/internal/app"
	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/ingest"
	"github.com/joseph-ayodele/venue-planner/internal/metrics"
	"github.com/joseph-ayodele/venue-planner/internal/notify"
	"github.com/joseph-ayodele/venue-planner/internal/planner"
	"github.com/joseph-ayodele/venue-planner/internal/server"
	"github.com/joseph-ayodele/venue-planner/internal/state"
	"github.com/joseph-ayodele/venue-planner/internal/syncer"
)

const (
	shutdownTimeout = 20 * time.Second
	hubWriteTimeout = 5 * time.Second
)

func main() {
	cfg, err := common.LoadConfigFile(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	logger, closer := common.NewLogger(cfg.Log)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("plannerd.exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *common.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, closeLocal, err := app.OpenLocal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocal()

	store := state.NewStore(local.Load(ctx), logger)
	rec := metrics.New(true)
	hub := notify.NewHub(notify.WithLogger(logger), notify.WithWriteTimeout(hubWriteTimeout))
	defer hub.Close()

	store.Subscribe("persist", local.Subscriber())
	store.Subscribe("notify", hub.StateSubscriber())

	var remote syncer.Remote
	if cfg.SyncEnabled() {
		lr := app.NewLazyRemote(cfg, logger)
		defer lr.Close()
		remote = lr
	}
	sy := syncer.New(remote, store,
		syncer.WithInterval(cfg.Sync.PollInterval),
		syncer.WithTimeout(cfg.Sync.Timeout),
		syncer.WithLogger(logger),
		syncer.WithMetrics(rec),
		syncer.WithStatusObserver(hub.SyncObserver()),
	)
	store.Subscribe("sync", sy.Subscriber())
	if err := sy.Connect(ctx); err != nil {
		logger.Warn("sync.connect.failed", "error", err)
	}
	sy.Start()

	gen, err := app.NewGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	ex, err := app.NewExtractors(gen, cfg.LLM, cfg.OCR, logger)
	if err != nil {
		return err
	}
	svc := planner.New(store, ex.Venues, ex.Vendors,
		planner.WithLogger(logger),
		planner.WithMetrics(rec, rec),
		planner.WithNotifier(hub),
		planner.WithSync(sy),
		planner.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}
	gs := server.NewGRPC(server.NewPlannerServer(svc, logger), logger)

	var httpSrv *server.HTTP
	var httpLis net.Listener
	if cfg.Server.HTTPAddr != "" {
		httpLis, err = net.Listen("tcp", cfg.Server.HTTPAddr)
		if err != nil {
			_ = grpcLis.Close()
			return err
		}
		httpSrv = server.NewHTTP(server.HTTPConfig{
			Addr:    cfg.Server.HTTPAddr,
			Metrics: rec.Handler(),
			Notify:  hub,
			Sync:    sy.Status,
			Logger:  logger,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc.serving", "addr", grpcLis.Addr().String(), "model", gen.Model())
		return gs.Server.Serve(grpcLis)
	})
	if httpSrv != nil {
		g.Go(func() error { return httpSrv.Serve(httpLis) })
	}
	if cfg.Ingest.InboxDir != "" {
		inbox := ingest.NewInbox(cfg.Ingest.InboxDir, svc, cfg.Ingest.Debounce, logger)
		g.Go(func() error {
			err := inbox.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("plannerd.shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		gs.Stop(sctx)
		if httpSrv != nil {
			if err := httpSrv.Shutdown(sctx); err != nil {
				logger.Warn("http.shutdown.failed", "error", err)
			}
		}
		svc.Shutdown(sctx)
		sy.Shutdown(sctx)
		return nil
	})

	return g.Wait()
}
