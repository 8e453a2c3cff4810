package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	"github.com/mind-engage/mindengage-quiz/internal/review"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	users := authmw.NewUsers(dbh)
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := users.Create(ctx, cfg.AdminUsername, cfg.AdminPassword, "admin"); err != nil {
			log.Fatal("admin bootstrap failed", "error", err)
		}
	}

	quizzes := quiz.NewSQLStore(dbh)
	reports := report.NewSQLStore(dbh)

	// --- Fallback spool ---
	var spool report.Spool
	switch cfg.SpoolDriver {
	case "redis":
		rs, err := report.NewRedisSpool(ctx, cfg.RedisURL, report.DefaultSpoolKey)
		if err != nil {
			log.Fatal("redis spool", "error", err)
		}
		defer rs.Close()
		spool = rs
	default:
		bs, err := storage.NewFSStore(cfg.SpoolBasePath)
		if err != nil {
			log.Fatal("fs spool", "path", cfg.SpoolBasePath, "error", err)
		}
		spool = report.NewFSSpool(bs)
	}

	// --- Events ---
	evlog := events.NewLog(dbh, cfg.SiteID)
	publishers := events.Multi{evlog}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("amqp unavailable; submission events stay in the local log", "error", err)
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
		}
	}

	sink := report.NewSink(reports, spool, publishers, log.With("component", "sink"))
	reviews := review.NewScheduler(review.NewSQLStore(dbh, cfg.DBDriver), log.With("component", "review"))

	sessions := session.NewManager(session.Options{
		GracePeriod:     cfg.GracePeriod,
		SuppressWindow:  cfg.SuppressWindow,
		FinalizeTimeout: cfg.FinalizeTimeout,
		Sink:            sink,
		Reviews:         reviews,
		Grader:          grading.NewDefaultGrader(),
		Log:             log.With("component", "session"),
	}, cfg.RetainAfterDone)

	var assets storage.BlobStore
	if bs, err := storage.NewFSStore(cfg.AssetBasePath); err != nil {
		log.Warn("asset store disabled", "path", cfg.AssetBasePath, "error", err)
	} else {
		assets = bs
	}

	handler := api.NewRouter(api.Deps{
		Config:   cfg,
		DB:       dbh,
		Auth:     authmw.NewAuthService(cfg.AuthSecret),
		Users:    users,
		Quizzes:  quizzes,
		Sessions: sessions,
		Reports:  reports,
		Reviews:  reviews,
		Events:   evlog,
		Assets:   assets,
		Log:      log,
		Ready:    func(r *http.Request) error { return dbh.PingContext(r.Context()) },
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	drainer := &report.Drainer{Spool: spool, Store: reports, Interval: cfg.DrainInterval, Log: log.With("component", "drainer")}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode), "db", cfg.DBDriver, "spool", cfg.SpoolDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		drainer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sessions.Run(gctx, cfg.ReapInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FinalizeTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// open attempts with answers are submitted before the process exits
		sessions.Shutdown(shutdownCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
