// Faktura Reaper — принудительная финализация зависших задач.
//
// Reaper по расписанию просматривает журнал задач и переводит в FAILED
// RUNNING-задачи, чей heartbeat старше порога (упавший или зависший
// воркер). Можно запускать несколько реплик: лидерство разыгрывается
// через advisory lock в Postgres, проход выполняет только лидер.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Faktura/internal/config"
	"github.com/shaiso/Faktura/internal/reaper"
	"github.com/shaiso/Faktura/internal/repo"
	"github.com/shaiso/Faktura/internal/telemetry"
)

const reaperLockKey int64 = 148800

func main() {
	_ = godotenv.Load()

	logger := telemetry.SetupLogger()
	logger.Info("starting faktura-reaper")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	jobRepo := repo.NewJobRepo(pool)

	r := reaper.New(reaper.Config{
		Ledger:     jobRepo,
		StaleAfter: cfg.StaleAfter,
		Logger:     logger,
	})

	// Лидерство: лок захватывается один раз и удерживается до
	// завершения процесса. Не-лидеры пробуют его на каждом тике.
	var hasLock bool
	defer func() {
		if hasLock {
			_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", reaperLockKey)
		}
	}()

	c := cron.New()
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		if !hasLock {
			var ok bool
			if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", reaperLockKey).Scan(&ok); err != nil {
				logger.Error("advisory lock attempt failed", "error", err)
				return
			}
			if !ok {
				// Не лидер — пропускаем тик
				return
			}
			hasLock = true
			logger.Info("acquired reaper leadership")
		}

		if _, err := r.Sweep(ctx); err != nil {
			logger.Error("sweep failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("sweep scheduled", "schedule", cfg.SweepSchedule, "stale_after", cfg.StaleAfter)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := ":" + cfg.ReaperPort
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	// Дожидаемся завершения текущего прохода
	<-c.Stop().Done()
	logger.Info("faktura-reaper stopped")
}
