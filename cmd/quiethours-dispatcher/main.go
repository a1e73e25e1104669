// QuietHours Dispatcher — рассылает напоминания по cron-расписанию
// и обрабатывает очередь приветственных писем.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/QuietHours/internal/config"
	"github.com/shaiso/QuietHours/internal/dispatcher"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/store"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// dispatchLockKey — ключ advisory lock лидера диспетчера.
const dispatchLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger("quiethours-dispatcher")
	logger.Info("starting quiethours-dispatcher")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateMailer(); err != nil {
		logger.Warn("email sending will fail", "error", err)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store opened", "driver", st.Driver)

	sender := email.NewSender(email.SenderConfig{
		Provider: email.NewResendProvider(cfg.ResendAPIKey),
		From:     cfg.EmailFrom,
		AppURL:   cfg.AppURL,
		Logger:   logger,
	})

	dispatchCfg := dispatcher.Config{
		Store:       st.Notifications,
		Mailer:      sender,
		Logger:      logger,
		BatchSize:   cfg.DispatchBatchSize,
		Concurrency: cfg.DispatchConcurrency,
		ClaimTTL:    cfg.ClaimTTL,
	}

	// RabbitMQ (опционально): события о результатах и очередь приветствий
	var (
		consumer *mq.Consumer
		mqConn   *mq.Connection
	)
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, "quiethours-dispatcher", logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without events", "error", err)
		} else {
			defer conn.Close()
			mqConn = conn
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			dispatchCfg.Events = mq.NewPublisher(conn, logger)
			consumer = mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Queue:    mq.QueueEmailsWelcome,
				Handler:  dispatcher.WelcomeHandler(sender, logger),
				Prefetch: 5,
			})
			logger.Info("RabbitMQ connected")
		}
	}

	d := dispatcher.New(dispatchCfg)

	// Несколько экземпляров с PostgreSQL: рассылает только лидер.
	// SQLite — один процесс, блокировка не нужна.
	var lock *repo.LeaderLock
	if st.Pool != nil {
		lock = repo.NewLeaderLock(st.Pool, dispatchLockKey)
	}

	job := func() {
		if lock != nil {
			leader, err := lock.TryAcquire(ctx)
			if err != nil {
				logger.Warn("leader lock error", "error", err)
				return
			}
			if !leader {
				logger.Debug("not a leader, skipping run")
				return
			}
		}
		if _, err := d.Run(ctx); err != nil {
			logger.Error("dispatch run failed", "error", err)
		}
	}

	c, err := dispatcher.NewCron(cfg.DispatchSchedule, logger, job)
	if err != nil {
		logger.Error("invalid dispatch schedule", "error", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("dispatch scheduled", "schedule", cfg.DispatchSchedule)

	if consumer != nil {
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("welcome consumer stopped", "error", err)
			}
		}()
	}

	// HTTP: /healthz + /metrics
	started := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer pingCancel()
		if err := st.Ping(pingCtx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		// очередь приветствий не обрабатывается, пока соединение восстанавливается
		if mqConn != nil && !mqConn.IsConnected() {
			http.Error(w, "rabbitmq unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "ok %s", time.Since(started).Round(time.Second))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := ":" + cfg.DispatcherPort
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// ждём текущий запуск, затем отпускаем лидерство;
	// consumer останавливается отменой ctx
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if lock != nil {
		if err := lock.Release(shutdownCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
