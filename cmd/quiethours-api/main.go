// QuietHours API — HTTP API для quiet blocks, профилей и служебных
// эндпоинтов (запуск рассылки, тестовое письмо, webhook новых пользователей).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/QuietHours/internal/api"
	"github.com/shaiso/QuietHours/internal/config"
	"github.com/shaiso/QuietHours/internal/dispatcher"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/quietblock"
	"github.com/shaiso/QuietHours/internal/store"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger("quiethours-api")
	logger.Info("starting quiethours-api")

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
	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET is not set, /api/send-notifications rejects every request")
	}
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set, /api/v1 rejects every request")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Хранилище
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store opened", "driver", st.Driver)

	// RabbitMQ (опционально)
	var publisher *mq.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, "quiethours-api", logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, sending emails inline", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(conn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

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
	handlerCfg := api.Config{
		QuietBlocks: quietblock.New(quietblock.Config{
			Blocks:        st.QuietBlocks,
			Notifications: st.Notifications,
			Location:      loc,
			Logger:        logger,
		}),
		Profiles:      st.Profiles,
		Notifications: st.Notifications,
		Mailer:        sender,
		Store:         st,
		JWTSecret:     cfg.AuthJWTSecret,
		CronSecret:    cfg.CronSecret,
		Logger:        logger,
	}
	// nil *mq.Publisher в интерфейсе не равен nil, поэтому только так
	if publisher != nil {
		dispatchCfg.Events = publisher
		handlerCfg.WelcomeQueue = publisher
	}
	handlerCfg.Dispatcher = dispatcher.New(dispatchCfg)

	mux := http.NewServeMux()
	api.NewHandler(handlerCfg).RegisterRoutes(mux)

	addr := ":" + cfg.APIPort

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
