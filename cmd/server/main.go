package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hireflow/internal/app"
	"hireflow/internal/config"
	"hireflow/internal/server"
	"hireflow/internal/util"
	"hireflow/pkg/ai"
	"hireflow/pkg/domain"
	"hireflow/pkg/extract"
	"hireflow/pkg/mail"
	"hireflow/pkg/queue"
	"hireflow/pkg/storage"
	"hireflow/pkg/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("HIREFLOW_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	objects, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StoragePublicBaseURL,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	generator := buildGenerator(cfg, logger)
	extractor := extract.NewService(cfg.ExtractorURL, objects, logger)

	notifyQueue, err := queue.NewRedisNotifyQueue(queue.RedisQueueConfig{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		Stream:     orDefault(cfg.NotifyStream, "hireflow:notify"),
		Group:      orDefault(cfg.NotifyGroup, "notify-workers"),
		MaxRetries: cfg.NotifyMaxRetries,
		RetryDelay: time.Duration(cfg.NotifyRetryDelaySeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init notification queue: %v", err)
	}

	appCfg := app.Config{
		DatabaseURL:   cfg.DatabaseURL,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    time.Duration(cfg.SessionTTLHours) * time.Hour,
		Objects:       objects,
		Extractor:     extractor,
		Notifier:      notifyQueue,
		Generator:     generator,
		Logger:        logger,
	}
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, using in-memory store")
		appCfg.Store = store.NewMemoryStore()
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		SecureCookies:  cfg.SecureCookies,
		TrustedProxies: cfg.TrustedProxies,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := buildSender(cfg, logger)
	concurrency := cfg.NotifyConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	notifyQueue.Start(ctx, concurrency, func(ctx context.Context, job queue.JobStatus) error {
		n := job.Notification
		return sender.SendStatusEmail(ctx, n.Email, n.CandidateName, n.FormTitle, domain.ApplicationStatus(n.Status))
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("hireflow server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

func buildGenerator(cfg config.FileConfig, logger *slog.Logger) ai.TextGenerator {
	switch cfg.AIProvider {
	case "gemini":
		client, err := ai.NewGeminiClient(cfg.AIAPIKey)
		if err != nil {
			logger.Warn("gemini disabled", "reason", err)
			return nil
		}
		return ai.NewGeminiGenerator(client, orDefault(cfg.AIModel, "gemini-2.0-flash"))
	case "openai":
		if cfg.AIAPIKey == "" && cfg.AIBaseURL == "" {
			logger.Warn("openai provider configured without api key or base url, AI disabled")
			return nil
		}
		baseURL := orDefault(cfg.AIBaseURL, "https://api.openai.com/v1")
		return ai.NewOpenAICompatGenerator(baseURL, cfg.AIAPIKey, orDefault(cfg.AIModel, "gpt-4o-mini"))
	default:
		logger.Warn("no AI provider configured, suggestion and scoring run degraded")
		return nil
	}
}

func buildSender(cfg config.FileConfig, logger *slog.Logger) mail.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("smtp not configured, status emails are logged only")
		return mail.NewLogSender(logger)
	}
	sender, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		logger.Warn("smtp sender invalid, status emails are logged only", "reason", err)
		return mail.NewLogSender(logger)
	}
	return sender
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
