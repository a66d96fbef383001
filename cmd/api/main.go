package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/ai"
	"github.com/Deverdnd/neverdnd-call-handler/internal/appointment"
	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/calls"
	"github.com/Deverdnd/neverdnd-call-handler/internal/config"
	"github.com/Deverdnd/neverdnd-call-handler/internal/notify"
	"github.com/Deverdnd/neverdnd-call-handler/internal/orchestrator"
	"github.com/Deverdnd/neverdnd-call-handler/internal/rateguard"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"
	"github.com/Deverdnd/neverdnd-call-handler/internal/telephony"
	"github.com/Deverdnd/neverdnd-call-handler/internal/usage"
	"github.com/Deverdnd/neverdnd-call-handler/pkg/logger"
	"github.com/Deverdnd/neverdnd-call-handler/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best effort; real deployments inject env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var guard rateguard.Guard
	switch cfg.Rate.Backend {
	case config.RateBackendRedis:
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		guard = rateguard.NewRedisGuard(rdb, cfg.Rate.Window, cfg.Rate.Quota)
	default:
		guard = rateguard.NewMemoryGuard(cfg.Rate.Window, cfg.Rate.Quota)
	}

	var chat ai.ChatClient
	if cfg.OpenAI.APIKey != "" {
		chat = ai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		log.Warn("OPENAI_API_KEY not set, responses use keyword fallback only")
	}

	var notifier notify.Sender
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		notifier = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	} else {
		log.Warn("Twilio credentials not set, owner notifications disabled")
	}

	orch := &orchestrator.Orchestrator{
		Guard:         guard,
		Businesses:    business.NewCachedStore(business.NewPostgresRepo(db), business.DefaultCacheTTL),
		Sessions:      session.NewStore(session.DefaultGrace, session.DefaultRetention),
		Generator:     ai.NewGenerator(chat, log),
		Summarizer:    ai.NewSummarizer(chat, log),
		Booker:        appointment.NewPostgresBooker(db),
		Calls:         calls.NewPostgresRepo(db),
		Notifier:      notifier,
		Usage:         usage.NewService(usage.NewPostgresRepo(db)),
		ForceConverse: cfg.App.ForceConverse,
		Log:           log,
	}

	webhooks := telephony.VoiceWebhookHandler{
		Orchestrator: orch,
		BaseURL:      cfg.App.PublicBaseURL,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, db, webhooks)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("call handler listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
