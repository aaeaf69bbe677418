package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/network/netpoll"
	"github.com/spf13/cobra"

	_ "github.com/nobita2041/ai-chatbot/docs" // swagger docs
	"github.com/nobita2041/ai-chatbot/internal/config"
	"github.com/nobita2041/ai-chatbot/internal/handler"
	"github.com/nobita2041/ai-chatbot/internal/infrastructure/llm"
	"github.com/nobita2041/ai-chatbot/internal/ratelimit"
	"github.com/nobita2041/ai-chatbot/internal/router"
	"github.com/nobita2041/ai-chatbot/internal/usecase"
	"github.com/nobita2041/ai-chatbot/internal/validation"
	"github.com/nobita2041/ai-chatbot/pkg/logger"
)

//	@title			AI Chatbot Relay
//	@version		0.1.0
//	@description	Streaming chat relay in front of an OpenAI-compatible completion service.

//	@host		localhost:8080
//	@BasePath	/api

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "chatbot-server",
	Short: "Streaming chat relay server",
	Long: `chatbot-server validates chat requests, applies a per-client rate limit and
streams the reply of an OpenAI-compatible model back as plain text.`,
	Version: version,
	Run:     runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize logger
	logCloser, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logCloser.Close()

	slog.Info("chatbot server starting...",
		"version", version,
		"env", cfg.Env,
		"config", cfgFile,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Rate limit store
	var store ratelimit.Store
	switch cfg.RateLimit.Store {
	case "redis":
		rc := cfg.RateLimit.Redis
		client, err := ratelimit.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", rc.Addr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = ratelimit.NewRedisStore(client, rc.KeyPrefix)
		slog.Info("rate limit store: redis", "addr", rc.Addr)
	default:
		mem := ratelimit.NewMemoryStore()
		go mem.RunJanitor(ctx, cfg.RateLimit.Window)
		store = mem
		slog.Info("rate limit store: memory")
	}

	limiter, err := ratelimit.NewLimiter(store, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	if err != nil {
		slog.Error("failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	// Upstream model
	chatModel, err := llm.NewChatModel(ctx, cfg.Upstream)
	if err != nil {
		slog.Error("failed to initialize upstream model", "error", err)
		os.Exit(1)
	}

	chatUsecase := usecase.NewChatUsecase(
		llm.NewCompletionModel(chatModel, slog.Default()),
		llm.NewAgentFactory(chatModel, cfg.Upstream.DefaultPrompt, slog.Default()),
		validation.New(validation.LimitsFromConfig(cfg.Limits)),
		slog.Default(),
	)
	chatHandler := handler.NewChatHandler(chatUsecase, slog.Default())
	healthHandler := handler.NewHealthHandler(llm.NewProber(cfg.Upstream))

	slog.Info("handlers initialized", "model", cfg.Upstream.Model)

	h := server.Default(
		server.WithHostPorts(cfg.GetServerAddr()),
		server.WithReadTimeout(cfg.GetReadTimeout()),
		server.WithWriteTimeout(cfg.GetWriteTimeout()),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodySize*1024*1024),
		server.WithTransport(netpoll.NewTransporter),
	)

	router.Setup(h,
		router.Options{
			AllowOrigin:   cfg.AppURL,
			EnableSwagger: cfg.Server.Mode == "debug",
		},
		limiter,
		chatHandler,
		healthHandler,
	)

	// Graceful shutdown
	go func() {
		if err := h.Run(); err != nil {
			slog.Error("server run failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started successfully",
		"address", cfg.GetServerAddr(),
		"mode", cfg.Server.Mode,
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
