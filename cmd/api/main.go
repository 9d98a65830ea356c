package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/events"
	"studio/internal/genai"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/imaging"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/scheduler"
	"studio/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open state store")
	}
	defer kv.Close()

	creds := credentials.NewStore(kv)
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" {
		if stored, err := creds.GeminiAPIKey(ctx); err == nil {
			apiKey = stored
		} else {
			logger.Warn().Err(err).Msg("failed to read stored gemini key")
		}
	}

	client := genai.NewClient(genai.Options{
		APIKey:    apiKey,
		BaseURL:   cfg.GeminiBaseURL,
		FastModel: cfg.GeminiFastModel,
		ProModel:  cfg.GeminiProModel,
		Logger:    logger,
	})
	pre := imaging.NewPreprocessor(imaging.Options{
		MaxDimension:   cfg.MaxImageDimension,
		JPEGQuality:    cfg.JPEGQuality,
		SkipBelowBytes: cfg.PreprocessSkipBytes,
		Logger:         logger,
	})
	pipeline := genai.NewPipeline(pre, client)

	queue := scheduler.New(pipeline, scheduler.Config{
		MaxConcurrent:   cfg.MaxConcurrentJobs,
		DispatchTimeout: cfg.DispatchTimeout,
	}, logger)
	go queue.Run(ctx)

	mirror := store.NewMirror(kv, queue, cfg.MirrorDebounce, logger)
	if err := mirror.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore persisted gallery")
	}
	go mirror.Run(ctx)

	hub := events.NewHub(queue, logger, corsOriginCheck(cfg.CORSOrigins))
	go hub.Run(ctx)

	app := handlers.NewApp(queue, client, creds, cfg.MaxSourceImages, logger)
	router := httpapi.NewRouter(cfg, app, hub)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancel()
	logger.Info().Msg("server stopped")
}

func corsOriginCheck(allowed []string) func(*http.Request) bool {
	allow := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allow[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allow[origin]
		return ok
	}
}
