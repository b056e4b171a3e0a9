// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/project-3-sem/backend/analysis"
	"github.com/project-3-sem/backend/clips"
	"github.com/project-3-sem/backend/config"
	"github.com/project-3-sem/backend/docs"
	"github.com/project-3-sem/backend/middleware"
	"github.com/project-3-sem/backend/pronunciation"
	"github.com/project-3-sem/backend/retention"
	"github.com/project-3-sem/backend/speech"
	"github.com/project-3-sem/backend/speech/vosk"
	"github.com/project-3-sem/backend/speech/whisper"
	"github.com/project-3-sem/backend/texts"
	"github.com/project-3-sem/backend/tts"
)

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	envFile     = flag.String("env", ".env", "Path to an optional dotenv file")
	cleanup     = flag.Bool("cleanup", false, "Delete aged task data and exit")
	cleanupDays = flag.Int("days", 0, "Age in days for -cleanup (default: retention.max_age_days)")
)

// @title                      Pronunciation Check API
// @version                    1.0
// @description                Checks a learner's recording against a reference text and serves spoken corrections.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("failed to load environment file", "err", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if *cleanup {
		maxAge := cfg.RetentionMaxAge()
		if *cleanupDays > 0 {
			maxAge = time.Duration(*cleanupDays) * 24 * time.Hour
		}
		sweeper := retention.NewSweeper(maxAge, logger, cfg.TasksRoot(), cfg.TmpRoot())
		deleted, err := sweeper.Sweep(context.Background())
		if err != nil {
			logger.Error("cleanup failed", "err", err)
			os.Exit(1)
		}
		fmt.Printf("Cleanup completed. Deleted %d directories.\n", deleted)
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout := analysis.Layout{TasksRoot: cfg.TasksRoot(), TmpRoot: cfg.TmpRoot()}

	store, closeStore, err := newAnalysisStore(cfg, layout)
	if err != nil {
		return err
	}
	defer closeStore()

	models := speech.NewModelCache(newEngine(cfg, logger))
	defer models.Close()
	transcriber := speech.NewTranscriber(models, logger.With("component", "speech"))

	synth, err := newSynthesizer(cfg)
	if err != nil {
		return err
	}
	if synth == nil {
		logger.Info("text-to-speech disabled: provider credentials not configured", "provider", cfg.TTS.Provider)
	}
	generator := tts.NewGenerator(synth, tts.Options{
		MaxClips: cfg.TTS.MaxClips,
		Timeout:  cfg.TTSTimeout(),
		Verify:   *cfg.TTS.VerifyClips,
	}, logger.With("component", "tts"))

	pipeline := pronunciation.NewService(layout, store, transcriber, generator, pronunciation.Options{
		ModelPath:      cfg.Recognizer.ModelPath,
		KeepUpload:     cfg.Storage.KeepUploadedAudio,
		DedupeInflight: cfg.Storage.DedupeInflight,
	}, logger.With("component", "pipeline"))

	var resolver texts.Resolver
	if cfg.Texts.Postgres.Enabled {
		pg, err := texts.NewPostgresResolver(texts.PostgresConfig{
			Host:     cfg.Texts.Postgres.Host,
			Port:     cfg.Texts.Postgres.Port,
			User:     cfg.Texts.Postgres.User,
			Password: cfg.Texts.Postgres.Password,
			DBName:   cfg.Texts.Postgres.DBName,
			Query:    cfg.Texts.Postgres.Query,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize text resolver: %w", err)
		}
		defer pg.Close()
		resolver = pg
	}

	service := NewPronunciationService(cfg, pipeline, clips.NewServer(layout), resolver, logger)

	authMiddleware, err := middleware.NewAuthMiddleware(cfg, logger.With("component", "auth"))
	if err != nil {
		return fmt.Errorf("failed to initialize auth middleware: %w", err)
	}
	defer authMiddleware.Close()

	if cfg.Retention.Enabled {
		sweeper := retention.NewSweeper(cfg.RetentionMaxAge(), logger.With("component", "retention"), cfg.TasksRoot(), cfg.TmpRoot())
		if err := sweeper.Schedule(ctx, cfg.Retention.Schedule); err != nil {
			return err
		}
	}

	r := setupRouter(cfg, service, authMiddleware.Handler(), logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "engine", cfg.Recognizer.Engine, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(cfg *config.Config, service *PronunciationService, auth gin.HandlerFunc, logger *slog.Logger) *gin.Engine {
	docs.SwaggerInfo.BasePath = cfg.API.BasePath
	if cfg.API.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.API.SwaggerHost
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.MaxMultipartMemory = 8 << 20

	api := r.Group(cfg.API.BasePath)
	if len(cfg.API.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.API.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		api.Use(cors.New(corsCfg))
	}

	api.POST("/audio/process", auth, service.ProcessHandler)
	api.GET("/audio/corrections/:task_id/:filename", service.CorrectionHandler)

	r.NoRoute(notFound(cfg.API.BasePath + "/audio/corrections/"))

	// These endpoints remain public
	r.GET("/health", healthCheck)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	return r
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newEngine(cfg *config.Config, logger *slog.Logger) speech.Engine {
	if cfg.Recognizer.Engine == "whisper" {
		return whisper.New(cfg.Recognizer.Language, logger.With("component", "whisper"))
	}
	return vosk.New(-1)
}

// newSynthesizer returns nil without error when credentials are missing, so
// the server can run with synthesis disabled.
func newSynthesizer(cfg *config.Config) (tts.Synthesizer, error) {
	var (
		synth tts.Synthesizer
		err   error
	)
	switch cfg.TTS.Provider {
	case "openai":
		synth, err = tts.NewOpenAI(tts.OpenAIConfig{
			APIKey:  cfg.TTS.APIKey,
			BaseURL: cfg.TTS.BaseURL,
			Model:   cfg.TTS.Model,
			Voice:   cfg.TTS.Voice,
			Speed:   cfg.TTS.Speed,
		})
	default:
		synth, err = tts.NewYandex(tts.YandexConfig{
			APIKey:   cfg.TTS.APIKey,
			FolderID: cfg.TTS.FolderID,
			Voice:    cfg.TTS.Voice,
			Speed:    cfg.TTS.Speed,
			Endpoint: cfg.TTS.BaseURL,
		})
	}
	if errors.Is(err, tts.ErrNotConfigured) {
		return nil, nil
	}
	return synth, err
}

func newAnalysisStore(cfg *config.Config, layout analysis.Layout) (analysis.Store, func(), error) {
	if cfg.Storage.Backend != "redis" {
		return analysis.NewFileStore(layout), func() {}, nil
	}

	rc := cfg.Storage.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", rc.Host, rc.Port),
		Password: rc.Password,
		DB:       rc.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}

	store := analysis.NewRedisStore(client, time.Duration(rc.KeyTTL)*time.Second)
	return store, func() { client.Close() }, nil
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// @Summary     Health check endpoint
// @Description Get API health status
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Router      /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(200, HealthResponse{Status: "ok"})
}

// notFound answers unmatched routes with an ErrorResponse. Extra segments
// under the clip prefix are malformed clip names rather than missing pages.
func notFound(clipPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, clipPrefix) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name", Code: "invalid_file_name"})
			return
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"})
	}
}
