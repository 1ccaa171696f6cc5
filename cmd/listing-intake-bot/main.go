package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"listing-intake-bot/internal/app"
	"listing-intake-bot/internal/bot"
	"listing-intake-bot/internal/config"
	"listing-intake-bot/internal/events"
	httpapi "listing-intake-bot/internal/http"
	"listing-intake-bot/internal/observability"
	"listing-intake-bot/internal/observability/metrics"
	"listing-intake-bot/internal/service/stt"
	"listing-intake-bot/internal/service/stt/provider"
	"listing-intake-bot/internal/service/voice"
	"listing-intake-bot/internal/sheet"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	logger := application.Logger

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration, refusing to start")
	}

	m := metrics.DefaultMetrics

	// Create Kafka publisher with separate topics for sheets and transcripts
	publisher := events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicSheets:      cfg.Kafka.TopicSheets,
		TopicTranscripts: cfg.Kafka.TopicTranscripts,
		Principal:        cfg.Kafka.Principal,
		Metrics:          m,
	})
	defer publisher.Close()

	notifier := events.NewSheetNotifier(publisher, m)
	store := sheet.NewStore(notifier)
	notifier.Active = store.Len

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transcriber := newTranscriber(ctx, application, m)
	if c, ok := transcriber.(io.Closer); ok {
		defer c.Close()
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info().Str("username", api.Self.UserName).Msg("Authorised on Telegram")

	pipeline := voice.New(voice.Config{
		TempDir:  cfg.Voice.TempDir,
		Language: cfg.STT.LanguageCode,
		Limits: voice.Limits{
			MaxAudioBytes: cfg.Voice.MaxAudioBytes,
			MaxDuration:   cfg.Voice.MaxDuration,
		},
		Metrics: m,
	}, bot.NewFileDownloader(api, nil), transcriber)
	pipeline.SetPublisher(publisher)

	router := bot.NewRouter(api, store, pipeline, m)
	if err := router.RegisterCommands(); err != nil {
		logger.Warn().Err(err).Msg("Failed to register command menu")
	}

	obsServer := observability.NewServer(cfg.Observability.MetricsAddr, httpapi.NewRouter(application, store, nil))
	obsServer.Start()

	grpcServer, healthServer, err := startGRPC(application, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start gRPC server")
	}

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Application start failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)

	done := make(chan struct{})
	go func() {
		router.Run(ctx, updates)
		close(done)
	}()
	logger.Info().Msg("Listening for Telegram updates")

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	application.Shutdown()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	api.StopReceivingUpdates()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn().Msg("Timed out waiting for in-flight updates")
	}

	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Observability server shutdown failed")
	}
}

// newTranscriber returns nil when no provider can be built; voice messages
// then fail with a not-configured reply instead of stopping the bot.
func newTranscriber(ctx context.Context, application *app.Application, m *metrics.Metrics) stt.Transcriber {
	cfg := application.Cfg.STT
	logger := application.Logger

	t, err := provider.New(ctx, cfg)
	if err == nil {
		logger.Info().Str("sttProvider", t.Name()).Msg("Speech-to-text ready")
		return t
	}

	m.RecordSTTError(cfg.Provider, "init")
	if errors.Is(err, provider.ErrNotConfigured) {
		logger.Warn().Err(err).Str("sttProvider", cfg.Provider).Msg("Speech-to-text not configured, voice messages will be declined")
	} else {
		logger.Error().Err(err).Str("sttProvider", cfg.Provider).Msg("Speech-to-text unavailable, voice messages will be declined")
	}
	return nil
}

func startGRPC(application *app.Application, m *metrics.Metrics) (*grpc.Server, *health.Server, error) {
	port := application.Cfg.Service.GRPCPort
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on :%s: %w", port, err)
	}

	server := grpc.NewServer(
		grpc.UnaryInterceptor(observability.UnaryServerInterceptor(m)),
		grpc.StreamInterceptor(observability.StreamServerInterceptor(m)),
	)

	// Register gRPC health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(server)

	go func() {
		application.Logger.Info().Str("port", port).Msg("gRPC health server started")
		if err := server.Serve(lis); err != nil {
			application.Logger.Error().Err(err).Msg("gRPC serve failed")
		}
	}()

	return server, healthServer, nil
}
