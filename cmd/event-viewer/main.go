// Event viewer: follows the bot's Kafka topics and shows them in a browser.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"listing-intake-bot/internal/config"
	"listing-intake-bot/internal/observability/logging"
	"listing-intake-bot/internal/viewer"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", ":8081", "HTTP listen address")
	brokers := flag.String("brokers", strings.Join(cfg.Kafka.Brokers, ","), "Kafka brokers (comma-separated)")
	topicSheets := flag.String("topic-sheets", cfg.Kafka.TopicSheets, "Sheet events topic")
	topicTranscripts := flag.String("topic-transcripts", cfg.Kafka.TopicTranscripts, "Transcript events topic")
	lookback := flag.Duration("lookback", time.Hour, "How far back to replay on start")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Observability.LogLevel
	logCfg.Format = "console"
	logCfg.Service = "event-viewer"
	logging.Init(logCfg)

	if *brokers == "" {
		log.Fatal().Msg("No Kafka brokers: set KAFKA_BROKERS or -brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := viewer.NewHub()
	go hub.Run(ctx)

	brokerList := strings.Split(*brokers, ",")
	for _, topic := range []string{*topicSheets, *topicTranscripts} {
		go viewer.Consume(ctx, hub, viewer.NewReader(ctx, brokerList, topic, *lookback))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", hub.ServeWS)
	r.Handle("/*", viewer.StaticHandler())

	server := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", *addr).
		Strs("brokers", brokerList).
		Strs("topics", []string{*topicSheets, *topicTranscripts}).
		Msg("Event viewer starting")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
