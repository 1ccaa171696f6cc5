package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"listing-intake-bot/internal/config"
	"listing-intake-bot/internal/observability/logging"
	"listing-intake-bot/internal/service/stt"
	"listing-intake-bot/internal/service/stt/provider"
)

func main() {
	audioFile := flag.String("audio", "", "Path to an audio file (Telegram voice notes are Ogg/Opus)")
	providerName := flag.String("provider", "", "STT provider override (whisper, google, mock)")
	language := flag.String("language", "", "Language hint override")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Format = "console"
	logCfg.Service = "transcribe"
	logging.Init(logCfg)

	if *audioFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *providerName != "" {
		cfg.STT.SelectProvider(*providerName)
	}
	if *language != "" {
		cfg.STT.LanguageCode = *language
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	t, err := provider.New(ctx, cfg.STT)
	if err != nil {
		log.Fatal().Err(err).Str("sttProvider", cfg.STT.Provider).Msg("Failed to create transcriber")
	}
	if c, ok := t.(io.Closer); ok {
		defer c.Close()
	}

	start := time.Now()
	text, err := t.Transcribe(ctx, *audioFile, stt.Options{Language: cfg.STT.LanguageCode})
	if err != nil {
		log.Fatal().Err(err).Str("audio", *audioFile).Msg("Transcription failed")
	}

	log.Info().
		Str("sttProvider", t.Name()).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("Transcription complete")

	fmt.Println(text)
}
