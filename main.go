// Command tradecore-engine runs the matching engine's event loop against a
// Redis-backed message bus, reading its market and connection configuration
// from a YAML file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"tradecore/bus"
	"tradecore/config"
	"tradecore/engine"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the engine's YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	log := newLogger(cfg.Logging)

	opts, err := redis.ParseURL(cfg.Bus.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	client := redis.NewClient(opts)
	defer client.Close()
	blockingClient := redis.NewClient(opts)
	defer blockingClient.Close()

	redisBus := bus.NewRedisBus(client, blockingClient, cfg.Bus.RequestQueue, cfg.Bus.StorageQueue)
	eng := engine.New(cfg, redisBus, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error {
		return eng.Run(ctx)
	})

	log.Info().Strs("markets", marketSymbols(cfg)).Msg("engine started")

	<-t.Dying()
	if err := t.Err(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("engine loop exited with error")
	}
	log.Info().Msg("engine shut down")
}

func marketSymbols(cfg *config.Config) []string {
	symbols := make([]string, len(cfg.Markets))
	for i, m := range cfg.Markets {
		symbols[i] = m.Symbol
	}
	return symbols
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	writer := os.Stderr
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339})
	}
	return logger
}
