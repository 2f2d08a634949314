package main

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/notify"
	"betstream/repositories"
	"betstream/runtime/workers"
	"betstream/services"
	"betstream/transport"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the daemon lifecycle, and centralizes
// error reporting, so that every defer executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Transport: in-memory hub by default, Redis when configured
	var channelTransport contract.Transport
	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer func() { _ = rdb.Close() }()
		channelTransport = transport.NewRedisTransport(log, rdb)
		log.Info("Using Redis transport", "addr", config.RedisAddr)
	} else {
		channelTransport = transport.NewHub(log, config.BufferSize)
		log.Info("Using in-memory hub transport")
	}

	// 4. Repositories & service
	conversations := services.NewConversationService(
		log,
		channelTransport,
		repositories.NewMessageRepository(db, log),
		repositories.NewProfileRepository(db),
		repositories.NewTypingRepository(db),
		repositories.NewNotificationRepository(db),
		notify.NewLogAlerter(log),
		config.TypingExpiry,
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Open a conversation session
	session, err := conversations.Open(ctx, domain.ChannelID(config.Channel), config.UserID)
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	defer session.Close()

	if err = session.Stream.WaitLoaded(ctx); err != nil {
		return err
	}
	log.Info("Conversation ready",
		"channel", config.Channel,
		"messages", len(session.Stream.Messages()),
		"online", len(session.Presence.Online()),
	)

	// 7. Supervised background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewHealthWorker(log, config.HealthInterval))
	go sup.Run(ctx)

	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	sup.Stop()
	log.Info("Program stopped cleanly")
	return nil
}
