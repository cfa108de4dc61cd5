package main

import (
	"context"
	"fmt"
	"messenger/auth"
	"messenger/gateway"
	"messenger/internal"
	"messenger/moderation"
	"messenger/observability"
	"messenger/realtime"
	"messenger/repositories"
	"messenger/services"
	"messenger/storage"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/nats-io/nats.go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the daemon lifecycle, and
// centralizes error reporting, so 'defer' cleanup (database close, NATS
// drain) always executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Databases (BadgerDB rows, Bluge name index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Realtime transport
	nc, err := nats.Connect(config.NatsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", config.NatsURL, err)
	}
	defer nc.Close()

	// 4. Stores, publisher, service
	messages := repositories.NewMessageRepository(db, log, config.PageSize)
	favorites := repositories.NewFavoriteRepository(db, log)
	contacts := repositories.NewContactIndex(db, log, config.PageSize)
	profiles := repositories.NewProfileRepository(db, blugeWriter, log)
	publisher := realtime.NewNatsPublisher(nc, log)
	blobs := storage.NewDiskStore(config.AttachmentsDir, config.AttachmentsBaseURL, log)
	policy := storage.NewUploadPolicy(config.MaxUploadMB,
		internal.SplitList(config.AllowedImages),
		internal.SplitList(config.AllowedFiles))
	moderator, err := moderation.NewModerator(internal.SplitList(config.CensoredWords), '*', log)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	service := services.NewMessengerService(
		messages, favorites, contacts, profiles,
		publisher, blobs, policy, moderator, log,
	)
	authorizer := auth.NewChannelAuthorizer([]byte(config.GrantSecret), config.GrantTTL)

	// 5. RPC surface
	rpc := gateway.NewGateway(service, authorizer, nc, log)
	if err := rpc.Subscribe(); err != nil {
		return fmt.Errorf("gateway subscribe failed: %w", err)
	}
	defer rpc.Drain()

	// 6. Background monitoring & shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go observability.NewResourceMonitor(log, config.MonitorInterval).Run(ctx)

	log.Info("Messenger ready", "nats", config.NatsURL)
	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	return nil
}
