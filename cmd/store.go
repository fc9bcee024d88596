package cmd

import (
	"context"
	"time"

	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/events"
	"github.com/Ramsey-B/storedb/pkg/seeder"
	"github.com/Ramsey-B/storedb/pkg/store"
)

func openStore(ctx context.Context, create bool) (*store.Store, error) {
	var opts []store.Option
	if len(cfg.KafkaBrokers) > 0 {
		opts = append(opts, store.WithPublisher(events.NewProducer(producerConfig(), logger)))
	}

	var migrations *database.MigrationConfig
	if cfg.MigrationFolderPath != "" {
		migrations = &database.MigrationConfig{MigrationFolderPath: cfg.Resolve(cfg.MigrationFolderPath)}
	}

	return store.New(ctx, store.Config{
		DatabasePath:  cfg.DatabaseFile(),
		Create:        create || cfg.Create,
		MaxOpenConns:  cfg.MaxOpenConns,
		Migrations:    migrations,
		IntakeDir:     cfg.Intake(),
		ArchiveDir:    cfg.Archive(),
		IntakePattern: cfg.IntakePattern,
		Reference: seeder.Sources{
			Products: cfg.ReferenceFile(cfg.ProductsFile),
			States:   cfg.ReferenceFile(cfg.StatesFile),
			Zips:     cfg.ReferenceFile(cfg.ZipsFile),
		},
	}, logger, opts...)
}

func producerConfig() events.ProducerConfig {
	return events.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaTopic,
		BatchTimeout: 10 * time.Millisecond,
		Compression:  cfg.KafkaCompression,
	}
}

type storeCloser interface {
	Close(ctx context.Context) error
}

func closeStore(ctx context.Context, s storeCloser) {
	if err := s.Close(ctx); err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to close store")
	}
}
