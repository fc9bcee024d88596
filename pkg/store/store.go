// Package store assembles a sales store: the database file, its schema, reference data and the
// batch ingestor.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/events"
	"github.com/Ramsey-B/storedb/pkg/ingest"
	"github.com/Ramsey-B/storedb/pkg/intake"
	"github.com/Ramsey-B/storedb/pkg/metrics"
	"github.com/Ramsey-B/storedb/pkg/schema"
	"github.com/Ramsey-B/storedb/pkg/seeder"
	"github.com/Ramsey-B/storedb/pkg/startup"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

// ErrStoreNotFound is returned by New when part of the database path is missing and creation
// was not requested. It matches os.ErrNotExist.
var ErrStoreNotFound = fmt.Errorf("store not found: %w", os.ErrNotExist)

type Config struct {
	DatabasePath string
	// Create builds any missing directory, the database, its schema and the reference data.
	Create       bool
	MaxOpenConns int
	Migrations   *database.MigrationConfig

	IntakeDir     string
	ArchiveDir    string
	IntakePattern string

	// Reference is only read when the database is created.
	Reference seeder.Sources
}

type Store struct {
	cfg       Config
	logger    ectologger.Logger
	startup   *startup.Startup
	db        database.DB
	gateway   *database.Gateway
	intake    *intake.Manager
	ingestor  *ingest.Ingestor
	metrics   *metrics.Registry
	publisher events.Publisher
	emitter   *events.Emitter
	created   bool
	seeded    *seeder.Result
}

type Option func(*Store)

func WithMetrics(m *metrics.Registry) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithPublisher sends a FileIngested event for every archived file.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// New opens the store at cfg.DatabasePath. Every component of the path is checked before any
// work starts; a missing one fails with ErrStoreNotFound unless cfg.Create is set. Schema and
// reference data are only provisioned for a database that did not exist yet.
func New(ctx context.Context, cfg Config, logger ectologger.Logger, opts ...Option) (*Store, error) {
	ctx, span := tracing.StartSpan(ctx, "store.New")
	defer span.End()

	s := &Store{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger),
		intake:  intake.NewManager(cfg.IntakeDir, cfg.ArchiveDir, cfg.IntakePattern),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}

	existed, err := checkPath(cfg.DatabasePath, cfg.Create)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("store %s is not available", cfg.DatabasePath)
		return nil, err
	}
	s.created = !existed

	s.startup.AddDependency(startup.Dependency{
		Name:      "database",
		StartFunc: s.openDatabase,
		StopFunc: func(ctx context.Context) error {
			return s.gateway.Close()
		},
	})
	s.startup.AddDependency(startup.Dependency{
		Name:      "schema",
		Requires:  []string{"database"},
		StartFunc: s.createSchema,
	})
	s.startup.AddDependency(startup.Dependency{
		Name:      "reference-data",
		Requires:  []string{"schema"},
		StartFunc: s.seedReferenceData,
	})
	s.startup.AddDependency(startup.Dependency{
		Name: "events",
		StartFunc: func(ctx context.Context) error {
			s.emitter = events.NewEmitter(s.publisher, logger)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return s.emitter.Close()
		},
	})

	if err := s.startup.Start(ctx); err != nil {
		if stopErr := s.startup.Stop(ctx); stopErr != nil {
			logger.WithContext(ctx).WithError(stopErr).Warn("failed to release store after a failed start")
		}
		return nil, err
	}

	s.ingestor = ingest.NewIngestor(s.gateway, s.intake, logger,
		ingest.WithMetrics(s.metrics),
		ingest.WithEmitter(s.emitter),
	)

	return s, nil
}

func (s *Store) openDatabase(ctx context.Context) error {
	db, err := database.Open(ctx, database.Config{
		Path:         s.cfg.DatabasePath,
		MaxOpenConns: s.cfg.MaxOpenConns,
	}, s.logger)
	if err != nil {
		return err
	}
	s.db = db
	s.gateway = database.NewGateway(db, s.logger)
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	if !s.created {
		return nil
	}
	s.logger.WithContext(ctx).Infof("creating database %s", s.cfg.DatabasePath)
	return schema.NewProvisioner(s.db, s.cfg.Migrations, s.logger).CreateSchema(ctx)
}

func (s *Store) seedReferenceData(ctx context.Context) error {
	if !s.created {
		return nil
	}
	result, err := seeder.NewSeeder(s.gateway, s.logger).SeedReferenceData(ctx, s.cfg.Reference)
	s.seeded = result
	return err
}

// checkPath walks path one component at a time. It reports whether the whole path already
// existed; with create set, missing directories are made and the file itself is left for the
// driver to create.
func checkPath(path string, create bool) (bool, error) {
	if path == "" {
		return false, errors.New("store path is empty")
	}

	var parts []string
	for p := filepath.Clean(path); ; {
		parts = append([]string{p}, parts...)
		parent := filepath.Dir(p)
		if parent == p || parent == "." {
			break
		}
		p = parent
	}

	existed := true
	for i, part := range parts {
		_, err := os.Stat(part)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}

		existed = false
		if !create {
			return false, fmt.Errorf("%w: %s does not exist", ErrStoreNotFound, part)
		}
		if i < len(parts)-1 {
			if err := os.Mkdir(part, 0o755); err != nil {
				return false, fmt.Errorf("failed to create %s: %w", part, err)
			}
		}
	}

	return existed, nil
}

// Created reports whether New provisioned a new database.
func (s *Store) Created() bool {
	return s.created
}

// Seeded returns the reference rows loaded by New, or nil when the database already existed.
func (s *Store) Seeded() *seeder.Result {
	return s.seeded
}

func (s *Store) Gateway() *database.Gateway {
	return s.gateway
}

func (s *Store) Metrics() *metrics.Registry {
	return s.metrics
}

// Ingest loads every file waiting in the intake directory.
func (s *Store) Ingest(ctx context.Context) (*ingest.Summary, error) {
	if err := s.intake.EnsureDirectories(); err != nil {
		return nil, err
	}
	return s.ingestor.Run(ctx)
}

type TableCount struct {
	Table string
	Rows  int64
}

// Stats counts the rows of every table, parents first.
func (s *Store) Stats(ctx context.Context) ([]TableCount, error) {
	ctx, span := tracing.StartSpan(ctx, "Store.Stats")
	defer span.End()

	counts := make([]TableCount, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		n, err := s.gateway.Count(ctx, table)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

// Close stops the event publisher and closes the database.
func (s *Store) Close(ctx context.Context) error {
	return s.startup.Stop(ctx)
}
