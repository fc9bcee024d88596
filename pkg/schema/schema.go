package schema

import (
	"context"
	"embed"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Table names of the store schema.
const (
	ProductsTable       = "products"
	StatesTable         = "states"
	ZipsTable           = "zips"
	CustomersTable      = "customers"
	InvoicesTable       = "invoices"
	InvoiceDetailsTable = "invoice_details"
)

// Tables lists every table in parent-before-child order.
var Tables = []string{
	ProductsTable,
	StatesTable,
	ZipsTable,
	CustomersTable,
	InvoicesTable,
	InvoiceDetailsTable,
}

// Provisioner creates the six store tables.
type Provisioner struct {
	db         database.DB
	migrations *database.MigrationService
	logger     ectologger.Logger
}

func NewProvisioner(db database.DB, cfg *database.MigrationConfig, logger ectologger.Logger) *Provisioner {
	return &Provisioner{
		db:         db,
		migrations: database.NewMigrationService(logger, cfg),
		logger:     logger,
	}
}

// CreateSchema applies the store migrations. Running it against an already provisioned database
// is a no-op.
func (p *Provisioner) CreateSchema(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "Provisioner.CreateSchema")
	defer span.End()

	p.logger.WithContext(ctx).Infof("creating schema in %s", p.db.Path())
	return p.migrations.Migrate(p.db, migrations, migrationsDir)
}
