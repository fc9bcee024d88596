package invoice

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/Ramsey-B/storedb/pkg/reconcile"
	"github.com/Ramsey-B/storedb/pkg/schema"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

type Repository struct {
	gateway    *database.Gateway
	reconciler *reconcile.Reconciler
	logger     ectologger.Logger
}

func NewRepository(gateway *database.Gateway, logger ectologger.Logger) *Repository {
	return &Repository{
		gateway:    gateway,
		reconciler: reconcile.NewReconciler(gateway, logger),
		logger:     logger,
	}
}

// Key is the natural key of an invoice: the customer plus day, month, year and time.
func Key(inv models.Invoice) reconcile.NaturalKey {
	return reconcile.NaturalKey{
		Table:    schema.InvoicesTable,
		IDColumn: "invoice_id",
		Columns:  []string{"cust_id", "day", "month", "year", "time"},
		Values:   []any{inv.CustID, inv.Day, inv.Month, inv.Year, inv.Time},
	}
}

// Reconcile returns the id of the invoice matching inv, creating and committing it if none exists.
func (r *Repository) Reconcile(ctx context.Context, inv models.Invoice) (reconcile.Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.Reconcile")
	defer span.End()

	return r.reconciler.LookupOrCreate(ctx, Key(inv))
}

func (r *Repository) ListByCustomer(ctx context.Context, custID int64) ([]models.Invoice, error) {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.ListByCustomer")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("invoice_id", "cust_id", "day", "month", "year", "time")
	sb.From(schema.InvoicesTable)
	sb.Where(sb.Equal("cust_id", custID))
	sb.OrderBy("invoice_id")

	query, args := sb.Build()
	var invoices []models.Invoice
	if err := r.gateway.Select(ctx, &invoices, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list invoices")
		return nil, fmt.Errorf("failed to list invoices for customer %d: %w", custID, err)
	}

	return invoices, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.InvoicesTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}
