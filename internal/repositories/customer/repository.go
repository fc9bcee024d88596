package customer

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

// Key is the natural key of a customer: an exact match on first, last, addr and zip.
func Key(c models.Customer) reconcile.NaturalKey {
	return reconcile.NaturalKey{
		Table:    schema.CustomersTable,
		IDColumn: "cust_id",
		Columns:  []string{"first", "last", "addr", "zip"},
		Values:   []any{c.First, c.Last, c.Addr, c.Zip},
	}
}

// Reconcile returns the id of the customer matching c, creating and committing it if none exists.
func (r *Repository) Reconcile(ctx context.Context, c models.Customer) (reconcile.Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Reconcile")
	defer span.End()

	return r.reconciler.LookupOrCreate(ctx, Key(c))
}

func (r *Repository) Get(ctx context.Context, id int64) (*models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cust_id", "first", "last", "addr", "zip")
	sb.From(schema.CustomersTable)
	sb.Where(sb.Equal("cust_id", id))

	query, args := sb.Build()
	rs, err := r.gateway.Query(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get customer")
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}

	row, ok := rs.First()
	if !ok {
		return nil, nil
	}
	custID, err := row.Int64("cust_id")
	if err != nil {
		return nil, err
	}

	return &models.Customer{
		CustID: custID,
		First:  row.String("first"),
		Last:   row.String("last"),
		Addr:   row.String("addr"),
		Zip:    row.String("zip"),
	}, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.CustomersTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}
