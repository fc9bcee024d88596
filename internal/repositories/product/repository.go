package product

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/Ramsey-B/storedb/pkg/schema"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

type Repository struct {
	gateway *database.Gateway
	logger  ectologger.Logger
}

func NewRepository(gateway *database.Gateway, logger ectologger.Logger) *Repository {
	return &Repository{
		gateway: gateway,
		logger:  logger,
	}
}

// FindByDescriptionAndPrice returns the id of the first product whose description and unit price
// both match exactly.
func (r *Repository) FindByDescriptionAndPrice(ctx context.Context, description string, unitPrice int64) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.FindByDescriptionAndPrice")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("prod_id")
	sb.From(schema.ProductsTable)
	sb.Where(
		sb.Equal("prod_desc", description),
		sb.Equal("unit_price", unitPrice),
	)

	query, args := sb.Build()
	rs, err := r.gateway.Query(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to look up product")
		return 0, false, fmt.Errorf("failed to look up product: %w", err)
	}

	row, ok := rs.First()
	if !ok {
		return 0, false, nil
	}
	id, err := row.Int64("prod_id")
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Insert adds a product. Inside a transaction carried by ctx the write joins it.
func (r *Repository) Insert(ctx context.Context, p models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(schema.ProductsTable)
	ib.Cols("prod_id", "prod_desc", "unit_price")
	ib.Values(p.ProdID, p.Description, p.UnitPrice)

	query, args := ib.Build()
	if _, err := r.gateway.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert product %d: %w", p.ProdID, err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.ProductsTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
