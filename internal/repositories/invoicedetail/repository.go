package invoicedetail

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

// Insert writes one line item and commits it. Line items are not deduplicated: inserting an
// (invoice, product) pair twice fails with a constraint violation.
func (r *Repository) Insert(ctx context.Context, detail models.InvoiceDetail) error {
	ctx, span := tracing.StartSpan(ctx, "invoicedetail.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(schema.InvoiceDetailsTable)
	ib.Cols("invoice_id", "prod_id", "qty")
	ib.Values(detail.InvoiceID, detail.ProdID, detail.Qty)

	query, args := ib.Build()
	if _, err := r.gateway.Execute(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"invoice_id": detail.InvoiceID,
			"prod_id":    detail.ProdID,
		}).Error("Failed to insert invoice detail")
		return fmt.Errorf("failed to insert invoice detail: %w", err)
	}

	return nil
}

func (r *Repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]models.InvoiceDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "invoicedetail.Repository.ListByInvoice")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("invoice_id", "prod_id", "qty")
	sb.From(schema.InvoiceDetailsTable)
	sb.Where(sb.Equal("invoice_id", invoiceID))
	sb.OrderBy("prod_id")

	query, args := sb.Build()
	var details []models.InvoiceDetail
	if err := r.gateway.Select(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoice details: %w", err)
	}

	return details, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.InvoiceDetailsTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoice details: %w", err)
	}
	return n, nil
}
