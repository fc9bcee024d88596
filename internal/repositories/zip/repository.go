package zip

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

func (r *Repository) Get(ctx context.Context, code string) (*models.Zip, error) {
	ctx, span := tracing.StartSpan(ctx, "zip.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("zip", "city", "state_id")
	sb.From(schema.ZipsTable)
	sb.Where(sb.Equal("zip", code))

	query, args := sb.Build()
	var zips []models.Zip
	if err := r.gateway.Select(ctx, &zips, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get zip")
		return nil, fmt.Errorf("failed to get zip %s: %w", code, err)
	}
	if len(zips) == 0 {
		return nil, nil
	}
	return &zips[0], nil
}

// Insert adds a zip code. Inside a transaction carried by ctx the write joins it.
func (r *Repository) Insert(ctx context.Context, z models.Zip) error {
	ctx, span := tracing.StartSpan(ctx, "zip.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(schema.ZipsTable)
	ib.Cols("zip", "city", "state_id")
	ib.Values(z.Zip, z.City, z.StateID)

	query, args := ib.Build()
	if _, err := r.gateway.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert zip %s: %w", z.Zip, err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.ZipsTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count zips: %w", err)
	}
	return n, nil
}
