package state

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

func (r *Repository) Exists(ctx context.Context, stateID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "state.Repository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("state_id")
	sb.From(schema.StatesTable)
	sb.Where(sb.Equal("state_id", stateID))

	query, args := sb.Build()
	rs, err := r.gateway.Query(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to look up state")
		return false, fmt.Errorf("failed to look up state %s: %w", stateID, err)
	}

	return !rs.Empty(), nil
}

// Insert adds a state. Inside a transaction carried by ctx the write joins it.
func (r *Repository) Insert(ctx context.Context, s models.State) error {
	ctx, span := tracing.StartSpan(ctx, "state.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(schema.StatesTable)
	ib.Cols("state_id", "state")
	ib.Values(s.StateID, s.Name)

	query, args := ib.Build()
	if _, err := r.gateway.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert state %s: %w", s.StateID, err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.gateway.Count(ctx, schema.StatesTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count states: %w", err)
	}
	return n, nil
}
