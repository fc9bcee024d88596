package reconcile

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

// NaturalKey describes how to find an entity without its generated id: every column in Columns
// must equal the value at the same position in Values.
type NaturalKey struct {
	Table    string
	IDColumn string
	Columns  []string
	Values   []any
}

func (k NaturalKey) validate() error {
	if k.Table == "" || k.IDColumn == "" {
		return fmt.Errorf("natural key needs a table and id column")
	}
	if len(k.Columns) == 0 || len(k.Columns) != len(k.Values) {
		return fmt.Errorf("natural key for %s has %d columns and %d values", k.Table, len(k.Columns), len(k.Values))
	}
	return nil
}

// Fields returns the key as log fields.
func (k NaturalKey) Fields() map[string]any {
	fields := make(map[string]any, len(k.Columns)+1)
	fields["table"] = k.Table
	for i, column := range k.Columns {
		if i >= len(k.Values) {
			break
		}
		fields[column] = k.Values[i]
	}
	return fields
}

type Outcome struct {
	ID      int64
	Created bool
}

// Lookup returns the id of the first row matching key. There is no ORDER BY: when several rows
// match, which one is first is up to sqlite's scan order.
func Lookup(ctx context.Context, exec database.Executor, key NaturalKey) (int64, bool, error) {
	if err := key.validate(); err != nil {
		return 0, false, err
	}

	sb := database.NewSelectBuilder()
	sb.Select(key.IDColumn)
	sb.From(key.Table)
	where := make([]string, len(key.Columns))
	for i, column := range key.Columns {
		where[i] = sb.Equal(column, key.Values[i])
	}
	sb.Where(where...)

	query, args := sb.Build()
	rs, err := exec.Query(ctx, query, args...)
	if err != nil {
		return 0, false, err
	}

	row, ok := rs.First()
	if !ok {
		return 0, false, nil
	}

	id, err := row.Int64(key.IDColumn)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s.%s: %w", key.Table, key.IDColumn, err)
	}
	return id, true, nil
}

// Insert adds a row built from key and returns the id generated on exec's connection.
func Insert(ctx context.Context, exec database.Executor, key NaturalKey) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(key.Table)
	ib.Cols(key.Columns...)
	ib.Values(key.Values...)

	query, args := ib.Build()
	res, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

// Reconciler runs lookup-or-create, committing each created entity before returning.
type Reconciler struct {
	gateway *database.Gateway
	logger  ectologger.Logger
}

func NewReconciler(gateway *database.Gateway, logger ectologger.Logger) *Reconciler {
	return &Reconciler{
		gateway: gateway,
		logger:  logger,
	}
}

// LookupOrCreate returns the id of the entity identified by key, inserting it when no row
// matches. The lookup and the insert share one transaction on one connection.
func (r *Reconciler) LookupOrCreate(ctx context.Context, key NaturalKey) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "Reconciler.LookupOrCreate")
	defer span.End()

	var outcome Outcome
	err := r.gateway.WithTx(ctx, func(ctx context.Context, tx database.Tx) error {
		id, found, err := Lookup(ctx, tx, key)
		if err != nil {
			return err
		}
		if found {
			outcome = Outcome{ID: id}
			return nil
		}

		id, err = Insert(ctx, tx, key)
		if err != nil {
			return err
		}
		outcome = Outcome{ID: id, Created: true}
		return nil
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(key.Fields()).Errorf("failed to reconcile %s", key.Table)
		return Outcome{}, fmt.Errorf("failed to reconcile %s: %w", key.Table, err)
	}

	if outcome.Created {
		r.logger.WithContext(ctx).WithFields(key.Fields()).Debugf("created %s %d", key.Table, outcome.ID)
	}
	return outcome, nil
}
