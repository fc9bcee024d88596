package seeder

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/internal/repositories/product"
	"github.com/Ramsey-B/storedb/internal/repositories/state"
	"github.com/Ramsey-B/storedb/internal/repositories/zip"
	"github.com/Ramsey-B/storedb/pkg/database"
	apperrors "github.com/Ramsey-B/storedb/pkg/errors"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/Ramsey-B/storedb/pkg/sales"
	"github.com/Ramsey-B/storedb/pkg/tracing"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Sources are the reference files, .csv or .xlsx, each with a header row.
type Sources struct {
	Products string
	States   string
	Zips     string
}

// Result counts the rows committed per batch.
type Result struct {
	Products int
	States   int
	Zips     int
}

type Seeder struct {
	gateway  *database.Gateway
	products *product.Repository
	states   *state.Repository
	zips     *zip.Repository
	logger   ectologger.Logger
}

func NewSeeder(gateway *database.Gateway, logger ectologger.Logger) *Seeder {
	return &Seeder{
		gateway:  gateway,
		products: product.NewRepository(gateway, logger),
		states:   state.NewRepository(gateway, logger),
		zips:     zip.NewRepository(gateway, logger),
		logger:   logger,
	}
}

type batch struct {
	name    string
	path    string
	columns []string
	insert  func(ctx context.Context, t *sales.Table, row int) error
}

// SeedReferenceData loads products, then states, then zips. Each batch commits as one
// transaction; a bad row rolls back its batch and is reported as a *errors.RowError. Batches
// committed before the failure stay.
func (s *Seeder) SeedReferenceData(ctx context.Context, src Sources) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Seeder.SeedReferenceData")
	defer span.End()

	result := &Result{}
	batches := []struct {
		batch
		count *int
	}{
		{batch{"products", src.Products, []string{"prod_id", "prod_desc", "unit_price"}, s.insertProduct}, &result.Products},
		{batch{"states", src.States, []string{"state_id", "state"}, s.insertState}, &result.States},
		{batch{"zips", src.Zips, []string{"zip", "city", "state_id"}, s.insertZip}, &result.Zips},
	}

	for _, b := range batches {
		n, err := s.load(ctx, b.batch)
		if err != nil {
			return result, err
		}
		*b.count = n
	}

	return result, nil
}

func (s *Seeder) load(ctx context.Context, b batch) (int, error) {
	log := s.logger.WithContext(ctx).WithField("batch", b.name)

	t, err := sales.ReadTable(b.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", b.name, err)
	}
	if err := t.Require(b.columns...); err != nil {
		return 0, err
	}

	err = s.gateway.WithTx(ctx, func(ctx context.Context, tx database.Tx) error {
		for i := 0; i < t.Len(); i++ {
			if err := b.insert(ctx, t, i); err != nil {
				return apperrors.WrapRowError(i, err).AddBatch(b.name)
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Errorf("failed to seed %s", b.name)
		return 0, err
	}

	log.Infof("seeded %d %s", t.Len(), b.name)
	return t.Len(), nil
}

func (s *Seeder) insertProduct(ctx context.Context, t *sales.Table, i int) error {
	id, err := t.Int64(i, "prod_id")
	if err != nil {
		return apperrors.NewRowError(i, err).AddColumn("prod_id")
	}
	price, err := t.Int64(i, "unit_price")
	if err != nil {
		return apperrors.NewRowError(i, err).AddColumn("unit_price")
	}
	desc, err := t.Value(i, "prod_desc")
	if err != nil {
		return err
	}

	p := models.Product{ProdID: id, Description: desc, UnitPrice: price}
	if err := validate.Struct(p); err != nil {
		return err
	}
	return s.products.Insert(ctx, p)
}

func (s *Seeder) insertState(ctx context.Context, t *sales.Table, i int) error {
	v, err := t.Values(i, "state_id", "state")
	if err != nil {
		return err
	}

	st := models.State{StateID: v[0], Name: v[1]}
	if err := validate.Struct(st); err != nil {
		return err
	}
	return s.states.Insert(ctx, st)
}

func (s *Seeder) insertZip(ctx context.Context, t *sales.Table, i int) error {
	v, err := t.Values(i, "zip", "city", "state_id")
	if err != nil {
		return err
	}

	z := models.Zip{Zip: v[0], City: v[1], StateID: v[2]}
	if err := validate.Struct(z); err != nil {
		return err
	}
	return s.zips.Insert(ctx, z)
}
