package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/internal/repositories/product"
	"github.com/Ramsey-B/storedb/internal/repositories/state"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/Ramsey-B/storedb/pkg/tracing"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidState   = errors.New("invalid state")
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidRecord  = errors.New("invalid record")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator checks sales rows against the seeded reference tables. It never writes.
type Validator struct {
	states   *state.Repository
	products *product.Repository
	logger   ectologger.Logger
}

func NewValidator(gateway *database.Gateway, logger ectologger.Logger) *Validator {
	return &Validator{
		states:   state.NewRepository(gateway, logger),
		products: product.NewRepository(gateway, logger),
		logger:   logger,
	}
}

// ValidateState reports whether a state with this exact code was seeded.
func (v *Validator) ValidateState(ctx context.Context, stateID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "Validator.ValidateState")
	defer span.End()

	return v.states.Exists(ctx, stateID)
}

// ValidateProduct returns the id of the product whose description and unit price both match.
func (v *Validator) ValidateProduct(ctx context.Context, description string, unitPrice int64) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "Validator.ValidateProduct")
	defer span.End()

	return v.products.FindByDescriptionAndPrice(ctx, description, unitPrice)
}

// ValidateRecord checks that every required column of a parsed row is present.
func ValidateRecord(record models.SalesRecord) error {
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, validationErrorToString(err))
	}
	return nil
}

// CheckReferences runs the state and product checks for one row and returns the id of the
// matched product. Missing references come back as ErrInvalidState or ErrInvalidProduct.
func (v *Validator) CheckReferences(ctx context.Context, record models.SalesRecord) (int64, error) {
	ok, err := v.ValidateState(ctx, record.StateID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, record.StateID)
	}

	prodID, ok, err := v.ValidateProduct(ctx, record.Description, record.UnitPrice)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: no product %q at price %d", ErrInvalidProduct, record.Description, record.UnitPrice)
	}

	if prodID != record.ProdID {
		v.logger.WithContext(ctx).WithFields(map[string]any{
			"prod_id":      record.ProdID,
			"validated_id": prodID,
			"prod_desc":    record.Description,
			"unit_price":   record.UnitPrice,
		}).Warnf("prod_id %d does not match product %d found by description and price", record.ProdID, prodID)
	}

	return prodID, nil
}

func validationErrorToString(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fe.StructField(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
