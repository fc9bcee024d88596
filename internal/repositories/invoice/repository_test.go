package invoice

import (
	"context"
	"testing"

	"github.com/Ramsey-B/storedb/internal/repositories/customer"
	"github.com/Ramsey-B/storedb/internal/testutil"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileInvoice(t *testing.T) {
	gw := testutil.NewGateway(t)
	testutil.SeedReference(t, gw)
	ctx := context.Background()

	cust, err := customer.NewRepository(gw, testutil.Logger()).Reconcile(ctx, models.Customer{First: "Ann", Last: "Lee", Addr: "1 Main St", Zip: "90001"})
	require.NoError(t, err)

	repo := NewRepository(gw, testutil.Logger())
	inv := models.Invoice{CustID: cust.ID, Day: 5, Month: 3, Year: 2024, Time: "10:15"}

	first, err := repo.Reconcile(ctx, inv)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := repo.Reconcile(ctx, inv)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	later := inv
	later.Time = "10:16"
	third, err := repo.Reconcile(ctx, later)
	require.NoError(t, err)
	assert.True(t, third.Created)

	invoices, err := repo.ListByCustomer(ctx, cust.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, models.Invoice{InvoiceID: first.ID, CustID: cust.ID, Day: 5, Month: 3, Year: 2024, Time: "10:15"}, invoices[0])

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestReconcileInvoiceStorageChecks(t *testing.T) {
	gw := testutil.NewGateway(t)
	testutil.SeedReference(t, gw)
	ctx := context.Background()

	cust, err := customer.NewRepository(gw, testutil.Logger()).Reconcile(ctx, models.Customer{First: "Ann", Last: "Lee", Addr: "1 Main St", Zip: "90001"})
	require.NoError(t, err)

	repo := NewRepository(gw, testutil.Logger())
	tests := []struct {
		name string
		inv  models.Invoice
	}{
		{"day", models.Invoice{CustID: cust.ID, Day: 0, Month: 3, Year: 2024, Time: "10:15"}},
		{"month", models.Invoice{CustID: cust.ID, Day: 5, Month: 13, Year: 2024, Time: "10:15"}},
		{"year", models.Invoice{CustID: cust.ID, Day: 5, Month: 3, Year: 20245, Time: "10:15"}},
		{"customer", models.Invoice{CustID: cust.ID + 100, Day: 5, Month: 3, Year: 2024, Time: "10:15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Reconcile(ctx, tt.inv)
			require.Error(t, err)
			assert.True(t, database.IsConstraintViolation(err))
		})
	}
}
