package zip

import (
	"context"
	"testing"

	"github.com/Ramsey-B/storedb/internal/testutil"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipKeepsLeadingZeros(t *testing.T) {
	gw := testutil.NewGateway(t)
	testutil.SeedReference(t, gw)
	_, err := gw.Execute(context.Background(), "INSERT INTO states (state_id, state) VALUES (?, ?)", "MA", "Massachusetts")
	require.NoError(t, err)

	repo := NewRepository(gw, testutil.Logger())
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.Zip{Zip: "02134", City: "Boston", StateID: "MA"}))

	got, err := repo.Get(ctx, "02134")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.Zip{Zip: "02134", City: "Boston", StateID: "MA"}, *got)

	missing, err := repo.Get(ctx, "99999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestZipRequiresState(t *testing.T) {
	gw := testutil.NewGateway(t)
	repo := NewRepository(gw, testutil.Logger())

	err := repo.Insert(context.Background(), models.Zip{Zip: "10001", City: "New York", StateID: "NY"})
	require.Error(t, err)
	assert.True(t, database.IsConstraintViolation(err))
}
