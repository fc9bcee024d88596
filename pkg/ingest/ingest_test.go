package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ramsey-B/storedb/internal/repositories/customer"
	"github.com/Ramsey-B/storedb/internal/repositories/invoice"
	"github.com/Ramsey-B/storedb/internal/repositories/invoicedetail"
	"github.com/Ramsey-B/storedb/internal/testutil"
	"github.com/Ramsey-B/storedb/pkg/database"
	apperrors "github.com/Ramsey-B/storedb/pkg/errors"
	"github.com/Ramsey-B/storedb/pkg/events"
	"github.com/Ramsey-B/storedb/pkg/intake"
	"github.com/Ramsey-B/storedb/pkg/metrics"
	"github.com/Ramsey-B/storedb/pkg/schema"
	"github.com/Ramsey-B/storedb/pkg/validation"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "date,st,prod_id,prod_desc,unit_price,first,last,addr,zip,qty\n"

const annRow = "2024-03-05 10:15,CA,1,Widget,10,Ann,Lee,1 Main St,90001,3\n"

type fixture struct {
	gw      *database.Gateway
	intake  *intake.Manager
	metrics *metrics.Registry
	ing     *Ingestor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	gw := testutil.NewGateway(t)
	testutil.SeedReference(t, gw)

	root := t.TempDir()
	files := intake.NewManager(filepath.Join(root, "intake"), filepath.Join(root, "archive"), "")
	require.NoError(t, files.EnsureDirectories())

	m := metrics.NewRegistry()
	opts = append([]Option{WithMetrics(m)}, opts...)

	return &fixture{
		gw:      gw,
		intake:  files,
		metrics: m,
		ing:     NewIngestor(gw, files, testutil.Logger(), opts...),
	}
}

func (f *fixture) drop(t *testing.T, name, content string) string {
	return testutil.WriteFile(t, f.intake.IntakeDir, name, content)
}

func TestRunIngestsSalesFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := f.drop(t, "Sales_001.csv", header+annRow)

	summary, err := f.ing.Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Loaded())
	assert.Equal(t, 1, summary.Rows())
	assert.Equal(t, 1, summary.CustomersCreated())
	assert.Equal(t, 1, summary.InvoicesCreated())
	assert.Equal(t, 1, summary.LineItems())
	assert.Equal(t, Idle, f.ing.State())

	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.CustomersTable))
	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.InvoicesTable))
	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.InvoiceDetailsTable))

	invoices, err := invoice.NewRepository(f.gw, testutil.Logger()).ListByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, 5, invoices[0].Day)
	assert.Equal(t, 3, invoices[0].Month)
	assert.Equal(t, 2024, invoices[0].Year)
	assert.Equal(t, "10:15", invoices[0].Time)

	details, err := invoicedetail.NewRepository(f.gw, testutil.Logger()).ListByInvoice(ctx, invoices[0].InvoiceID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, int64(1), details[0].ProdID)
	assert.Equal(t, int64(3), details[0].Qty)

	cust, err := customer.NewRepository(f.gw, testutil.Logger()).Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", cust.First)
	assert.Equal(t, "90001", cust.Zip)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.intake.ArchiveDir, "Sales_001.csv"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(f.intake.ArchiveDir, "Sales_001.csv"), summary.Files[0].ArchivedTo)

	assert.Equal(t, float64(1), promtestutil.ToFloat64(f.metrics.FilesLoaded))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(f.metrics.LineItems))
}

func TestRunUnknownStateFailsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	path := f.drop(t, "Sales_001.csv", header+"2024-03-05 10:15,ZZ,1,Widget,10,Ann,Lee,1 Main St,90001,3\n")

	summary, err := f.ing.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidState)

	var rowErr *apperrors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 0, rowErr.Row)
	assert.Equal(t, "Sales_001.csv", rowErr.File)
	assert.Equal(t, "st", rowErr.Column)

	assert.Equal(t, 0, summary.Loaded())
	assert.Equal(t, int64(0), testutil.Count(t, f.gw, schema.CustomersTable))
	assert.Equal(t, int64(0), testutil.Count(t, f.gw, schema.InvoicesTable))
	assert.Equal(t, int64(0), testutil.Count(t, f.gw, schema.InvoiceDetailsTable))

	_, err = os.Stat(path)
	assert.NoError(t, err, "file stays in intake")
	assert.Equal(t, Idle, f.ing.State())
	assert.Equal(t, float64(1), promtestutil.ToFloat64(f.metrics.FilesFailed))
}

func TestRunUnknownProductFails(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "Sales_001.csv", header+"2024-03-05 10:15,CA,1,Widget,11,Ann,Lee,1 Main St,90001,3\n")

	_, err := f.ing.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidProduct)

	var rowErr *apperrors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "prod_desc", rowErr.Column)
	assert.Equal(t, int64(0), testutil.Count(t, f.gw, schema.CustomersTable))
}

func TestRerunReusesEntitiesAndRejectsDuplicateLineItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.drop(t, "Sales_001.csv", header+annRow)
	_, err := f.ing.Run(ctx)
	require.NoError(t, err)

	// the same sale again under a new name
	path := f.drop(t, "Sales_002.csv", header+annRow)
	summary, err := f.ing.Run(ctx)
	require.Error(t, err)
	assert.True(t, database.IsConstraintViolation(err))

	idx, ok := apperrors.RowIndex(err)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	require.Len(t, summary.Files, 1)
	assert.Equal(t, 0, summary.Files[0].CustomersCreated)
	assert.Equal(t, 1, summary.Files[0].CustomersReused)
	assert.Equal(t, 0, summary.Files[0].InvoicesCreated)
	assert.Equal(t, 1, summary.Files[0].InvoicesReused)

	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.CustomersTable))
	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.InvoicesTable))
	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.InvoiceDetailsTable))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRowsBeforeAFailureStayCommitted(t *testing.T) {
	f := newFixture(t)
	path := f.drop(t, "Sales_001.csv", header+
		annRow+
		"2024-03-06 09:00,CA,1,Widget,10,Bo,Li,2 Main St,90001,1\n"+
		"2024-03-07 09:00,ZZ,1,Widget,10,Cy,Ng,3 Main St,90001,1\n")

	summary, err := f.ing.Run(context.Background())
	require.Error(t, err)

	idx, ok := apperrors.RowIndex(err)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 2, summary.Rows())
	assert.False(t, summary.Files[0].Committed)

	assert.Equal(t, int64(2), testutil.Count(t, f.gw, schema.CustomersTable))
	assert.Equal(t, int64(2), testutil.Count(t, f.gw, schema.InvoiceDetailsTable))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSameCustomerAndTimestampShareInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.gw.Execute(ctx, "INSERT INTO products (prod_id, prod_desc, unit_price) VALUES (?, ?, ?)", 2, "Gadget", 25)
	require.NoError(t, err)

	f.drop(t, "Sales_001.csv", header+annRow+"2024-03-05 10:15,CA,2,Gadget,25,Ann,Lee,1 Main St,90001,1\n")

	summary, err := f.ing.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.InvoicesCreated())
	assert.Equal(t, 2, summary.LineItems())
	assert.Equal(t, int64(1), testutil.Count(t, f.gw, schema.InvoicesTable))
	assert.Equal(t, int64(2), testutil.Count(t, f.gw, schema.InvoiceDetailsTable))
}

func TestRunProcessesFilesInNameOrderAndStopsOnFailure(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "Sales_002.csv", header+"2024-03-05 10:15,ZZ,1,Widget,10,Ann,Lee,1 Main St,90001,3\n")
	f.drop(t, "Sales_001.csv", header+annRow)
	third := f.drop(t, "Sales_003.csv", header+"2024-04-01 08:00,CA,1,Widget,10,Bo,Li,2 Main St,90001,1\n")

	summary, err := f.ing.Run(context.Background())
	require.Error(t, err)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "Sales_001.csv", summary.Files[0].File)
	assert.True(t, summary.Files[0].Committed)
	assert.Equal(t, "Sales_002.csv", summary.Files[1].File)

	_, err = os.Stat(third)
	assert.NoError(t, err, "files after the failure are not touched")
}

func TestEmptyFileIsArchived(t *testing.T) {
	f := newFixture(t)
	path := f.drop(t, "Sales_001.csv", header)

	summary, err := f.ing.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Loaded())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMissingColumnAbortsFile(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "Sales_001.csv", "date,st\n2024-03-05 10:15,CA\n")

	_, err := f.ing.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, Idle, f.ing.State())
}

func TestTransitions(t *testing.T) {
	var seen []State
	f := newFixture(t, WithTransitionHook(func(_, to State) {
		seen = append(seen, to)
	}))
	f.drop(t, "Sales_001.csv", header+annRow+"2024-03-06 09:00,CA,1,Widget,10,Bo,Li,2 Main St,90001,1\n")

	_, err := f.ing.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []State{ProcessingFile, ProcessingRow, ProcessingRow, Committed, Idle}, seen)

	seen = nil
	f.drop(t, "Sales_002.csv", header+"2024-03-05 10:15,ZZ,1,Widget,10,Ann,Lee,1 Main St,90001,3\n")
	_, err = f.ing.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []State{ProcessingFile, ProcessingRow, Aborted, Idle}, seen)
}

func TestStateCanMoveTo(t *testing.T) {
	assert.True(t, Idle.canMoveTo(ProcessingFile))
	assert.False(t, Idle.canMoveTo(ProcessingRow))
	assert.False(t, Committed.canMoveTo(ProcessingFile))
	assert.True(t, Aborted.canMoveTo(Idle))
	assert.Equal(t, "processing_row", ProcessingRow.String())
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ []byte, _ map[string]string) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestIngestedFileIsAnnounced(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, WithEmitter(events.NewEmitter(pub, testutil.Logger())))
	f.drop(t, "Sales_001.csv", header+annRow)

	_, err := f.ing.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales_001.csv"}, pub.keys)
}
