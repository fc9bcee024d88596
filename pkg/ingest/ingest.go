package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/internal/repositories/customer"
	"github.com/Ramsey-B/storedb/internal/repositories/invoice"
	"github.com/Ramsey-B/storedb/internal/repositories/invoicedetail"
	storecontext "github.com/Ramsey-B/storedb/pkg/context"
	"github.com/Ramsey-B/storedb/pkg/database"
	apperrors "github.com/Ramsey-B/storedb/pkg/errors"
	"github.com/Ramsey-B/storedb/pkg/events"
	"github.com/Ramsey-B/storedb/pkg/intake"
	"github.com/Ramsey-B/storedb/pkg/metrics"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/Ramsey-B/storedb/pkg/sales"
	"github.com/Ramsey-B/storedb/pkg/tracing"
	"github.com/Ramsey-B/storedb/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
)

// Ingestor loads intake files one row at a time. Every write of a row commits on its own, so a
// file that fails part way keeps the rows before the failure; only files that load completely
// are archived.
type Ingestor struct {
	intake    *intake.Manager
	validator *validation.Validator
	customers *customer.Repository
	invoices  *invoice.Repository
	details   *invoicedetail.Repository
	metrics   *metrics.Registry
	emitter   *events.Emitter
	logger    ectologger.Logger

	state        State
	onTransition func(from, to State)
}

type Option func(*Ingestor)

func WithMetrics(m *metrics.Registry) Option {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

func WithEmitter(e *events.Emitter) Option {
	return func(i *Ingestor) {
		i.emitter = e
	}
}

// WithTransitionHook calls fn on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(i *Ingestor) {
		i.onTransition = fn
	}
}

func NewIngestor(gateway *database.Gateway, files *intake.Manager, logger ectologger.Logger, opts ...Option) *Ingestor {
	i := &Ingestor{
		intake:    files,
		validator: validation.NewValidator(gateway, logger),
		customers: customer.NewRepository(gateway, logger),
		invoices:  invoice.NewRepository(gateway, logger),
		details:   invoicedetail.NewRepository(gateway, logger),
		metrics:   metrics.NewRegistry(),
		logger:    logger,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.emitter == nil {
		i.emitter = events.NewEmitter(nil, logger)
	}
	return i
}

func (i *Ingestor) State() State {
	return i.state
}

func (i *Ingestor) transition(ctx context.Context, next State) {
	if !i.state.canMoveTo(next) {
		// a bug in the run loop, not a data problem
		panic(fmt.Sprintf("ingest: illegal transition %s -> %s", i.state, next))
	}
	prev := i.state
	i.state = next
	i.logger.WithContext(ctx).WithFields(storecontext.Fields(ctx)).Debugf("ingest state %s -> %s", prev, next)
	if i.onTransition != nil {
		i.onTransition(prev, next)
	}
}

// Run ingests every intake file in name order and stops at the first file that fails. The
// returned summary covers every file attempted, including the failed one.
func (i *Ingestor) Run(ctx context.Context) (*Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "Ingestor.Run")
	defer span.End()

	runID := storecontext.GetRunID(ctx)
	if runID == "" {
		runID = storecontext.NewRunID()
		ctx = storecontext.SetRunID(ctx, runID)
	}
	summary := &Summary{RunID: runID}
	log := i.logger.WithContext(ctx).WithField("run_id", runID)

	files, err := i.intake.Discover()
	if err != nil {
		return summary, err
	}
	log.Infof("found %d intake files", len(files))

	for _, path := range files {
		fs, err := i.IngestFile(ctx, path)
		if fs != nil {
			summary.Files = append(summary.Files, *fs)
		}
		if err != nil {
			return summary, err
		}
	}

	log.Infof("loaded %d files, %d rows", summary.Loaded(), summary.Rows())
	return summary, nil
}

// IngestFile loads one file and archives it when every row succeeded.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (*FileSummary, error) {
	name := filepath.Base(path)
	ctx = storecontext.SetFile(ctx, name)
	ctx, span := tracing.StartSpan(ctx, "Ingestor.IngestFile", attribute.String("file", name))
	defer span.End()

	log := i.logger.WithContext(ctx).WithFields(storecontext.Fields(ctx))
	fs := &FileSummary{File: name}
	start := time.Now()

	i.transition(ctx, ProcessingFile)

	f, err := sales.ReadFile(path)
	if err != nil {
		i.abort(ctx)
		tracing.Fail(span, err)
		log.WithError(err).Errorf("failed to read %s", name)
		return fs, fmt.Errorf("failed to read %s: %w", name, err)
	}

	for row := 0; row < f.Len(); row++ {
		i.transition(ctx, ProcessingRow)
		if err := i.ingestRow(ctx, f, row, fs); err != nil {
			i.abort(ctx)
			rowErr := apperrors.WrapRowError(row, err).AddFile(name)
			tracing.Fail(span, rowErr)
			log.WithError(rowErr).Errorf("stopped %s at row %d; %d earlier rows stay committed", name, row, fs.Rows)
			return fs, rowErr
		}
	}

	archived, err := i.intake.Archive(path)
	if err != nil {
		i.abort(ctx)
		tracing.Fail(span, err)
		log.WithError(err).Errorf("loaded %s but could not archive it", name)
		return fs, err
	}
	fs.ArchivedTo = archived
	fs.Committed = true

	i.transition(ctx, Committed)
	i.metrics.FilesLoaded.Inc()
	i.metrics.FileDuration.Observe(time.Since(start).Seconds())

	if err := i.emitter.EmitFileIngested(ctx, events.FileIngested{
		RunID:            storecontext.GetRunID(ctx),
		File:             name,
		ArchivedTo:       archived,
		Rows:             fs.Rows,
		CustomersCreated: fs.CustomersCreated,
		InvoicesCreated:  fs.InvoicesCreated,
		LineItems:        fs.LineItems,
	}); err != nil {
		log.WithError(err).Warnf("ingested %s but the event was not published", name)
	}

	log.Infof("ingested %d rows from %s", fs.Rows, name)
	i.transition(ctx, Idle)
	return fs, nil
}

func (i *Ingestor) abort(ctx context.Context) {
	i.transition(ctx, Aborted)
	i.metrics.FilesFailed.Inc()
	i.transition(ctx, Idle)
}

func (i *Ingestor) ingestRow(ctx context.Context, f *sales.File, row int, fs *FileSummary) error {
	rec, err := f.Record(row)
	if err != nil {
		return err
	}
	if err := validation.ValidateRecord(rec); err != nil {
		return err
	}

	// the line item keeps the row's own prod_id; CheckReferences warns when it differs
	if _, err := i.validator.CheckReferences(ctx, rec); err != nil {
		switch {
		case errors.Is(err, validation.ErrInvalidState):
			return apperrors.NewRowError(row, err).AddColumn(sales.ColState)
		case errors.Is(err, validation.ErrInvalidProduct):
			return apperrors.NewRowError(row, err).AddColumn(sales.ColDescription)
		}
		return err
	}

	cust, err := i.customers.Reconcile(ctx, rec.Customer())
	if err != nil {
		return err
	}
	i.metrics.ObserveReconcile("customer", cust.Created)
	if cust.Created {
		fs.CustomersCreated++
	} else {
		fs.CustomersReused++
	}

	inv, err := i.invoices.Reconcile(ctx, rec.Invoice(cust.ID))
	if err != nil {
		return err
	}
	i.metrics.ObserveReconcile("invoice", inv.Created)
	if inv.Created {
		fs.InvoicesCreated++
	} else {
		fs.InvoicesReused++
	}

	if err := i.details.Insert(ctx, models.InvoiceDetail{InvoiceID: inv.ID, ProdID: rec.ProdID, Qty: rec.Qty}); err != nil {
		return err
	}
	fs.LineItems++
	fs.Rows++
	i.metrics.LineItems.Inc()
	i.metrics.Rows.Inc()

	return nil
}
