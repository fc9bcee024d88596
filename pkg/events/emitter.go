// Package events announces ingestion results to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/tracing"
)

const SchemaVersion = "1.0"

const EventFileIngested = "file.ingested"

// FileIngested is published once a whole intake file has been committed and archived.
type FileIngested struct {
	EventType        string    `json:"event_type"`
	SchemaVersion    string    `json:"schema_version"`
	RunID            string    `json:"run_id"`
	File             string    `json:"file"`
	ArchivedTo       string    `json:"archived_to"`
	Rows             int       `json:"rows"`
	CustomersCreated int       `json:"customers_created"`
	InvoicesCreated  int       `json:"invoices_created"`
	LineItems        int       `json:"line_items"`
	Timestamp        time.Time `json:"timestamp"`
}

type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *Emitter) EmitFileIngested(ctx context.Context, event FileIngested) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitFileIngested")
	defer span.End()

	event.EventType = EventFileIngested
	event.SchemaVersion = SchemaVersion
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := e.publisher.Publish(ctx, event.File, data, map[string]string{"event_type": event.EventType, "run_id": event.RunID}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		return err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"file":       event.File,
	}).Debug("Published event")
	return nil
}

func (e *Emitter) Close() error {
	return e.publisher.Close()
}
