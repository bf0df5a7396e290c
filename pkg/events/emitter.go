// Package events emits migration run lifecycle events. The emitter is
// optional; a nil emitter silently drops everything so runs work without a
// broker.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Emitter publishes run lifecycle events through the Kafka producer.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{producer: producer, logger: logger}
}

// EmitRunStarted emits a run.started event.
func (e *Emitter) EmitRunStarted(ctx context.Context, run *models.MigrationRun) {
	e.emit(ctx, "run.started", run, nil)
}

// EmitRunCompleted emits a run.completed event carrying the per-object
// summaries.
func (e *Emitter) EmitRunCompleted(ctx context.Context, run *models.MigrationRun, summaries []models.ObjectSummary) {
	data, err := json.Marshal(summaries)
	if err != nil {
		data = nil
	}
	e.emit(ctx, "run.completed", run, data)
}

// EmitRunFailed emits a run.failed event with the failure reason.
func (e *Emitter) EmitRunFailed(ctx context.Context, run *models.MigrationRun, reason string) {
	data, _ := json.Marshal(map[string]string{"reason": reason})
	e.emit(ctx, "run.failed", run, data)
}

// emit is best-effort: publish failures are logged and swallowed so event
// delivery never affects a run's outcome.
func (e *Emitter) emit(ctx context.Context, eventType string, run *models.MigrationRun, data json.RawMessage) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: eventType,
		RunID:     run.ID,
		RunKind:   string(run.Kind),
		Data:      data,
	}
	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Warn("Failed to emit run event")
	}
}
