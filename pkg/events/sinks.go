package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/dealgrid/agentgate/pkg/store"
)

// LogEmitter writes events to the structured log with a monotonic sequence
// number so observers can detect gaps.
type LogEmitter struct {
	logger zerolog.Logger
	seq    uint64
}

// NewLogEmitter creates a log-backed sink.
func NewLogEmitter(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit implements Emitter.
func (e *LogEmitter) Emit(name string, event Event) {
	seq := atomic.AddUint64(&e.seq, 1)

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		e.logger.Error().Err(err).Str("event", name).Msg("Failed to marshal event payload")
		return
	}

	e.logger.Info().
		Str("event", name).
		Str("type", event.Type).
		Str("run_id", event.RunID).
		Str("thread_id", event.ThreadID).
		Uint64("seq", seq).
		RawJSON("payload", payload).
		Msg("Lifecycle event")
}

// StoreEmitter persists events through the events repository. Write
// failures are logged and swallowed; emission never fails the caller.
type StoreEmitter struct {
	store  store.Store
	logger zerolog.Logger
}

// NewStoreEmitter creates a persistence-backed sink.
func NewStoreEmitter(st store.Store, logger zerolog.Logger) *StoreEmitter {
	return &StoreEmitter{store: st, logger: logger}
}

// Emit implements Emitter.
func (e *StoreEmitter) Emit(name string, event Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		e.logger.Error().Err(err).Str("event", name).Msg("Failed to marshal event payload")
		return
	}

	var metadata []byte
	if event.Metadata != nil {
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			e.logger.Error().Err(err).Str("event", name).Msg("Failed to marshal event metadata")
			return
		}
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	row := &store.Event{
		ID:           gonanoid.Must(),
		Type:         event.Type,
		RunID:        event.RunID,
		ThreadID:     event.ThreadID,
		Timestamp:    timestamp,
		PayloadJSON:  string(payload),
		MetadataJSON: string(metadata),
	}

	if err := e.store.CreateEvent(context.Background(), row); err != nil {
		e.logger.Warn().Err(err).Str("event", name).Msg("Failed to persist event")
	}
}
