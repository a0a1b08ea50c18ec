// Package dispatch implements the per-event parse loop: fd bookkeeping
// against the thread table, followed by matching the event against every
// sketch bank entry and updating the ones whose profile produced a
// non-empty fingerprint.
package dispatch

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FedeDP/plugins/src/errs"
	"github.com/FedeDP/plugins/src/fingerprint"
	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/sketchbank"
)

var tracer = otel.Tracer("dispatch.parse")

// Parse runs the full per-event parse loop of spec §4.6 against evt: fd
// bookkeeping, then a per-sketch extract-and-update pass across bank.
//
// Events whose thread id is <= 0 are skipped entirely and Parse returns
// (true, nil) as a deliberate no-op, matching the host's "not an error"
// convention for events the plugin has no use for.
//
// A malformed core-parameter decode aborts only this event (returns
// false, err) without tearing down the bank; per-field extraction panics
// are caught inside fingerprint.Extract and degrade to an empty
// contribution rather than failing the event.
func Parse(evt hostapi.Event, tt hostapi.ThreadTable, bank *sketchbank.Bank, cache *fingerprint.PathCache, sketchUpdates metrics.Counter) (bool, error) {
	if evt.Tid() <= 0 {
		return true, nil
	}

	entries := bank.All()
	_, span := tracer.Start(context.Background(), "sketch dispatch",
		trace.WithAttributes(
			attribute.Int("bank size", len(entries)),
			attribute.Int64("tid", evt.Tid()),
		),
	)
	defer span.End()

	if err := bookkeepFD(evt, tt); err != nil {
		log.Debugf("anomaly plugin: fd bookkeeping failed for tid %d: %v", evt.Tid(), err)
		return false, err
	}

	for _, entry := range entries {
		if !entry.Matches(evt.Type()) {
			continue
		}
		ok, fp := fingerprint.Extract(evt, tt, entry.Profile, cache)
		if !ok || fp == "" {
			continue
		}
		entry.Sketch.Update([]byte(fp), 1)
		if sketchUpdates != nil {
			sketchUpdates.Inc()
		}
	}
	return true, nil
}

// bookkeepFD writes the fd an fd-producing event just created to the
// originating thread's lastevent_fd, per the parameter-slot table of §6.
func bookkeepFD(evt hostapi.Event, tt hostapi.ThreadTable) error {
	code := evt.Type()
	if !ppme.IsFdProducing(code) {
		return nil
	}
	self, found := tt.Lookup(evt.Tid())
	if !found {
		return nil
	}
	slot := ppme.FdParamSlot(code)
	fd, err := evt.Buffer().ParamInt64(slot)
	if err != nil {
		return fmt.Errorf("%w: decoding fd param slot %d: %v", errs.ErrParseBufferMalformed, slot, err)
	}
	self.SetLastEventFD(fd)
	return nil
}
