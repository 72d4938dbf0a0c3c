package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/splan/core/metrics"
	"github.com/kilianp07/splan/infra/logger"
	"github.com/kilianp07/splan/internal/eventbus"
)

// StartEventCollector subscribes to the resolution bus and records every
// event on sink. It stops when the context is canceled or the bus is closed;
// the returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.ResolutionEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordResolution(ev); err != nil {
					log.Warnf("record resolution %s: %v", ev.PassID, err)
				}
			}
		}
	}()
	return done
}
