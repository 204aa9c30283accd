// Package metrics exports cache events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/datacache/types"
)

// Event label values, one per types.Metrics method.
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventFetch      = "fetch"
	EventFetchError = "fetch_error"
	EventStale      = "stale"
	EventInvalidate = "invalidate"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus counts cache events in a single counter vector labelled by event.
type Prometheus struct {
	events *prometheus.CounterVec

	hit, miss, fetch, fetchError, stale, invalidate prometheus.Counter
}

// NewPrometheus creates the collector and registers it with reg.
// A nil reg leaves the collector unregistered.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "datacache",
		Name:      "events_total",
		Help:      "Cache events by kind.",
	}, []string{"event"})

	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, err
		}
	}

	return &Prometheus{
		events:     events,
		hit:        events.WithLabelValues(EventHit),
		miss:       events.WithLabelValues(EventMiss),
		fetch:      events.WithLabelValues(EventFetch),
		fetchError: events.WithLabelValues(EventFetchError),
		stale:      events.WithLabelValues(EventStale),
		invalidate: events.WithLabelValues(EventInvalidate),
	}, nil
}

// Events exposes the underlying counter vector.
func (p *Prometheus) Events() *prometheus.CounterVec { return p.events }

func (p *Prometheus) Hit()        { p.hit.Inc() }
func (p *Prometheus) Miss()       { p.miss.Inc() }
func (p *Prometheus) Fetch()      { p.fetch.Inc() }
func (p *Prometheus) FetchError() { p.fetchError.Inc() }
func (p *Prometheus) Stale()      { p.stale.Inc() }
func (p *Prometheus) Invalidate() { p.invalidate.Inc() }
