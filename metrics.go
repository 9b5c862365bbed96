package polytope

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("polytope.slicer")

var (
	sliceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polytope_slice_requests_total",
		Help: "Requests sliced, by result",
	}, []string{"result"})

	sliceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polytope_slice_duration_seconds",
		Help:    "Time taken to slice a request",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	sliceLeaves = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polytope_slice_leaves",
		Help:    "Resolved coordinates per request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	branchesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytope_branches_pruned_total",
		Help: "Tree branches removed because no coordinate below them survived",
	})
)

func startSliceSpan(ctx context.Context, axes, combinations int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Retrieve",
		trace.WithAttributes(
			attribute.Int("polytope.axes", axes),
			attribute.Int("polytope.combinations", combinations),
		),
	)
}
