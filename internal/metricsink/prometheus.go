package metricsink

import (
	"context"

	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// PrometheusHandler records each status transition onto the operator's own
// Prometheus registry.
type PrometheusHandler struct{}

func (PrometheusHandler) Handle(_ context.Context, e Event) {
	metrics.RecordStatusTransition(e.Namespace, string(e.OldStatus), string(e.NewStatus))
}
