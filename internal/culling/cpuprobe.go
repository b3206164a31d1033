package culling

import (
	"context"

	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/units"
)

// ProbeCPUMillicores sums per-container CPU usage from the cluster metrics
// endpoint and converts to millicores. Any failure (metrics-server absent,
// pod gone, malformed value) reports 0 rather than propagating an error, so
// a missing metrics endpoint never prevents culling.
func ProbeCPUMillicores(ctx context.Context, c *k8sclient.Client, namespace, podName string) float64 {
	pm, err := c.GetPodMetrics(ctx, namespace, podName)
	if err != nil {
		return 0
	}
	var total float64
	for _, container := range pm.Containers {
		v, err := units.ParseMillicores(container.Usage.CPU)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}
