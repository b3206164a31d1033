package culling

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// RunPendingFailedCheck deletes parents stuck Starting or Failed for longer
// than their configured thresholds.
func (c *Controller) RunPendingFailedCheck(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	startingSeconds := sinceOrZero(parent.Status.StartingSince)
	failedSeconds := sinceOrZero(parent.Status.FailedSince)

	culling := parent.Spec.Culling

	if culling.StartingSecondsThreshold > 0 && startingSeconds > float64(culling.StartingSecondsThreshold) {
		if err := c.Client.Delete(ctx, parent); err != nil {
			return err
		}
		metrics.RecordCullingAction(parent.Namespace, "delete", "starting")
		return nil
	}
	if culling.FailedSecondsThreshold > 0 && failedSeconds > float64(culling.FailedSecondsThreshold) {
		if err := c.Client.Delete(ctx, parent); err != nil {
			return err
		}
		metrics.RecordCullingAction(parent.Namespace, "delete", "failed")
		return nil
	}
	return nil
}

func sinceOrZero(t *metav1.Time) float64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return time.Since(t.Time).Seconds()
}
