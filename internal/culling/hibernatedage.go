package culling

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// RunHibernatedAgeCheck deletes sessions hibernated too long: once a
// session has been hibernated past spec.culling.hibernatedSecondsThreshold, the
// parent itself is deleted (propagation = Foreground, mirroring a manual
// kubectl delete with cascading GC of the already-scaled-down children).
func (c *Controller) RunHibernatedAgeCheck(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	if parent.Status.State != sessionv1alpha1.StatusHibernated {
		return nil
	}
	threshold := parent.Spec.Culling.HibernatedSecondsThreshold
	if threshold == 0 {
		return nil
	}

	ann := labels.NewAnnotationKeys(c.Config.APIGroup)
	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}
	raw := parent.Annotations[ann.HibernationDate]
	if raw == "" {
		now := metav1.NewTime(time.Now())
		return c.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{
			ann.HibernationDate: now.Format(time.RFC3339),
		})
	}

	hibernatedSince, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	if time.Since(hibernatedSince) < time.Duration(threshold)*time.Second {
		return nil
	}

	propagation := metav1.DeletePropagationForeground
	if err := c.Client.Delete(ctx, parent, &client.DeleteOptions{PropagationPolicy: &propagation}); err != nil {
		return err
	}
	metrics.RecordCullingAction(parent.Namespace, "delete", "hibernated-age")
	return nil
}
