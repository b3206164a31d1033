package culling

import (
	"context"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/manifests"
	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// RunIdleCheck evaluates idleness and age for one parent and hibernates it
// when a threshold is crossed. It is called once per tick per parent by the
// scheduler.
func (c *Controller) RunIdleCheck(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	ann := labels.NewAnnotationKeys(c.Config.APIGroup)
	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}
	now := time.Now()

	hibernated := parent.Spec.JupyterServer.Hibernated != nil && *parent.Spec.JupyterServer.Hibernated
	if hibernated {
		return c.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{ann.LastActivityDate: nil})
	}

	snapshot, ok := c.prober()(ctx, manifests.FullURL(parent.Spec.Routing), parent.Spec.Auth.Token)
	if !ok {
		return nil
	}

	mainPodName := manifests.ChildName(parent.Name, sessionv1alpha1.ChildKeyStatefulSet) + "-0"
	cpu := ProbeCPUMillicores(ctx, c.K8s, parent.Namespace, mainPodName)

	idleRightNow := cpu <= c.Config.CPUUsageMillicoresIdleThreshold &&
		snapshot.Connections <= 0 &&
		now.Sub(snapshot.LastActivity) > c.Config.IdleCheckInterval

	culling := parent.Spec.Culling

	if idleRightNow && culling.IdleSecondsThreshold > 0 &&
		now.Sub(snapshot.LastActivity) >= time.Duration(culling.IdleSecondsThreshold)*time.Second {
		if err := c.hibernate(ctx, key, ann, "idle"); err != nil {
			return err
		}
		metrics.ObserveIdleDuration(parent.Namespace, now.Sub(snapshot.LastActivity).Seconds())
		return nil
	}

	if culling.MaxAgeSecondsThreshold > 0 &&
		now.Sub(snapshot.Started) >= time.Duration(culling.MaxAgeSecondsThreshold)*time.Second {
		return c.hibernate(ctx, key, ann, "age")
	}

	if idleRightNow {
		return c.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{
			ann.LastActivityDate: snapshot.LastActivity.Format(time.RFC3339),
		})
	}

	if parent.Annotations[ann.LastActivityDate] != "" {
		return c.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{ann.LastActivityDate: nil})
	}
	return nil
}

func (c *Controller) hibernate(ctx context.Context, key types.NamespacedName, ann labels.AnnotationKeys, reason string) error {
	now := metav1.NewTime(time.Now())
	hibernated := true
	if err := c.Writer.PatchParentSpecMerge(ctx, key, map[string]interface{}{
		"jupyterServer": map[string]interface{}{"hibernated": &hibernated},
	}); err != nil {
		return fmt.Errorf("hibernating %s for reason %s: %w", key, reason, err)
	}
	if err := c.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{
		ann.Hibernation:      reason,
		ann.HibernationDate:  now.Format(time.RFC3339),
		ann.LastActivityDate: nil,
	}); err != nil {
		return err
	}
	metrics.RecordCullingAction(key.Namespace, "hibernate", reason)
	return nil
}
