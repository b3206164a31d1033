package engine

import (
	"context"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// QuotaExceededMessage is the canonical text recorded at
// status.events.statefulset.message when the child StatefulSet's creation
// is rejected for exceeding a ResourceQuota.
const QuotaExceededMessage = "exceeded quota"

// HandleStatefulSetEvent surfaces (and clears) a quota rejection observed
// on the child StatefulSet via the core Event stream,
// since the StatefulSet's own status carries no such signal.
func (e *Engine) HandleStatefulSetEvent(ctx context.Context, ev StatefulSetEvent) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("statefulset-event", start, err) }()

	// The caller (StatefulSetEventController) derives ev.Parent.UID from this
	// same InvolvedObjectLabels set, so the ownership check degenerates to
	// confirming that label was actually present; a Pod-style OwnerUIDs list
	// does not exist for a core Event, so its own resolved UID stands in.
	if ev.Parent.UID == "" || !e.Labels.IsOwnedByParent(ev.InvolvedObjectLabels, []types.UID{ev.Parent.UID}, ev.Parent.UID) {
		return nil
	}

	key := types.NamespacedName{Namespace: ev.Parent.Namespace, Name: ev.Parent.Name}

	var parent sessionv1alpha1.SessionServer
	if err := e.Client.Get(ctx, key, &parent); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	stored := parent.Status.Events.StatefulSet
	if stored != nil && stored.Timestamp != nil && !ev.LastTimestamp.After(stored.Timestamp.Time) {
		return nil
	}

	switch {
	case ev.Reason == "FailedCreate" && strings.Contains(strings.ToLower(ev.Message), QuotaExceededMessage):
		ts := metav1.NewTime(ev.LastTimestamp)
		return e.Writer.PatchParentStatusMerge(ctx, key, map[string]interface{}{
			"events": map[string]interface{}{
				"statefulset": map[string]interface{}{
					"message":   QuotaExceededMessage,
					"timestamp": ts,
				},
			},
		})
	case ev.Reason == "SuccessfulCreate" && stored != nil && stored.Message == QuotaExceededMessage:
		return e.Writer.PatchParentStatusMerge(ctx, key, map[string]interface{}{
			"events": map[string]interface{}{
				"statefulset": nil,
			},
		})
	default:
		return nil
	}
}
