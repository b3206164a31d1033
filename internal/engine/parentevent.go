package engine

import (
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/manifests"
	"github.com/sessionserver-operator/operator/internal/metricsink"
	"github.com/sessionserver-operator/operator/internal/status"
)

// HandleParentEvent recomputes the overall status from the parent's current
// snapshot and writes it only if it actually changed, never persisting a
// Stopping result (that is the delete handler's job).
func (e *Engine) HandleParentEvent(ctx context.Context, ev ParentEvent) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("parent-event", start, err) }()

	key := types.NamespacedName{Namespace: ev.Parent.Namespace, Name: ev.Parent.Name}

	var parent sessionv1alpha1.SessionServer
	if err := e.Client.Get(ctx, key, &parent); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	in := e.buildDeriveInput(parent)
	now := metav1.NewTime(in.Now)

	result, err := status.Derive(ctx, in)
	if err != nil {
		// Malformed container states fail derivation loud: log, skip the
		// write, and let the next event retry against a fresh snapshot.
		e.Log.Info("status derivation failed, skipping write", "namespace", key.Namespace, "name", key.Name, "error", err.Error())
		return nil
	}

	if result.Status == sessionv1alpha1.StatusStopping {
		return nil
	}

	oldResult := status.Result{
		Status:          parent.Status.State,
		ContainerStates: parent.Status.ContainerStates,
	}
	if oldResult.Equal(result) {
		return nil
	}

	doc := map[string]interface{}{
		"state":           result.Status,
		"containerStates": result.ContainerStates,
	}

	if result.Status == sessionv1alpha1.StatusStarting && oldResult.Status != sessionv1alpha1.StatusStarting {
		doc["startingSince"] = now
	} else if result.Status != sessionv1alpha1.StatusStarting {
		doc["startingSince"] = nil
	}

	if result.Status == sessionv1alpha1.StatusFailed && oldResult.Status != sessionv1alpha1.StatusFailed {
		doc["failedSince"] = now
	} else if result.Status != sessionv1alpha1.StatusFailed {
		doc["failedSince"] = nil
	}

	if result.Status == sessionv1alpha1.StatusHibernated && oldResult.Status != sessionv1alpha1.StatusHibernated {
		doc["hibernatedSince"] = now
	} else if result.Status != sessionv1alpha1.StatusHibernated {
		doc["hibernatedSince"] = nil
	}

	if err := e.Writer.PatchParentStatusMerge(ctx, key, doc); err != nil {
		return err
	}

	if e.MetricSink != nil && oldResult.Status != result.Status {
		e.MetricSink.Enqueue(metricsink.Event{
			Timestamp: in.Now,
			Namespace: key.Namespace,
			Name:      key.Name,
			OldStatus: oldResult.Status,
			NewStatus: result.Status,
		})
	}

	return nil
}

func (e *Engine) buildDeriveInput(parent sessionv1alpha1.SessionServer) status.Input {
	in := status.Input{
		DeletionTimestamp:             parent.DeletionTimestamp,
		RestartLimits:                 e.restartLimits(),
		UnschedulableFailureThreshold: e.Config.UnschedulableFailureThreshold,
		FullURL:                       manifests.FullURL(parent.Spec.Routing),
		Now:                           time.Now(),
	}
	if parent.Spec.JupyterServer.Hibernated != nil {
		in.Hibernated = *parent.Spec.JupyterServer.Hibernated
	}

	mainPod := parent.Status.MainPod
	if mainPod == nil || mainPod.Status == nil {
		return in
	}
	podStatus := mainPod.Status
	in.HasPod = true
	in.PodPhase = podStatus.Phase
	in.Conditions = podStatus.Conditions
	in.InitContainerStatuses = podStatus.InitContainerStatuses
	in.ContainerStatuses = podStatus.ContainerStatuses
	if podStatus.StartTime != nil {
		in.PodCreationTimestamp = podStatus.StartTime.Time
	}
	return in
}
