// Package status derives session state: pure translation of a parent +
// main-pod snapshot into an OverallStatus and a
// per-container summary. Nothing in this package performs I/O beyond the
// injected URL prober, so it is directly table-testable.
package status

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// RestartLimits carries the two configured restart-count thresholds,
// JUPYTER_SERVER_INIT_CONTAINER_RESTART_LIMIT (default 1) and
// JUPYTER_SERVER_CONTAINER_RESTART_LIMIT (default 3).
type RestartLimits struct {
	Init    int32
	Regular int32
}

// DefaultRestartLimits returns the documented defaults.
func DefaultRestartLimits() RestartLimits {
	return RestartLimits{Init: 1, Regular: 3}
}

// Input is the typed snapshot the deriver consumes, built once at event
// entry: all downstream logic reads these fields, never the raw
// unstructured object.
type Input struct {
	Hibernated        bool
	DeletionTimestamp *metav1.Time

	HasPod                bool
	PodPhase              corev1.PodPhase
	PodCreationTimestamp  time.Time
	Conditions            []corev1.PodCondition
	InitContainerStatuses []corev1.ContainerStatus
	ContainerStatuses     []corev1.ContainerStatus

	RestartLimits RestartLimits

	// UnschedulableFailureThreshold is UNSCHEDULABLE_FAILURE_THRESHOLD_SECONDS.
	UnschedulableFailureThreshold time.Duration

	// FullURL is the session's externally reachable URL, used by the
	// reachability probe in overall-status step 4. Empty means "no URL
	// configured yet" and is treated as not-yet-responsive.
	FullURL string

	Now time.Time

	// Prober overrides ProbeURLReachable for tests; nil uses the real probe.
	Prober URLProber
}

// Result is the deriver's output: the aggregate status plus the
// per-container phase summary to store in status.containerStates.
type Result struct {
	Status          sessionv1alpha1.OverallStatus
	ContainerStates sessionv1alpha1.ContainerStatesStatus
}

// Equal reports whether two results are equivalent for write-suppression
// purposes: the parent-event handler writes only when the status or the
// container summary actually changed.
func (r Result) Equal(other Result) bool {
	if r.Status != other.Status {
		return false
	}
	return mapsEqual(r.ContainerStates.Init, other.ContainerStates.Init) &&
		mapsEqual(r.ContainerStates.Regular, other.ContainerStates.Regular)
}

func mapsEqual(a, b map[string]sessionv1alpha1.ContainerPhase) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Derive computes the overall status and container summary from a snapshot,
// following a fixed priority chain:
//
//  1. deletionTimestamp set -> Stopping
//  2. hibernated -> Hibernated
//  3. unschedulable and pod older than the threshold -> Failed
//  4. Running phase, all containers good, all conditions True, URL responsive -> Running
//  5. Failed phase or any container failed -> Failed
//  6. otherwise -> Starting
//
// Step 1's Stopping value is a faithful computation, not a write directive:
// only the delete handler in internal/engine is permitted to persist
// Stopping; the parent-event handler that calls Derive discards a Stopping
// result rather than writing it.
func Derive(ctx context.Context, in Input) (Result, error) {
	initStates, initGood, initFailed, err := summarizeContainers(in.InitContainerStatuses, in.RestartLimits.Init)
	if err != nil {
		return Result{}, err
	}
	regularStates, regularGood, regularFailed, err := summarizeContainers(in.ContainerStatuses, in.RestartLimits.Regular)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		ContainerStates: sessionv1alpha1.ContainerStatesStatus{
			Init:    initStates,
			Regular: regularStates,
		},
	}

	if in.DeletionTimestamp != nil && !in.DeletionTimestamp.IsZero() {
		result.Status = sessionv1alpha1.StatusStopping
		return result, nil
	}

	if in.Hibernated {
		result.Status = sessionv1alpha1.StatusHibernated
		return result, nil
	}

	if in.HasPod && isUnschedulable(in.PodPhase, in.Conditions) {
		threshold := in.UnschedulableFailureThreshold
		if threshold <= 0 {
			threshold = 60 * time.Second
		}
		if podAge(in.Now, in.PodCreationTimestamp) > threshold {
			result.Status = sessionv1alpha1.StatusFailed
			return result, nil
		}
	}

	if in.HasPod && in.PodPhase == corev1.PodRunning && initGood && regularGood && allConditionsTrue(in.Conditions) {
		if probeURL(ctx, in) {
			result.Status = sessionv1alpha1.StatusRunning
			return result, nil
		}
	}

	if in.HasPod && (in.PodPhase == corev1.PodFailed || initFailed || regularFailed) {
		result.Status = sessionv1alpha1.StatusFailed
		return result, nil
	}

	result.Status = sessionv1alpha1.StatusStarting
	return result, nil
}

func probeURL(ctx context.Context, in Input) bool {
	if in.FullURL == "" {
		return false
	}
	prober := in.Prober
	if prober == nil {
		prober = ProbeURLReachable
	}
	return prober(ctx, in.FullURL)
}
