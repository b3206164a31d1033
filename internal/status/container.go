package status

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// ContainerType distinguishes init from regular containers, each carrying
// its own configured restart limit.
type ContainerType int

const (
	ContainerTypeInit ContainerType = iota
	ContainerTypeRegular
)

// containerStateTag is the Go tagged union replacing Kubernetes' single-key
// object encoding of {waiting, running, terminated}, so the derivation
// becomes a switch rather than key probing.
type containerStateTag int

const (
	containerWaiting containerStateTag = iota
	containerRunning
	containerTerminated
)

type normalizedContainer struct {
	tag          containerStateTag
	ready        bool
	restarts     int32
	lastExitCode int32
}

// normalizeContainerStatus converts a corev1.ContainerStatus's
// waiting/running/terminated pointer triple into the tagged union. Exactly
// one of the three is expected set; none set is treated as waiting;
// more than one set is a derivation failure.
func normalizeContainerStatus(cs corev1.ContainerStatus) (normalizedContainer, error) {
	set := 0
	if cs.State.Waiting != nil {
		set++
	}
	if cs.State.Running != nil {
		set++
	}
	if cs.State.Terminated != nil {
		set++
	}
	if set > 1 {
		return normalizedContainer{}, fmt.Errorf("container %q reports more than one state key", cs.Name)
	}

	n := normalizedContainer{ready: cs.Ready, restarts: cs.RestartCount}
	switch {
	case cs.State.Terminated != nil:
		n.tag = containerTerminated
		n.lastExitCode = cs.State.Terminated.ExitCode
	case cs.State.Running != nil:
		n.tag = containerRunning
	default:
		n.tag = containerWaiting
	}
	return n, nil
}

func (n normalizedContainer) completedSuccessfully() bool {
	return n.tag == containerTerminated && n.lastExitCode == 0 && n.ready
}

func (n normalizedContainer) runningReady() bool {
	return n.tag == containerRunning && n.ready
}

func (n normalizedContainer) failed(restartLimit int32) bool {
	return !n.completedSuccessfully() && n.restarts > restartLimit
}

// classifyPhase maps a normalized container onto the four status phases the
// SessionServer's status.containerStates records.
func classifyPhase(n normalizedContainer, restartLimit int32) sessionv1alpha1.ContainerPhase {
	switch {
	case n.completedSuccessfully(), n.runningReady():
		return sessionv1alpha1.ContainerPhaseReady
	case n.failed(restartLimit):
		return sessionv1alpha1.ContainerPhaseFailed
	case n.tag == containerRunning:
		return sessionv1alpha1.ContainerPhaseExecuting
	default:
		return sessionv1alpha1.ContainerPhaseWaiting
	}
}

// summarizeContainers normalizes and classifies a full set of container
// statuses, returning the per-name phase map plus whether every container is
// "good" (completed-successfully or running-ready) and whether any is
// failed, both inputs to the overall-status priority chain.
func summarizeContainers(statuses []corev1.ContainerStatus, restartLimit int32) (phases map[string]sessionv1alpha1.ContainerPhase, allGood bool, anyFailed bool, err error) {
	out := make(map[string]sessionv1alpha1.ContainerPhase, len(statuses))
	allGood = true
	for _, cs := range statuses {
		n, nerr := normalizeContainerStatus(cs)
		if nerr != nil {
			return nil, false, false, nerr
		}
		phase := classifyPhase(n, restartLimit)
		out[cs.Name] = phase
		if phase == sessionv1alpha1.ContainerPhaseFailed {
			anyFailed = true
		}
		if !(n.completedSuccessfully() || n.runningReady()) {
			allGood = false
		}
	}
	return out, allGood, anyFailed, nil
}
