package engine

import (
	"time"

	"k8s.io/apimachinery/pkg/types"
)

// EventType preserves the watch event type so ADDED/MODIFIED/DELETED reach
// the handler instead of being collapsed into one "resource changed"
// callback; the child-event handler maps each to a distinct patch op.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
)

// ParentRef identifies the SessionServer a queued event belongs to, and is
// the serialization key the per-parent worker pool dispatches on.
type ParentRef struct {
	Namespace string
	Name      string
	UID       types.UID
}

func (p ParentRef) Key() string { return p.Namespace + "/" + p.Name }

// ChildEvent is one observed event on a resource carrying the parent-name
// label: any of the six built-in child kinds, the main pod, or an
// operator-configured extra child resource.
type ChildEvent struct {
	Parent ParentRef
	Type   EventType

	// MainPod is true iff the object's main-pod label is set; in that case
	// ChildKey is ignored and the main-pod status slot is the target.
	MainPod  bool
	ChildKey string

	UID        types.UID
	Name       string
	Kind       string
	APIVersion string

	// ObjectLabels/OwnerUIDs let the handler re-run the ownership filter
	// independently of whatever watch-level filtering already happened.
	ObjectLabels map[string]string
	OwnerUIDs    []types.UID

	// Status is a short observed-status summary for non-pod children, or
	// empty for the main pod (whose full corev1.PodStatus is supplied
	// separately by the caller via PodStatus).
	Status   string
	PodStatus any // *corev1.PodStatus when MainPod is true, nil otherwise
}

// ParentEvent is any event on the parent kind itself.
type ParentEvent struct {
	Parent ParentRef
	Type   EventType
}

// StatefulSetEvent is a core Event object whose involvedObject.kind is
// StatefulSet.
type StatefulSetEvent struct {
	Parent        ParentRef
	Reason        string
	Message       string
	LastTimestamp time.Time

	// InvolvedObjectLabels is used to confirm the StatefulSet belongs to
	// this operator before the event is applied.
	InvolvedObjectLabels map[string]string
}
