// Package labels defines the canonical label set applied to every child
// resource and the main pod, and the ownership filter watchers use to
// decide whether an event belongs to a given parent.
package labels

import (
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// Keys holds the group-namespaced label keys derived from the configured
// API group.
type Keys struct {
	ParentUID  string
	ParentName string
	ChildKey   string
	MainPod    string
}

// NewKeys builds the label keys for the given API group, e.g. "amalthea.dev".
func NewKeys(apiGroup string) Keys {
	return Keys{
		ParentUID:  apiGroup + "/parent-uid",
		ParentName: apiGroup + "/parent-name",
		ChildKey:   apiGroup + "/child-key",
		MainPod:    apiGroup + "/main-pod",
	}
}

// ComponentLabel is always "app.kubernetes.io/component"; it is not group
// namespaced because it is a standard Kubernetes recommended label.
const ComponentLabel = "app.kubernetes.io/component"

// AnnotationKeys holds the group-namespaced annotation keys the engine and
// culling controller read and write on the parent: last-activity-date,
// hibernation, hibernation-date.
type AnnotationKeys struct {
	LastActivityDate string
	Hibernation      string
	HibernationDate  string
}

// NewAnnotationKeys builds the annotation keys for the given API group.
func NewAnnotationKeys(apiGroup string) AnnotationKeys {
	return AnnotationKeys{
		LastActivityDate: apiGroup + "/last-activity-date",
		Hibernation:      apiGroup + "/hibernation",
		HibernationDate:  apiGroup + "/hibernation-date",
	}
}

// Policy derives labels and decides ownership for one operator instance. It
// is immutable after construction and safe for concurrent use across
// workers.
type Policy struct {
	keys            Keys
	parentKindLower string
	selectorLabels  map[string]string
}

// NewPolicy builds a Policy. parentKind is the kind name; its lower-cased
// form is used for the app.kubernetes.io/component label (e.g.
// "SessionServer" gives "sessionserver"). selector
// carries the operator-configured extra labels from AMALTHEA_SELECTOR_LABELS,
// applied at the lowest precedence tier.
func NewPolicy(apiGroup, parentKind string, selector map[string]string) Policy {
	return Policy{
		keys:            NewKeys(apiGroup),
		parentKindLower: lower(parentKind),
		selectorLabels:  selector,
	}
}

func (p Policy) Keys() Keys { return p.keys }

// LabelsFor merges, in precedence order (lowest to highest): the parent's
// own labels, the configured selector labels, then the canonical set. The
// child-key label is set iff childKey is non-empty; the main-pod label is
// set iff isMainPod, and in that case child-key is omitted entirely: the
// main pod never carries child-key.
func (p Policy) LabelsFor(parentLabels map[string]string, parentUID types.UID, parentName string, childKey sessionv1alpha1.ChildKey, isMainPod bool) map[string]string {
	out := make(map[string]string, len(parentLabels)+len(p.selectorLabels)+5)
	for k, v := range parentLabels {
		out[k] = v
	}
	for k, v := range p.selectorLabels {
		out[k] = v
	}
	out[p.keys.ParentUID] = string(parentUID)
	out[p.keys.ParentName] = parentName
	out[ComponentLabel] = p.parentKindLower

	if isMainPod {
		out[p.keys.MainPod] = "true"
		delete(out, p.keys.ChildKey)
		return out
	}
	if childKey != "" {
		out[p.keys.ChildKey] = string(childKey)
	}
	return out
}

// IsMainPod reports whether a label set identifies the session's main pod.
func (p Policy) IsMainPod(objLabels map[string]string) bool {
	return objLabels[p.keys.MainPod] == "true"
}

// ChildKeyOf extracts the child-key label value, if any.
func (p Policy) ChildKeyOf(objLabels map[string]string) (sessionv1alpha1.ChildKey, bool) {
	v, ok := objLabels[p.keys.ChildKey]
	if !ok {
		return "", false
	}
	return sessionv1alpha1.ChildKey(v), true
}

// IsOwnedByParent reports whether an observed child resource belongs to the
// given parent: either its ownerReferences include parentUID, or it is the
// main pod (a grandchild via the StatefulSet, so it never carries an owner
// reference to the SessionServer directly).
func (p Policy) IsOwnedByParent(objLabels map[string]string, ownerUIDs []types.UID, parentUID types.UID) bool {
	if p.IsMainPod(objLabels) {
		return true
	}
	for _, uid := range ownerUIDs {
		if uid == parentUID {
			return true
		}
	}
	return false
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
