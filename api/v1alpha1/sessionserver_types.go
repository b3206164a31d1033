package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
)

// OverallStatus is the aggregate lifecycle state the status deriver computes
// for a SessionServer. See internal/status for the derivation itself.
type OverallStatus string

const (
	StatusStarting   OverallStatus = "Starting"
	StatusRunning    OverallStatus = "Running"
	StatusStopping   OverallStatus = "Stopping"
	StatusFailed     OverallStatus = "Failed"
	StatusHibernated OverallStatus = "Hibernated"
)

// ContainerPhase is the normalized per-container phase the status deriver
// produces from a container's tagged-union state plus readiness/restarts.
type ContainerPhase string

const (
	ContainerPhaseReady     ContainerPhase = "ready"
	ContainerPhaseFailed    ContainerPhase = "failed"
	ContainerPhaseExecuting ContainerPhase = "executing"
	ContainerPhaseWaiting   ContainerPhase = "waiting"
)

// ChildKey identifies one of the session's direct child resources.
type ChildKey string

const (
	ChildKeyService     ChildKey = "service"
	ChildKeyIngress     ChildKey = "ingress"
	ChildKeyStatefulSet ChildKey = "statefulset"
	ChildKeyConfigMap   ChildKey = "configmap"
	ChildKeySecret      ChildKey = "secret"
	ChildKeyPVC         ChildKey = "pvc"
)

// PatchType selects which write discipline a spec.patches entry uses when
// the reconciler applies it to a child resource.
type PatchType string

const (
	PatchTypeJSONPatch  PatchType = "json-patch"
	PatchTypeMergePatch PatchType = "merge-patch"
)

// JupyterServerSpec describes the session workload itself.
type JupyterServerSpec struct {
	// Image is the container image for the main session container.
	// +optional
	Image string `json:"image,omitempty"`

	// Hibernated requests that the session be scaled to zero replicas while
	// preserving the parent object and its PVC. Nil means "no opinion" (the
	// field handler treats it as a no-op, distinct from explicit false).
	// +optional
	Hibernated *bool `json:"hibernated,omitempty"`

	// Resources are applied to the main container of the child StatefulSet's
	// pod template. Edits are pushed down by the resources field handler.
	// +optional
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`
}

// StorageSpec controls the optional persistent home directory.
type StorageSpec struct {
	// Size is a Kubernetes quantity string, e.g. "10Gi".
	// +optional
	Size string `json:"size,omitempty"`

	// +optional
	PVC PVCSpec `json:"pvc,omitempty"`
}

// PVCSpec toggles PVC-backed storage versus an emptyDir.
type PVCSpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
}

// OIDCSpec toggles OIDC-based auth in front of the session (the operator
// itself performs no authentication; this only shapes the generated
// ingress/auth-proxy configuration).
type OIDCSpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
}

// AuthSpec carries the session's own access token and OIDC toggle.
type AuthSpec struct {
	// Token is used by the activity probe as a query
	// parameter when reaching the session's own status endpoint.
	// +optional
	Token string `json:"token,omitempty"`

	// +optional
	OIDC OIDCSpec `json:"oidc,omitempty"`
}

// TLSSpec toggles TLS termination on the generated ingress.
type TLSSpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
}

// RoutingSpec shapes the generated Ingress.
type RoutingSpec struct {
	// +optional
	Host string `json:"host,omitempty"`
	// +optional
	Path string `json:"path,omitempty"`
	// +optional
	TLS TLSSpec `json:"tls,omitempty"`
	// +optional
	IngressAnnotations map[string]string `json:"ingressAnnotations,omitempty"`
}

// CullingSpec configures the five independent culling thresholds. A value of
// 0 disables the corresponding rule.
type CullingSpec struct {
	// +optional
	IdleSecondsThreshold int64 `json:"idleSecondsThreshold,omitempty"`
	// +optional
	MaxAgeSecondsThreshold int64 `json:"maxAgeSecondsThreshold,omitempty"`
	// +optional
	StartingSecondsThreshold int64 `json:"startingSecondsThreshold,omitempty"`
	// +optional
	FailedSecondsThreshold int64 `json:"failedSecondsThreshold,omitempty"`
	// +optional
	HibernatedSecondsThreshold int64 `json:"hibernatedSecondsThreshold,omitempty"`
}

// PatchSpec is one entry of the ordered spec.patches sequence. Each
// entry is applied, in order, to the rendered child manifests before they
// are submitted to the API server.
type PatchSpec struct {
	// +kubebuilder:validation:Enum=json-patch;merge-patch
	Type PatchType `json:"type"`

	// Patch is the raw patch body: a JSON-Patch array for PatchTypeJSONPatch,
	// or a merge document for PatchTypeMergePatch.
	Patch runtime.RawExtension `json:"patch"`
}

// SessionServerSpec defines the desired state of a SessionServer.
type SessionServerSpec struct {
	// +optional
	JupyterServer JupyterServerSpec `json:"jupyterServer,omitempty"`
	// +optional
	Storage StorageSpec `json:"storage,omitempty"`
	// +optional
	Auth AuthSpec `json:"auth,omitempty"`
	// +optional
	Routing RoutingSpec `json:"routing,omitempty"`
	// +optional
	Culling CullingSpec `json:"culling,omitempty"`
	// +optional
	Patches []PatchSpec `json:"patches,omitempty"`
}

// ContainerStatesStatus is the `status.containerStates` shape: a normalized
// phase per init and regular container, keyed by container name.
type ContainerStatesStatus struct {
	// +optional
	Init map[string]ContainerPhase `json:"init,omitempty"`
	// +optional
	Regular map[string]ContainerPhase `json:"regular,omitempty"`
}

// MainPodStatus is the last observed snapshot of the session's main pod,
// the grandchild produced by the StatefulSet. Status holds the raw pod
// status the status deriver reads from; it is not interpreted here.
type MainPodStatus struct {
	// +optional
	Name string `json:"name,omitempty"`
	// +optional
	UID types.UID `json:"uid,omitempty"`
	// +optional
	Kind string `json:"kind,omitempty"`
	// +optional
	APIVersion string `json:"apiVersion,omitempty"`
	// +optional
	Status *corev1.PodStatus `json:"status,omitempty"`
	// ResourceUsage is populated by the optional resource-usage reporter;
	// nil until the first successful exec probe.
	// +optional
	ResourceUsage *PodResourceUsage `json:"resourceUsage,omitempty"`
}

// PodResourceUsage is the parsed result of a `du`/`df` exec probe.
type PodResourceUsage struct {
	// +optional
	UsedBytes *int64 `json:"usedBytes,omitempty"`
	// +optional
	AvailableBytes *int64 `json:"availableBytes,omitempty"`
	// +optional
	TotalBytes *int64 `json:"totalBytes,omitempty"`
}

// ChildResourceStatus is the last observed `{uid, name, kind, apiVersion,
// status}` snapshot of one direct child resource.
type ChildResourceStatus struct {
	// +optional
	UID types.UID `json:"uid,omitempty"`
	// +optional
	Name string `json:"name,omitempty"`
	// +optional
	Kind string `json:"kind,omitempty"`
	// +optional
	APIVersion string `json:"apiVersion,omitempty"`
	// Status is a short observed-status summary text for this child (e.g.
	// "replicas=<ready>/<total>" for the StatefulSet; empty for kinds with
	// nothing summarized); unlike MainPodStatus
	// no full status object is retained for non-pod children.
	// +optional
	Status string `json:"status,omitempty"`
}

// StatefulSetEventStatus records the last relevant quota-surfacing event
// text observed for the child StatefulSet.
type StatefulSetEventStatus struct {
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	Timestamp *metav1.Time `json:"timestamp,omitempty"`
}

// EventsStatus groups last-observed-event snapshots by child kind. Only
// StatefulSet quota events are tracked today; the shape leaves
// room to grow without a breaking change.
type EventsStatus struct {
	// +optional
	StatefulSet *StatefulSetEventStatus `json:"statefulset,omitempty"`
}

// SessionServerStatus defines the observed state of a SessionServer. Only
// the operator writes these fields.
type SessionServerStatus struct {
	// +optional
	State OverallStatus `json:"state,omitempty"`

	// +optional
	StartingSince *metav1.Time `json:"startingSince,omitempty"`
	// +optional
	FailedSince *metav1.Time `json:"failedSince,omitempty"`
	// +optional
	HibernatedSince *metav1.Time `json:"hibernatedSince,omitempty"`

	// +optional
	ContainerStates ContainerStatesStatus `json:"containerStates,omitempty"`

	// +optional
	MainPod *MainPodStatus `json:"mainPod,omitempty"`

	// Children maps a child key to its last observed snapshot.
	// +optional
	Children map[ChildKey]ChildResourceStatus `json:"children,omitempty"`

	// +optional
	Events EventsStatus `json:"events,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=jss
// +kubebuilder:printcolumn:name="State",type=string,JSONPath=`.status.state`
// +kubebuilder:printcolumn:name="Hibernated",type=boolean,JSONPath=`.spec.jupyterServer.hibernated`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// SessionServer is the Schema for the SessionServer API (historically a
// Jupyter-style interactive compute session).
type SessionServer struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SessionServerSpec   `json:"spec,omitempty"`
	Status SessionServerStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// SessionServerList contains a list of SessionServer.
type SessionServerList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SessionServer `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SessionServer{}, &SessionServerList{})
}
