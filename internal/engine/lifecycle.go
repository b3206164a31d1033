package engine

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/manifests"
	"github.com/sessionserver-operator/operator/internal/metricsink"
)

// childKeyAndGVK identifies which of the six built-in child keys a rendered
// object corresponds to, and its GroupVersionKind for the status.children
// snapshot. Only the types internal/manifests.Build ever produces reach
// here.
func childKeyAndGVK(obj client.Object) (sessionv1alpha1.ChildKey, schema.GroupVersionKind) {
	switch obj.(type) {
	case *appsv1.StatefulSet:
		return sessionv1alpha1.ChildKeyStatefulSet, appsv1.SchemeGroupVersion.WithKind("StatefulSet")
	case *corev1.Service:
		return sessionv1alpha1.ChildKeyService, corev1.SchemeGroupVersion.WithKind("Service")
	case *corev1.ConfigMap:
		return sessionv1alpha1.ChildKeyConfigMap, corev1.SchemeGroupVersion.WithKind("ConfigMap")
	case *corev1.Secret:
		return sessionv1alpha1.ChildKeySecret, corev1.SchemeGroupVersion.WithKind("Secret")
	case *corev1.PersistentVolumeClaim:
		return sessionv1alpha1.ChildKeyPVC, corev1.SchemeGroupVersion.WithKind("PersistentVolumeClaim")
	case *networkingv1.Ingress:
		return sessionv1alpha1.ChildKeyIngress, networkingv1.SchemeGroupVersion.WithKind("Ingress")
	default:
		return "", schema.GroupVersionKind{}
	}
}

// HandleCreate reacts to a new parent: render child manifests,
// label and adopt them, submit them, and mark the parent Starting. This is
// the only handler permitted to set state=Starting from scratch (the
// parent-event handler only recomputes it afterward).
func (e *Engine) HandleCreate(ctx context.Context, parent *sessionv1alpha1.SessionServer) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("create", start, err) }()

	set := manifests.Build(parent.Name, parent.Namespace, parent.Spec)

	set, err = manifests.ApplyPatches(set, parent.Spec.Patches)
	if err != nil {
		return fmt.Errorf("applying spec.patches for %s/%s: %w", parent.Namespace, parent.Name, err)
	}

	// The main pod is a grandchild produced by the StatefulSet, not one of
	// the directly-created objects below, so its main-pod label has
	// to be injected into the pod template here rather than picked up by the
	// per-object loop's LabelsFor(..., isMainPod=false) call.
	podLabels := e.Labels.LabelsFor(parent.Labels, parent.UID, parent.Name, "", true)
	if set.StatefulSet.Spec.Template.Labels == nil {
		set.StatefulSet.Spec.Template.Labels = map[string]string{}
	}
	for k, v := range podLabels {
		set.StatefulSet.Spec.Template.Labels[k] = v
	}

	objects := []client.Object{set.StatefulSet, set.Service, set.ConfigMap, set.Secret}
	if set.Ingress != nil {
		objects = append(objects, set.Ingress)
	}
	if set.PVC != nil {
		objects = append(objects, set.PVC)
	}

	children := map[sessionv1alpha1.ChildKey]sessionv1alpha1.ChildResourceStatus{}

	for _, obj := range objects {
		key, gvk := childKeyAndGVK(obj)
		obj.SetLabels(e.Labels.LabelsFor(parent.Labels, parent.UID, parent.Name, key, false))
		if err := controllerutil.SetControllerReference(parent, obj, e.Client.Scheme()); err != nil {
			return fmt.Errorf("setting owner reference on %s: %w", obj.GetName(), err)
		}
		if err := e.Client.Create(ctx, obj); err != nil && !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("creating child %s %s: %w", gvk.Kind, obj.GetName(), err)
		}
		children[key] = sessionv1alpha1.ChildResourceStatus{
			UID:        obj.GetUID(),
			Name:       obj.GetName(),
			Kind:       gvk.Kind,
			APIVersion: gvk.GroupVersion().String(),
		}
	}

	now := metav1.NewTime(time.Now())
	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}

	if err := e.Writer.PatchParentStatusMerge(ctx, key, map[string]interface{}{
		"state":         sessionv1alpha1.StatusStarting,
		"startingSince": now,
		"children":      children,
	}); err != nil {
		return err
	}

	lastActivity := labels.NewAnnotationKeys(e.Config.APIGroup).LastActivityDate
	return e.Writer.PatchParentAnnotationsMerge(ctx, key, map[string]interface{}{
		lastActivity: now.Format(time.RFC3339),
	})
}

// HandleDelete reacts to parent deletion. It is the only handler that
// persists state=Stopping; the parent-event handler refuses to, so there is
// a single writer for that state. Cascading garbage collection via owner
// references removes the children; nothing else needs to happen here beyond
// the transition event every state change (and deletion) emits.
func (e *Engine) HandleDelete(ctx context.Context, parent *sessionv1alpha1.SessionServer) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("delete", start, err) }()

	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}
	oldStatus := parent.Status.State
	if err := e.Writer.PatchParentStatusMerge(ctx, key, map[string]interface{}{
		"state": sessionv1alpha1.StatusStopping,
	}); err != nil {
		return err
	}

	if e.MetricSink != nil {
		e.MetricSink.Enqueue(metricsink.Event{
			Timestamp: time.Now(),
			Namespace: key.Namespace,
			Name:      key.Name,
			OldStatus: oldStatus,
			NewStatus: sessionv1alpha1.StatusStopping,
		})
	}
	return nil
}

