package controllers

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	toolscache "k8s.io/client-go/tools/cache"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
)

// builtinChildKind pairs one of the six built-in child kinds with its
// ChildKey and GVK, so a single loop can register all six informers
// instead of six near-identical functions.
type builtinChildKind struct {
	obj      client.Object
	childKey sessionv1alpha1.ChildKey
	gvk      schema.GroupVersionKind
}

// ChildResourceController fans informer events for the six built-in child
// kinds and the session's main pod into engine.HandleChildEvent calls.
// Extra, operator-configured child kinds are handled separately by
// ExtraChildController since they need dynamic-client informers built from
// discovery rather than a compile-time GVK.
type ChildResourceController struct {
	Engine *engine.Engine
	Labels labels.Policy
}

func builtinChildKinds() []builtinChildKind {
	return []builtinChildKind{
		{&appsv1.StatefulSet{}, sessionv1alpha1.ChildKeyStatefulSet, appsv1.SchemeGroupVersion.WithKind("StatefulSet")},
		{&corev1.Service{}, sessionv1alpha1.ChildKeyService, corev1.SchemeGroupVersion.WithKind("Service")},
		{&corev1.ConfigMap{}, sessionv1alpha1.ChildKeyConfigMap, corev1.SchemeGroupVersion.WithKind("ConfigMap")},
		{&corev1.Secret{}, sessionv1alpha1.ChildKeySecret, corev1.SchemeGroupVersion.WithKind("Secret")},
		{&corev1.PersistentVolumeClaim{}, sessionv1alpha1.ChildKeyPVC, corev1.SchemeGroupVersion.WithKind("PersistentVolumeClaim")},
		{&networkingv1.Ingress{}, sessionv1alpha1.ChildKeyIngress, networkingv1.SchemeGroupVersion.WithKind("Ingress")},
	}
}

// SetupWithManager registers one informer event handler per built-in child
// kind plus the Pod informer (filtered down to the main pod at dispatch
// time, since the manager's cache does not support a label-selector
// predicate per-informer here without a second cache instance).
func (c *ChildResourceController) SetupWithManager(mgr ctrl.Manager) error {
	ctx := context.Background()

	for _, kind := range builtinChildKinds() {
		informer, err := mgr.GetCache().GetInformer(ctx, kind.obj)
		if err != nil {
			return fmt.Errorf("getting informer for %s: %w", kind.gvk.Kind, err)
		}
		childKey, gvk := kind.childKey, kind.gvk
		_, err = informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
			AddFunc:    c.childHandler(engine.EventAdded, childKey, gvk),
			UpdateFunc: func(_, newObj interface{}) { c.childHandler(engine.EventModified, childKey, gvk)(newObj) },
			DeleteFunc: c.childHandler(engine.EventDeleted, childKey, gvk),
		})
		if err != nil {
			return fmt.Errorf("registering event handler for %s: %w", gvk.Kind, err)
		}
	}

	podInformer, err := mgr.GetCache().GetInformer(ctx, &corev1.Pod{})
	if err != nil {
		return fmt.Errorf("getting Pod informer: %w", err)
	}
	_, err = podInformer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc:    c.podHandler(engine.EventAdded),
		UpdateFunc: func(_, newObj interface{}) { c.podHandler(engine.EventModified)(newObj) },
		DeleteFunc: c.podHandler(engine.EventDeleted),
	})
	if err != nil {
		return fmt.Errorf("registering Pod event handler: %w", err)
	}
	return nil
}

func (c *ChildResourceController) childHandler(eventType engine.EventType, childKey sessionv1alpha1.ChildKey, gvk schema.GroupVersionKind) func(interface{}) {
	return func(raw interface{}) {
		obj, ok := toObject(raw)
		if !ok {
			return
		}
		ref, ok := c.parentRefOf(obj)
		if !ok {
			return
		}
		ev := engine.ChildEvent{
			Parent:       ref,
			Type:         eventType,
			ChildKey:     string(childKey),
			UID:          obj.GetUID(),
			Name:         obj.GetName(),
			Kind:         gvk.Kind,
			APIVersion:   gvk.GroupVersion().String(),
			ObjectLabels: obj.GetLabels(),
			OwnerUIDs:    k8sclient.OwnerUIDs(obj.GetOwnerReferences()),
			Status:       summarizeStatus(obj),
		}
		c.submit(ref, ev)
	}
}

func (c *ChildResourceController) podHandler(eventType engine.EventType) func(interface{}) {
	return func(raw interface{}) {
		obj, ok := toObject(raw)
		if !ok {
			return
		}
		pod, ok := obj.(*corev1.Pod)
		if !ok || !c.Labels.IsMainPod(pod.GetLabels()) {
			return
		}
		ref, ok := c.parentRefOf(pod)
		if !ok {
			return
		}
		status := pod.Status
		ev := engine.ChildEvent{
			Parent:       ref,
			Type:         eventType,
			MainPod:      true,
			UID:          pod.GetUID(),
			Name:         pod.GetName(),
			Kind:         "Pod",
			APIVersion:   corev1.SchemeGroupVersion.String(),
			ObjectLabels: pod.GetLabels(),
			PodStatus:    &status,
		}
		c.submit(ref, ev)
	}
}

// parentRefOf reads the parent-name/parent-uid labels every child carries
// (internal/labels.LabelsFor sets both unconditionally, including on the
// main pod), so no owner-reference traversal is needed to locate the
// parent.
func (c *ChildResourceController) parentRefOf(o client.Object) (engine.ParentRef, bool) {
	keys := c.Labels.Keys()
	lbls := o.GetLabels()
	name, ok := lbls[keys.ParentName]
	if !ok || name == "" {
		return engine.ParentRef{}, false
	}
	return engine.ParentRef{Namespace: o.GetNamespace(), Name: name, UID: types.UID(lbls[keys.ParentUID])}, true
}

func (c *ChildResourceController) submit(ref engine.ParentRef, ev engine.ChildEvent) {
	c.Engine.Pool.Submit(ref.Key(), func() {
		if err := c.Engine.HandleChildEvent(context.Background(), ev); err != nil {
			c.Engine.Log.Error(err, "child event handler failed",
				"namespace", ref.Namespace, "name", ref.Name, "childKey", ev.ChildKey, "kind", ev.Kind)
		}
	})
}

// toObject unwraps the DeletedFinalStateUnknown tombstone a DeleteFunc may
// receive on an informer resync and asserts the result to client.Object,
// which every typed and unstructured kind here satisfies.
func toObject(raw interface{}) (client.Object, bool) {
	if tomb, ok := raw.(toolscache.DeletedFinalStateUnknown); ok {
		raw = tomb.Obj
	}
	o, ok := raw.(client.Object)
	return o, ok
}

// summarizeStatus produces the short status.children[key].status text;
// only StatefulSet and Ingress carry anything worth summarizing
// among the six built-in kinds.
func summarizeStatus(o client.Object) string {
	switch v := o.(type) {
	case *appsv1.StatefulSet:
		return fmt.Sprintf("replicas=%d/%d", v.Status.ReadyReplicas, v.Status.Replicas)
	case *networkingv1.Ingress:
		if len(v.Status.LoadBalancer.Ingress) > 0 {
			return "load-balancer-assigned"
		}
		return "pending"
	default:
		return ""
	}
}
