package controllers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	toolscache "k8s.io/client-go/tools/cache"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/labels"
)

// StatefulSetEventController watches core Event objects and forwards the
// ones whose involvedObject is a StatefulSet to
// engine.HandleStatefulSetEvent, which surfaces quota-rejection text the
// StatefulSet's own status never carries.
type StatefulSetEventController struct {
	Client client.Client
	Engine *engine.Engine
	Labels labels.Policy
	Log    logr.Logger
}

func (c *StatefulSetEventController) SetupWithManager(mgr ctrl.Manager) error {
	informer, err := mgr.GetCache().GetInformer(context.Background(), &corev1.Event{})
	if err != nil {
		return fmt.Errorf("getting Event informer: %w", err)
	}
	_, err = informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc:    c.onEvent,
		UpdateFunc: func(_, newObj interface{}) { c.onEvent(newObj) },
	})
	if err != nil {
		return fmt.Errorf("registering Event handler: %w", err)
	}
	return nil
}

func (c *StatefulSetEventController) onEvent(raw interface{}) {
	obj, ok := toObject(raw)
	if !ok {
		return
	}
	event, ok := obj.(*corev1.Event)
	if !ok || event.InvolvedObject.Kind != "StatefulSet" {
		return
	}

	ctx := context.Background()
	var sts appsv1.StatefulSet
	key := types.NamespacedName{Namespace: event.InvolvedObject.Namespace, Name: event.InvolvedObject.Name}
	if err := c.Client.Get(ctx, key, &sts); err != nil {
		if !apierrors.IsNotFound(err) {
			c.Log.Error(err, "fetching involved StatefulSet failed", "namespace", key.Namespace, "name", key.Name)
		}
		return
	}

	keys := c.Labels.Keys()
	parentName, ok := sts.Labels[keys.ParentName]
	if !ok || parentName == "" {
		return
	}
	ref := engine.ParentRef{
		Namespace: sts.Namespace,
		Name:      parentName,
		UID:       types.UID(sts.Labels[keys.ParentUID]),
	}

	ev := engine.StatefulSetEvent{
		Parent:               ref,
		Reason:               event.Reason,
		Message:              event.Message,
		LastTimestamp:        event.LastTimestamp.Time,
		InvolvedObjectLabels: sts.Labels,
	}

	c.Engine.Pool.Submit(ref.Key(), func() {
		if err := c.Engine.HandleStatefulSetEvent(context.Background(), ev); err != nil {
			c.Log.Error(err, "statefulset event handler failed", "namespace", ref.Namespace, "name", ref.Name)
		}
	})
}
