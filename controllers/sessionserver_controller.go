// Package controllers adapts controller-runtime's manager and shared cache
// into the raw add/update/delete callbacks internal/engine and
// internal/culling are written against. The standard Reconciler interface
// collapses ADDED/MODIFIED/DELETED into one undifferentiated "reconcile
// this key" call, which loses the event-type distinction the child-slot
// patch ops depend on. Instead each controller here registers a
// cache.ResourceEventHandlerFuncs directly against an informer obtained
// from the manager's cache and submits the resulting call onto
// internal/engine.WorkerPool keyed by parent so per-parent ordering
// survives.
package controllers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apiequality "k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	toolscache "k8s.io/client-go/tools/cache"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/culling"
	"github.com/sessionserver-operator/operator/internal/engine"
)

// FinalizerName blocks immediate removal of a SessionServer from etcd so the
// delete handler's state=Stopping write has
// an object left to write onto. Without it, an object with no other
// finalizers disappears from the API server the instant DeletionTimestamp is
// set and no UPDATE or controller ever observes the transition.
const FinalizerName = "amalthea.dev/finalizer"

// SessionServerController watches the parent kind itself: creation,
// deletion, the hibernated/resources field handlers, and status
// re-derivation on every other update.
type SessionServerController struct {
	Engine  *engine.Engine
	Culling *culling.Scheduler
	Log     logr.Logger
}

// SetupWithManager registers the parent informer's event handler. Call once
// at startup, after the manager's cache has been constructed but before
// mgr.Start.
func (c *SessionServerController) SetupWithManager(mgr ctrl.Manager) error {
	informer, err := mgr.GetCache().GetInformer(context.Background(), &sessionv1alpha1.SessionServer{})
	if err != nil {
		return fmt.Errorf("getting SessionServer informer: %w", err)
	}
	_, err = informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc:    c.onAdd,
		UpdateFunc: c.onUpdate,
		DeleteFunc: c.onDelete,
	})
	if err != nil {
		return fmt.Errorf("registering SessionServer event handler: %w", err)
	}
	return nil
}

// onAdd fires both for a genuinely new object and for every object already
// in etcd at informer sync (operator restart). status.state is empty only
// in the former case, since HandleCreate sets it immediately and it is never
// cleared afterward.
func (c *SessionServerController) onAdd(obj interface{}) {
	parent, ok := obj.(*sessionv1alpha1.SessionServer)
	if !ok {
		return
	}
	parent = parent.DeepCopy()
	if parent.DeletionTimestamp != nil {
		return
	}
	key := parentRef(parent).Key()

	c.Engine.Pool.Submit(key, func() {
		ctx := context.Background()
		if parent.Status.State == "" {
			if err := c.Engine.HandleCreate(ctx, parent); err != nil {
				c.Log.Error(err, "create handler failed", "namespace", parent.Namespace, "name", parent.Name)
				return
			}
			if err := c.ensureFinalizer(ctx, parent); err != nil {
				c.Log.Error(err, "adding finalizer failed", "namespace", parent.Namespace, "name", parent.Name)
			}
		}
		if err := c.Culling.Register(types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}); err != nil {
			c.Log.Error(err, "registering culling jobs failed", "namespace", parent.Namespace, "name", parent.Name)
		}
		if err := c.Engine.HandleParentEvent(ctx, engine.ParentEvent{Parent: parentRef(parent), Type: engine.EventAdded}); err != nil {
			c.Log.Error(err, "parent event handler failed", "namespace", parent.Namespace, "name", parent.Name)
		}
	})
}

func (c *SessionServerController) onUpdate(oldObj, newObj interface{}) {
	oldParent, ok1 := oldObj.(*sessionv1alpha1.SessionServer)
	newParent, ok2 := newObj.(*sessionv1alpha1.SessionServer)
	if !ok1 || !ok2 {
		return
	}
	newParent = newParent.DeepCopy()
	wasDeleting := oldParent.DeletionTimestamp != nil
	nowDeleting := newParent.DeletionTimestamp != nil
	key := parentRef(newParent).Key()

	hibernatedChanged := !equalHibernated(oldParent.Spec.JupyterServer.Hibernated, newParent.Spec.JupyterServer.Hibernated)
	resourcesChanged := oldParent.Generation != newParent.Generation &&
		!equalResources(oldParent.Spec.JupyterServer.Resources, newParent.Spec.JupyterServer.Resources)

	c.Engine.Pool.Submit(key, func() {
		ctx := context.Background()

		if nowDeleting && !wasDeleting {
			if err := c.Engine.HandleDelete(ctx, newParent); err != nil {
				c.Log.Error(err, "delete handler failed", "namespace", newParent.Namespace, "name", newParent.Name)
			}
			c.Culling.Unregister(types.NamespacedName{Namespace: newParent.Namespace, Name: newParent.Name})
			if err := c.removeFinalizer(ctx, newParent); err != nil {
				c.Log.Error(err, "removing finalizer failed", "namespace", newParent.Namespace, "name", newParent.Name)
			}
			return
		}
		if nowDeleting {
			return
		}

		if hibernatedChanged {
			if err := c.Engine.HandleHibernatedField(ctx, newParent); err != nil {
				c.Log.Error(err, "hibernated field handler failed", "namespace", newParent.Namespace, "name", newParent.Name)
			}
		}
		if resourcesChanged {
			if err := c.Engine.HandleResourcesField(ctx, newParent); err != nil {
				c.Log.Error(err, "resources field handler failed", "namespace", newParent.Namespace, "name", newParent.Name)
			}
		}
		if err := c.Engine.HandleParentEvent(ctx, engine.ParentEvent{Parent: parentRef(newParent), Type: engine.EventModified}); err != nil {
			c.Log.Error(err, "parent event handler failed", "namespace", newParent.Namespace, "name", newParent.Name)
		}
	})
}

// onDelete only ever observes the final removal from the informer's local
// store; the Stopping-status write already happened in onUpdate's
// nowDeleting branch. This is a safety net in case Unregister was missed
// (e.g. operator restarted between the two events).
func (c *SessionServerController) onDelete(obj interface{}) {
	parent, ok := obj.(*sessionv1alpha1.SessionServer)
	if !ok {
		tomb, ok2 := obj.(toolscache.DeletedFinalStateUnknown)
		if !ok2 {
			return
		}
		parent, ok = tomb.Obj.(*sessionv1alpha1.SessionServer)
		if !ok {
			return
		}
	}
	c.Culling.Unregister(types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name})
}

func (c *SessionServerController) ensureFinalizer(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	if controllerutil.ContainsFinalizer(parent, FinalizerName) {
		return nil
	}
	original := parent.DeepCopy()
	controllerutil.AddFinalizer(parent, FinalizerName)
	return c.Engine.Client.Patch(ctx, parent, client.MergeFrom(original))
}

func (c *SessionServerController) removeFinalizer(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	var live sessionv1alpha1.SessionServer
	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}
	if err := c.Engine.Client.Get(ctx, key, &live); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !controllerutil.ContainsFinalizer(&live, FinalizerName) {
		return nil
	}
	original := live.DeepCopy()
	controllerutil.RemoveFinalizer(&live, FinalizerName)
	return c.Engine.Client.Patch(ctx, &live, client.MergeFrom(original))
}

func parentRef(p *sessionv1alpha1.SessionServer) engine.ParentRef {
	return engine.ParentRef{Namespace: p.Namespace, Name: p.Name, UID: p.UID}
}

func equalHibernated(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalResources(a, b corev1.ResourceRequirements) bool {
	return apiequality.Semantic.DeepEqual(a, b)
}
