package controllers

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic/dynamicinformer"
	toolscache "k8s.io/client-go/tools/cache"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
)

const extraChildResyncPeriod = 10 * time.Minute

// ExtraChildController watches the operator-configured EXTRA_CHILD_RESOURCES
// via dynamic-client informers resolved through the discovery cache,
// since (unlike the six built-in kinds) their GVK is only known at runtime.
// It implements manager.Runnable directly rather than using the
// controller-runtime typed cache, which requires a compile-time Go type per
// watched kind.
type ExtraChildController struct {
	K8s    *k8sclient.Client
	Engine *engine.Engine
	Labels labels.Policy
	Refs   []config.ChildResourceRef
	Log    logr.Logger
}

// NeedLeaderElection reports that this runnable should only run on the
// elected leader, matching every other watcher in this operator.
func (c *ExtraChildController) NeedLeaderElection() bool { return true }

// Start builds one dynamic informer per configured extra child resource and
// blocks until ctx is cancelled. Resources that fail discovery are logged
// and skipped; a typo in EXTRA_CHILD_RESOURCES must not take down the rest
// of the operator.
func (c *ExtraChildController) Start(ctx context.Context) error {
	if len(c.Refs) == 0 {
		<-ctx.Done()
		return nil
	}

	factory := dynamicinformer.NewDynamicSharedInformerFactory(c.K8s.Dynamic, extraChildResyncPeriod)

	var registered []schema.GroupVersionResource
	for _, ref := range c.Refs {
		gvr, err := c.K8s.Discovery.ResourceFor(schema.GroupVersionResource{Group: ref.Group, Resource: ref.Name})
		if err != nil {
			c.Log.Error(err, "resolving extra child resource failed, skipping", "group", ref.Group, "resource", ref.Name)
			continue
		}
		gvk, err := c.K8s.Discovery.KindFor(gvr)
		if err != nil {
			c.Log.Error(err, "resolving kind for extra child resource failed, skipping", "group", ref.Group, "resource", ref.Name)
			continue
		}

		childKey := sessionv1alpha1.ChildKey(ref.Name)
		informer := factory.ForResource(gvr).Informer()
		_, err = informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
			AddFunc:    c.handler(engine.EventAdded, childKey, gvk),
			UpdateFunc: func(_, newObj interface{}) { c.handler(engine.EventModified, childKey, gvk)(newObj) },
			DeleteFunc: c.handler(engine.EventDeleted, childKey, gvk),
		})
		if err != nil {
			c.Log.Error(err, "registering event handler for extra child resource failed, skipping", "group", ref.Group, "resource", ref.Name)
			continue
		}
		registered = append(registered, gvr)
	}

	if len(registered) == 0 {
		<-ctx.Done()
		return nil
	}

	factory.Start(ctx.Done())
	synced := factory.WaitForCacheSync(ctx.Done())
	for gvr, ok := range synced {
		if !ok {
			c.Log.Info("extra child resource informer failed to sync", "resource", gvr.String())
		}
	}

	<-ctx.Done()
	return nil
}

func (c *ExtraChildController) handler(eventType engine.EventType, childKey sessionv1alpha1.ChildKey, gvk schema.GroupVersionKind) func(interface{}) {
	return func(raw interface{}) {
		obj, ok := toObject(raw)
		if !ok {
			return
		}
		keys := c.Labels.Keys()
		lbls := obj.GetLabels()
		name, ok := lbls[keys.ParentName]
		if !ok || name == "" {
			return
		}
		ref := engine.ParentRef{
			Namespace: obj.GetNamespace(),
			Name:      name,
			UID:       types.UID(lbls[keys.ParentUID]),
		}

		ev := engine.ChildEvent{
			Parent:       ref,
			Type:         eventType,
			ChildKey:     string(childKey),
			UID:          obj.GetUID(),
			Name:         obj.GetName(),
			Kind:         gvk.Kind,
			APIVersion:   gvk.GroupVersion().String(),
			ObjectLabels: lbls,
			OwnerUIDs:    k8sclient.OwnerUIDs(obj.GetOwnerReferences()),
		}
		c.Engine.Pool.Submit(ref.Key(), func() {
			if err := c.Engine.HandleChildEvent(context.Background(), ev); err != nil {
				c.Engine.Log.Error(err, "extra child event handler failed",
					"namespace", ref.Namespace, "name", ref.Name, "childKey", ev.ChildKey, "kind", ev.Kind)
			}
		})
	}
}
