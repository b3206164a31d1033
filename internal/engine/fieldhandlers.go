package engine

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/manifests"
)

// HandleHibernatedField reacts to spec.jupyterServer.hibernated edits: a
// missing value is a no-op; true scales the child
// StatefulSet to zero replicas, false scales it back to one.
func (e *Engine) HandleHibernatedField(ctx context.Context, parent *sessionv1alpha1.SessionServer) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("hibernated-field", start, err) }()

	if parent.Spec.JupyterServer.Hibernated == nil {
		return nil
	}
	replicas := int32(1)
	if *parent.Spec.JupyterServer.Hibernated {
		replicas = 0
	}
	return e.patchStatefulSet(ctx, parent, func(sts *appsv1.StatefulSet) {
		sts.Spec.Replicas = &replicas
	})
}

// HandleResourcesField pushes spec.jupyterServer.resources down onto the
// StatefulSet pod template's main container.
func (e *Engine) HandleResourcesField(ctx context.Context, parent *sessionv1alpha1.SessionServer) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("resources-field", start, err) }()

	return e.patchStatefulSet(ctx, parent, func(sts *appsv1.StatefulSet) {
		if len(sts.Spec.Template.Spec.Containers) == 0 {
			return
		}
		sts.Spec.Template.Spec.Containers[0].Resources = parent.Spec.JupyterServer.Resources
	})
}

func (e *Engine) patchStatefulSet(ctx context.Context, parent *sessionv1alpha1.SessionServer, mutate func(*appsv1.StatefulSet)) error {
	name := manifests.ChildName(parent.Name, sessionv1alpha1.ChildKeyStatefulSet)
	key := types.NamespacedName{Namespace: parent.Namespace, Name: name}

	var sts appsv1.StatefulSet
	if err := e.Client.Get(ctx, key, &sts); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	original := sts.DeepCopy()
	mutate(&sts)
	return e.Client.Patch(ctx, &sts, client.MergeFrom(original))
}
