// Package engine is the reconciliation engine: an explicit handler table
// plus a per-parent worker pool, built on top of controller-runtime's client
// and informers rather than its single-Reconciler interface, because that
// interface collapses the ADDED/MODIFIED/DELETED distinction the child-event
// write discipline depends on.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "gomodules.xyz/jsonpatch/v2"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// Writer applies the two patch formats all parent writes go through:
// JSON-Patch for child-slot and mainPod updates, merge-patch for state,
// timestamps, annotations and spec changes. Every method serializes
// conflicting concurrent writes via client-go's retry.RetryOnConflict.
type Writer struct {
	Client client.Client
}

// notFoundOutcome decides whether a NotFound hitting the parent during a
// write is swallowed (op = remove) or fatal (add/replace).
func notFoundOutcome(ops []jsonpatch.Operation) error {
	for _, op := range ops {
		if op.Operation != "remove" {
			return fmt.Errorf("parent not found while applying non-remove op %q at %s", op.Operation, op.Path)
		}
	}
	return nil
}

// PatchParentStatusJSON applies a JSON-Patch array to the parent's status
// subresource. A NotFound is swallowed when every op is "remove"; otherwise
// it is returned unretried, since the parent is gone and re-delivering the
// same event cannot help.
func (w *Writer) PatchParentStatusJSON(ctx context.Context, key types.NamespacedName, ops []jsonpatch.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	body, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("marshaling json-patch ops: %w", err)
	}
	patch := client.RawPatch(types.JSONPatchType, body)

	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var parent sessionv1alpha1.SessionServer
		if err := w.Client.Get(ctx, key, &parent); err != nil {
			if apierrors.IsNotFound(err) {
				return notFoundOutcome(ops)
			}
			return err
		}
		if err := w.Client.Status().Patch(ctx, &parent, patch); err != nil {
			if apierrors.IsNotFound(err) {
				return notFoundOutcome(ops)
			}
			return err
		}
		return nil
	})
}

// PatchParentStatusMerge applies a merge-patch document to the parent's
// status subresource: state, timestamps and other hibernation-derived status
// fields. doc is the desired partial `status` object.
func (w *Writer) PatchParentStatusMerge(ctx context.Context, key types.NamespacedName, doc map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"status": doc})
	if err != nil {
		return fmt.Errorf("marshaling merge-patch status doc: %w", err)
	}
	patch := client.RawPatch(types.MergePatchType, body)

	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var parent sessionv1alpha1.SessionServer
		if err := w.Client.Get(ctx, key, &parent); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if err := w.Client.Status().Patch(ctx, &parent, patch); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

// PatchParentSpecMerge merge-patches the parent's spec, used by the culling
// controller to flip spec.jupyterServer.hibernated.
func (w *Writer) PatchParentSpecMerge(ctx context.Context, key types.NamespacedName, doc map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"spec": doc})
	if err != nil {
		return fmt.Errorf("marshaling spec merge-patch: %w", err)
	}
	patch := client.RawPatch(types.MergePatchType, body)

	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var parent sessionv1alpha1.SessionServer
		if err := w.Client.Get(ctx, key, &parent); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if err := w.Client.Patch(ctx, &parent, patch); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

// PatchParentAnnotationsMerge merge-patches the parent's own annotations,
// where last-activity-date, hibernation and hibernation-date live. A nil
// value for a key deletes that annotation.
func (w *Writer) PatchParentAnnotationsMerge(ctx context.Context, key types.NamespacedName, annotations map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{"annotations": annotations},
	})
	if err != nil {
		return fmt.Errorf("marshaling annotation merge-patch: %w", err)
	}
	patch := client.RawPatch(types.MergePatchType, body)

	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var parent sessionv1alpha1.SessionServer
		if err := w.Client.Get(ctx, key, &parent); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if err := w.Client.Patch(ctx, &parent, patch); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		return nil
	})
}
