package engine

import (
	"context"
	"time"

	jsonpatch "gomodules.xyz/jsonpatch/v2"
	"k8s.io/apimachinery/pkg/types"
)

// HandleChildEvent translates an event on any resource carrying the
// parent-name label into a JSON-Patch write against the parent's own
// status.children/<key> or status.mainPod slot.
func (e *Engine) HandleChildEvent(ctx context.Context, ev ChildEvent) (err error) {
	start := time.Now()
	defer func() { recordReconciliation("child-event", start, err) }()

	if !ev.MainPod && !e.Labels.IsOwnedByParent(ev.ObjectLabels, ev.OwnerUIDs, ev.Parent.UID) {
		return nil
	}

	path := "/status/children/" + ev.ChildKey
	if ev.MainPod {
		path = "/status/mainPod"
	}

	op := mapEventTypeToOp(ev.Type)

	var value interface{}
	if op != "remove" {
		if ev.MainPod {
			value = map[string]interface{}{
				"name":       ev.Name,
				"uid":        ev.UID,
				"kind":       ev.Kind,
				"apiVersion": ev.APIVersion,
				"status":     ev.PodStatus,
			}
		} else {
			value = map[string]interface{}{
				"name":       ev.Name,
				"uid":        ev.UID,
				"kind":       ev.Kind,
				"apiVersion": ev.APIVersion,
				"status":     ev.Status,
			}
		}
	}

	ops := []jsonpatch.Operation{{Operation: op, Path: path, Value: value}}
	key := types.NamespacedName{Namespace: ev.Parent.Namespace, Name: ev.Parent.Name}
	return e.Writer.PatchParentStatusJSON(ctx, key, ops)
}

// mapEventTypeToOp maps ADDED->add, MODIFIED->replace, DELETED->remove,
// anything else (including the empty value used for defensive initial-list
// events) ->replace.
func mapEventTypeToOp(t EventType) string {
	switch t {
	case EventAdded:
		return "add"
	case EventDeleted:
		return "remove"
	case EventModified:
		return "replace"
	default:
		return "replace"
	}
}
