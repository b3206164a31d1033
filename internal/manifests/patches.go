package manifests

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// ApplyPatches applies the parent's ordered spec.patches to a rendered Set.
// The set is addressed as one JSON document keyed by child key, so a patch
// path like "/statefulset/spec/template/spec/containers/0/env" reaches into
// the StatefulSet manifest. Children the session spec did not render (a nil Ingress
// or PVC) are absent from the document: a json-patch operation whose path
// reaches into one of them fails that patch entry and the whole call, since
// a half-applied ordered sequence is worse than none. A patch that adds such
// a key as a whole succeeds, but its content is discarded, since only the
// children the original Set rendered are read back.
func ApplyPatches(set Set, patches []sessionv1alpha1.PatchSpec) (Set, error) {
	if len(patches) == 0 {
		return set, nil
	}

	doc, err := json.Marshal(setToDocument(set))
	if err != nil {
		return Set{}, fmt.Errorf("marshaling rendered children for patching: %w", err)
	}

	for i, p := range patches {
		switch p.Type {
		case sessionv1alpha1.PatchTypeJSONPatch:
			patch, err := jsonpatch.DecodePatch(p.Patch.Raw)
			if err != nil {
				return Set{}, fmt.Errorf("decoding json-patch entry %d: %w", i, err)
			}
			doc, err = patch.Apply(doc)
			if err != nil {
				return Set{}, fmt.Errorf("applying json-patch entry %d: %w", i, err)
			}
		case sessionv1alpha1.PatchTypeMergePatch:
			doc, err = jsonpatch.MergePatch(doc, p.Patch.Raw)
			if err != nil {
				return Set{}, fmt.Errorf("applying merge-patch entry %d: %w", i, err)
			}
		default:
			return Set{}, fmt.Errorf("patch entry %d has unknown type %q", i, p.Type)
		}
	}

	return documentToSet(set, doc)
}

func setToDocument(set Set) map[string]interface{} {
	doc := map[string]interface{}{
		string(sessionv1alpha1.ChildKeyStatefulSet): set.StatefulSet,
		string(sessionv1alpha1.ChildKeyService):     set.Service,
		string(sessionv1alpha1.ChildKeyConfigMap):   set.ConfigMap,
		string(sessionv1alpha1.ChildKeySecret):      set.Secret,
	}
	if set.Ingress != nil {
		doc[string(sessionv1alpha1.ChildKeyIngress)] = set.Ingress
	}
	if set.PVC != nil {
		doc[string(sessionv1alpha1.ChildKeyPVC)] = set.PVC
	}
	return doc
}

func documentToSet(original Set, doc []byte) (Set, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return Set{}, fmt.Errorf("unmarshaling patched children document: %w", err)
	}

	out := Set{
		StatefulSet: original.StatefulSet,
		Service:     original.Service,
		ConfigMap:   original.ConfigMap,
		Secret:      original.Secret,
		Ingress:     original.Ingress,
		PVC:         original.PVC,
	}

	unmarshalInto := func(key sessionv1alpha1.ChildKey, target interface{}) error {
		body, ok := raw[string(key)]
		if !ok {
			return fmt.Errorf("patched document lost the %q child", key)
		}
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("unmarshaling patched %q child: %w", key, err)
		}
		return nil
	}

	if err := unmarshalInto(sessionv1alpha1.ChildKeyStatefulSet, out.StatefulSet); err != nil {
		return Set{}, err
	}
	if err := unmarshalInto(sessionv1alpha1.ChildKeyService, out.Service); err != nil {
		return Set{}, err
	}
	if err := unmarshalInto(sessionv1alpha1.ChildKeyConfigMap, out.ConfigMap); err != nil {
		return Set{}, err
	}
	if err := unmarshalInto(sessionv1alpha1.ChildKeySecret, out.Secret); err != nil {
		return Set{}, err
	}
	if original.Ingress != nil {
		if err := unmarshalInto(sessionv1alpha1.ChildKeyIngress, out.Ingress); err != nil {
			return Set{}, err
		}
	}
	if original.PVC != nil {
		if err := unmarshalInto(sessionv1alpha1.ChildKeyPVC, out.PVC); err != nil {
			return Set{}, err
		}
	}
	return out, nil
}
