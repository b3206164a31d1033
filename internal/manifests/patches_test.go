package manifests

import (
	"testing"

	"k8s.io/apimachinery/pkg/runtime"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

func TestApplyPatchesNoPatchesIsIdentity(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	got, err := ApplyPatches(set, nil)
	if err != nil {
		t.Fatalf("ApplyPatches: %v", err)
	}
	if got.StatefulSet != set.StatefulSet {
		t.Error("an empty patch list should return the set unchanged")
	}
}

func TestApplyPatchesJSONPatch(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	patches := []sessionv1alpha1.PatchSpec{{
		Type: sessionv1alpha1.PatchTypeJSONPatch,
		Patch: runtime.RawExtension{Raw: []byte(
			`[{"op": "replace", "path": "/statefulset/spec/template/spec/containers/0/image", "value": "patched/image:v9"}]`,
		)},
	}}

	got, err := ApplyPatches(set, patches)
	if err != nil {
		t.Fatalf("ApplyPatches: %v", err)
	}
	if img := got.StatefulSet.Spec.Template.Spec.Containers[0].Image; img != "patched/image:v9" {
		t.Errorf("patched image = %q, want patched/image:v9", img)
	}
	if got.Service.Name != set.Service.Name {
		t.Errorf("untouched children must survive patching, service name = %q", got.Service.Name)
	}
}

func TestApplyPatchesMergePatch(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	patches := []sessionv1alpha1.PatchSpec{{
		Type: sessionv1alpha1.PatchTypeMergePatch,
		Patch: runtime.RawExtension{Raw: []byte(
			`{"configmap": {"data": {"extra-key": "extra-value"}}}`,
		)},
	}}

	got, err := ApplyPatches(set, patches)
	if err != nil {
		t.Fatalf("ApplyPatches: %v", err)
	}
	if v := got.ConfigMap.Data["extra-key"]; v != "extra-value" {
		t.Errorf("merge-patched configmap data = %v, want extra-key=extra-value", got.ConfigMap.Data)
	}
}

func TestApplyPatchesInOrder(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	patches := []sessionv1alpha1.PatchSpec{
		{
			Type:  sessionv1alpha1.PatchTypeMergePatch,
			Patch: runtime.RawExtension{Raw: []byte(`{"configmap": {"data": {"k": "first"}}}`)},
		},
		{
			Type:  sessionv1alpha1.PatchTypeMergePatch,
			Patch: runtime.RawExtension{Raw: []byte(`{"configmap": {"data": {"k": "second"}}}`)},
		},
	}

	got, err := ApplyPatches(set, patches)
	if err != nil {
		t.Fatalf("ApplyPatches: %v", err)
	}
	if v := got.ConfigMap.Data["k"]; v != "second" {
		t.Errorf("later patches must win, got %q", v)
	}
}

func TestApplyPatchesRejectsMalformedEntry(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	patches := []sessionv1alpha1.PatchSpec{{
		Type:  sessionv1alpha1.PatchTypeJSONPatch,
		Patch: runtime.RawExtension{Raw: []byte(`{"not": "an array"}`)},
	}}
	if _, err := ApplyPatches(set, patches); err == nil {
		t.Fatal("expected an error for a malformed json-patch body")
	}
}
