// Package v1alpha1 contains API Schema definitions for the amalthea.dev v1alpha1 API group
// +kubebuilder:object:generate=true
// +groupName=amalthea.dev
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects. It is
	// fixed at amalthea.dev/v1alpha1: CRD_API_GROUP (internal/config) only
	// sets the prefix of the operator's label and annotation keys, and
	// CRD_API_VERSION is read but not applied anywhere.
	GroupVersion = schema.GroupVersion{Group: "amalthea.dev", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)
