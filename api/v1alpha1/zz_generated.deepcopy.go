package v1alpha1

import (
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopy implementations are maintained by hand in the standard
// deepcopy-gen shape, so `controller-gen object` output can replace them
// without further edits.

func (in *JupyterServerSpec) DeepCopyInto(out *JupyterServerSpec) {
	*out = *in
	if in.Hibernated != nil {
		h := *in.Hibernated
		out.Hibernated = &h
	}
	in.Resources.DeepCopyInto(&out.Resources)
}

func (in *JupyterServerSpec) DeepCopy() *JupyterServerSpec {
	if in == nil {
		return nil
	}
	out := new(JupyterServerSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *PVCSpec) DeepCopyInto(out *PVCSpec) { *out = *in }

func (in *StorageSpec) DeepCopyInto(out *StorageSpec) {
	*out = *in
	out.PVC = in.PVC
}

func (in *StorageSpec) DeepCopy() *StorageSpec {
	if in == nil {
		return nil
	}
	out := new(StorageSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *OIDCSpec) DeepCopyInto(out *OIDCSpec) { *out = *in }

func (in *AuthSpec) DeepCopyInto(out *AuthSpec) {
	*out = *in
	out.OIDC = in.OIDC
}

func (in *AuthSpec) DeepCopy() *AuthSpec {
	if in == nil {
		return nil
	}
	out := new(AuthSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *TLSSpec) DeepCopyInto(out *TLSSpec) { *out = *in }

func (in *RoutingSpec) DeepCopyInto(out *RoutingSpec) {
	*out = *in
	out.TLS = in.TLS
	if in.IngressAnnotations != nil {
		m := make(map[string]string, len(in.IngressAnnotations))
		for k, v := range in.IngressAnnotations {
			m[k] = v
		}
		out.IngressAnnotations = m
	}
}

func (in *RoutingSpec) DeepCopy() *RoutingSpec {
	if in == nil {
		return nil
	}
	out := new(RoutingSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *CullingSpec) DeepCopyInto(out *CullingSpec) { *out = *in }

func (in *CullingSpec) DeepCopy() *CullingSpec {
	if in == nil {
		return nil
	}
	out := new(CullingSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *PatchSpec) DeepCopyInto(out *PatchSpec) {
	*out = *in
	in.Patch.DeepCopyInto(&out.Patch)
}

func (in *PatchSpec) DeepCopy() *PatchSpec {
	if in == nil {
		return nil
	}
	out := new(PatchSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *SessionServerSpec) DeepCopyInto(out *SessionServerSpec) {
	*out = *in
	in.JupyterServer.DeepCopyInto(&out.JupyterServer)
	in.Storage.DeepCopyInto(&out.Storage)
	in.Auth.DeepCopyInto(&out.Auth)
	in.Routing.DeepCopyInto(&out.Routing)
	out.Culling = in.Culling
	if in.Patches != nil {
		s := make([]PatchSpec, len(in.Patches))
		for i := range in.Patches {
			in.Patches[i].DeepCopyInto(&s[i])
		}
		out.Patches = s
	}
}

func (in *SessionServerSpec) DeepCopy() *SessionServerSpec {
	if in == nil {
		return nil
	}
	out := new(SessionServerSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *ContainerStatesStatus) DeepCopyInto(out *ContainerStatesStatus) {
	*out = *in
	if in.Init != nil {
		m := make(map[string]ContainerPhase, len(in.Init))
		for k, v := range in.Init {
			m[k] = v
		}
		out.Init = m
	}
	if in.Regular != nil {
		m := make(map[string]ContainerPhase, len(in.Regular))
		for k, v := range in.Regular {
			m[k] = v
		}
		out.Regular = m
	}
}

func (in *ContainerStatesStatus) DeepCopy() *ContainerStatesStatus {
	if in == nil {
		return nil
	}
	out := new(ContainerStatesStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *PodResourceUsage) DeepCopyInto(out *PodResourceUsage) {
	*out = *in
	if in.UsedBytes != nil {
		v := *in.UsedBytes
		out.UsedBytes = &v
	}
	if in.AvailableBytes != nil {
		v := *in.AvailableBytes
		out.AvailableBytes = &v
	}
	if in.TotalBytes != nil {
		v := *in.TotalBytes
		out.TotalBytes = &v
	}
}

func (in *PodResourceUsage) DeepCopy() *PodResourceUsage {
	if in == nil {
		return nil
	}
	out := new(PodResourceUsage)
	in.DeepCopyInto(out)
	return out
}

func (in *MainPodStatus) DeepCopyInto(out *MainPodStatus) {
	*out = *in
	if in.Status != nil {
		out.Status = in.Status.DeepCopy()
	}
	if in.ResourceUsage != nil {
		out.ResourceUsage = in.ResourceUsage.DeepCopy()
	}
}

func (in *MainPodStatus) DeepCopy() *MainPodStatus {
	if in == nil {
		return nil
	}
	out := new(MainPodStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *ChildResourceStatus) DeepCopyInto(out *ChildResourceStatus) { *out = *in }

func (in *ChildResourceStatus) DeepCopy() *ChildResourceStatus {
	if in == nil {
		return nil
	}
	out := new(ChildResourceStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *StatefulSetEventStatus) DeepCopyInto(out *StatefulSetEventStatus) {
	*out = *in
	if in.Timestamp != nil {
		out.Timestamp = in.Timestamp.DeepCopy()
	}
}

func (in *StatefulSetEventStatus) DeepCopy() *StatefulSetEventStatus {
	if in == nil {
		return nil
	}
	out := new(StatefulSetEventStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *EventsStatus) DeepCopyInto(out *EventsStatus) {
	*out = *in
	if in.StatefulSet != nil {
		out.StatefulSet = in.StatefulSet.DeepCopy()
	}
}

func (in *EventsStatus) DeepCopy() *EventsStatus {
	if in == nil {
		return nil
	}
	out := new(EventsStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *SessionServerStatus) DeepCopyInto(out *SessionServerStatus) {
	*out = *in
	if in.StartingSince != nil {
		out.StartingSince = in.StartingSince.DeepCopy()
	}
	if in.FailedSince != nil {
		out.FailedSince = in.FailedSince.DeepCopy()
	}
	if in.HibernatedSince != nil {
		out.HibernatedSince = in.HibernatedSince.DeepCopy()
	}
	in.ContainerStates.DeepCopyInto(&out.ContainerStates)
	if in.MainPod != nil {
		out.MainPod = in.MainPod.DeepCopy()
	}
	if in.Children != nil {
		m := make(map[ChildKey]ChildResourceStatus, len(in.Children))
		for k, v := range in.Children {
			m[k] = v
		}
		out.Children = m
	}
	in.Events.DeepCopyInto(&out.Events)
}

func (in *SessionServerStatus) DeepCopy() *SessionServerStatus {
	if in == nil {
		return nil
	}
	out := new(SessionServerStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *SessionServer) DeepCopyInto(out *SessionServer) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

func (in *SessionServer) DeepCopy() *SessionServer {
	if in == nil {
		return nil
	}
	out := new(SessionServer)
	in.DeepCopyInto(out)
	return out
}

func (in *SessionServer) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *SessionServerList) DeepCopyInto(out *SessionServerList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		s := make([]SessionServer, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&s[i])
		}
		out.Items = s
	}
}

func (in *SessionServerList) DeepCopy() *SessionServerList {
	if in == nil {
		return nil
	}
	out := new(SessionServerList)
	in.DeepCopyInto(out)
	return out
}

func (in *SessionServerList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
