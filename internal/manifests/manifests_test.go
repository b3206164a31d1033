package manifests

import (
	"testing"

	corev1 "k8s.io/api/core/v1"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

func TestChildName(t *testing.T) {
	got := ChildName("my-session", sessionv1alpha1.ChildKeyStatefulSet)
	if want := "my-session-statefulset"; got != want {
		t.Errorf("ChildName() = %q, want %q", got, want)
	}
}

func TestBuildHibernatedStartsWithZeroReplicas(t *testing.T) {
	hibernated := true
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		JupyterServer: sessionv1alpha1.JupyterServerSpec{Hibernated: &hibernated},
	})
	if got := *set.StatefulSet.Spec.Replicas; got != 0 {
		t.Errorf("hibernated StatefulSet replicas = %d, want 0", got)
	}
}

func TestBuildRunningStartsWithOneReplica(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	if got := *set.StatefulSet.Spec.Replicas; got != 1 {
		t.Errorf("non-hibernated StatefulSet replicas = %d, want 1", got)
	}
}

func TestBuildDefaultsImageWhenUnset(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	got := set.StatefulSet.Spec.Template.Spec.Containers[0].Image
	if want := "jupyter/minimal-notebook:latest"; got != want {
		t.Errorf("default image = %q, want %q", got, want)
	}
}

func TestBuildHonorsExplicitImage(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		JupyterServer: sessionv1alpha1.JupyterServerSpec{Image: "custom/image:v2"},
	})
	got := set.StatefulSet.Spec.Template.Spec.Containers[0].Image
	if got != "custom/image:v2" {
		t.Errorf("image = %q, want custom/image:v2", got)
	}
}

func TestBuildStorageDefaultsToEmptyDir(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	if set.PVC != nil {
		t.Fatalf("expected no PVC when storage.pvc.enabled is unset, got %+v", set.PVC)
	}
	vol := set.StatefulSet.Spec.Template.Spec.Volumes[0]
	if vol.EmptyDir == nil {
		t.Errorf("expected an EmptyDir volume by default, got %+v", vol)
	}
}

func TestBuildStoragePVCEnabled(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		Storage: sessionv1alpha1.StorageSpec{
			PVC: sessionv1alpha1.PVCSpec{Enabled: true},
		},
	})
	if set.PVC == nil {
		t.Fatalf("expected a PVC when storage.pvc.enabled is true")
	}
	if want := "s1-pvc"; set.PVC.Name != want {
		t.Errorf("PVC name = %q, want %q", set.PVC.Name, want)
	}
	got := set.PVC.Spec.Resources.Requests[corev1.ResourceStorage]
	if got.String() != "1Gi" {
		t.Errorf("default PVC size = %s, want 1Gi", got.String())
	}
	vol := set.StatefulSet.Spec.Template.Spec.Volumes[0]
	if vol.PersistentVolumeClaim == nil || vol.PersistentVolumeClaim.ClaimName != "s1-pvc" {
		t.Errorf("expected the home volume to reference the rendered PVC, got %+v", vol)
	}
}

func TestBuildStoragePVCExplicitSize(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		Storage: sessionv1alpha1.StorageSpec{
			PVC:  sessionv1alpha1.PVCSpec{Enabled: true},
			Size: "5Gi",
		},
	})
	got := set.PVC.Spec.Resources.Requests[corev1.ResourceStorage]
	if got.String() != "5Gi" {
		t.Errorf("PVC size = %s, want 5Gi", got.String())
	}
}

func TestBuildIngressOmittedWithoutHost(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{})
	if set.Ingress != nil {
		t.Errorf("expected no Ingress when routing.host is unset, got %+v", set.Ingress)
	}
}

func TestBuildIngressRenderedWithHost(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		Routing: sessionv1alpha1.RoutingSpec{Host: "s1.example.test"},
	})
	if set.Ingress == nil {
		t.Fatalf("expected an Ingress when routing.host is set")
	}
	rule := set.Ingress.Spec.Rules[0]
	if rule.Host != "s1.example.test" {
		t.Errorf("ingress host = %q, want s1.example.test", rule.Host)
	}
	path := rule.HTTP.Paths[0]
	if path.Path != "/" {
		t.Errorf("default ingress path = %q, want /", path.Path)
	}
	if set.Ingress.Spec.TLS != nil {
		t.Errorf("TLS should not be configured unless routing.tls.enabled is true")
	}
}

func TestBuildIngressTLSEnabled(t *testing.T) {
	set := Build("s1", "default", sessionv1alpha1.SessionServerSpec{
		Routing: sessionv1alpha1.RoutingSpec{
			Host: "s1.example.test",
			TLS:  sessionv1alpha1.TLSSpec{Enabled: true},
		},
	})
	if len(set.Ingress.Spec.TLS) != 1 || set.Ingress.Spec.TLS[0].Hosts[0] != "s1.example.test" {
		t.Errorf("expected TLS configured for the routing host, got %+v", set.Ingress.Spec.TLS)
	}
}

func TestFullURL(t *testing.T) {
	cases := []struct {
		name    string
		routing sessionv1alpha1.RoutingSpec
		want    string
	}{
		{"no host", sessionv1alpha1.RoutingSpec{}, ""},
		{"plain http", sessionv1alpha1.RoutingSpec{Host: "s1.example.test"}, "http://s1.example.test/"},
		{
			"tls",
			sessionv1alpha1.RoutingSpec{Host: "s1.example.test", TLS: sessionv1alpha1.TLSSpec{Enabled: true}},
			"https://s1.example.test/",
		},
		{
			"explicit path",
			sessionv1alpha1.RoutingSpec{Host: "s1.example.test", Path: "/notebook"},
			"http://s1.example.test/notebook",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FullURL(tc.routing); got != tc.want {
				t.Errorf("FullURL() = %q, want %q", got, tc.want)
			}
		})
	}
}
