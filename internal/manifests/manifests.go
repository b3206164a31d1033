// Package manifests renders a SessionServer's child resources: a pure
// function from (name, namespace, spec) to the set of manifests the create
// handler labels, adopts, and submits. The main pod is a grandchild
// produced by the StatefulSet, never a directly owned pod.
package manifests

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// Set is the rendered child manifests keyed by child key, the shape the
// engine's create handler iterates over to apply labels, set owner
// references, and submit to the API server.
type Set struct {
	StatefulSet *appsv1.StatefulSet
	Service     *corev1.Service
	Ingress     *networkingv1.Ingress
	ConfigMap   *corev1.ConfigMap
	Secret      *corev1.Secret
	PVC         *corev1.PersistentVolumeClaim // nil unless spec.storage.pvc.enabled
}

// ChildName returns the stable name used for a given child key, e.g.
// "<parent>-statefulset". The main pod's own name is derived separately by
// the StatefulSet's own pod-naming scheme (<statefulset-name>-0).
func ChildName(parentName string, key sessionv1alpha1.ChildKey) string {
	return fmt.Sprintf("%s-%s", parentName, key)
}

const servicePort = 8888

// Build renders the full set of child manifests for a SessionServer. Names
// and namespaces are assigned here, along with the "session" pod selector
// label; the caller (internal/engine's create handler) applies the
// operator's canonical labels and sets owner references before
// submission, since that requires the parent's live UID/APIVersion/Kind,
// which this pure function does not receive.
func Build(name, namespace string, spec sessionv1alpha1.SessionServerSpec) Set {
	statefulSetName := ChildName(name, sessionv1alpha1.ChildKeyStatefulSet)

	replicas := int32(1)
	if spec.JupyterServer.Hibernated != nil && *spec.JupyterServer.Hibernated {
		replicas = 0
	}

	volumes, mounts, pvc := buildStorage(name, namespace, spec.Storage)

	image := spec.JupyterServer.Image
	if image == "" {
		image = "jupyter/minimal-notebook:latest"
	}

	statefulSet := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: statefulSetName, Namespace: namespace},
		Spec: appsv1.StatefulSetSpec{
			Replicas:    &replicas,
			ServiceName: ChildName(name, sessionv1alpha1.ChildKeyService),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"session": name},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"session": name}},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:         "session",
							Image:        image,
							Resources:    spec.JupyterServer.Resources,
							VolumeMounts: mounts,
							Ports: []corev1.ContainerPort{
								{Name: "http", ContainerPort: servicePort},
							},
						},
					},
					Volumes: volumes,
				},
			},
		},
	}

	service := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: ChildName(name, sessionv1alpha1.ChildKeyService), Namespace: namespace},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"session": name},
			Ports: []corev1.ServicePort{
				{Name: "http", Port: servicePort, TargetPort: intstr.FromInt(servicePort)},
			},
		},
	}

	configMap := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: ChildName(name, sessionv1alpha1.ChildKeyConfigMap), Namespace: namespace},
		Data:       map[string]string{},
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: ChildName(name, sessionv1alpha1.ChildKeySecret), Namespace: namespace},
		StringData: map[string]string{"token": spec.Auth.Token},
	}

	ingress := buildIngress(name, namespace, spec.Routing)

	return Set{
		StatefulSet: statefulSet,
		Service:     service,
		Ingress:     ingress,
		ConfigMap:   configMap,
		Secret:      secret,
		PVC:         pvc,
	}
}

func buildStorage(name, namespace string, storage sessionv1alpha1.StorageSpec) ([]corev1.Volume, []corev1.VolumeMount, *corev1.PersistentVolumeClaim) {
	const volumeName = "home"
	mounts := []corev1.VolumeMount{{Name: volumeName, MountPath: "/home/jovyan"}}

	if !storage.PVC.Enabled {
		return []corev1.Volume{
			{Name: volumeName, VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
		}, mounts, nil
	}

	pvcName := ChildName(name, sessionv1alpha1.ChildKeyPVC)
	size := storage.Size
	if size == "" {
		size = "1Gi"
	}
	quantity := mustParseQuantityOrZero(size)

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: pvcName, Namespace: namespace},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: quantity},
			},
		},
	}

	return []corev1.Volume{
		{
			Name: volumeName,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: pvcName},
			},
		},
	}, mounts, pvc
}

func buildIngress(name, namespace string, routing sessionv1alpha1.RoutingSpec) *networkingv1.Ingress {
	if routing.Host == "" {
		return nil
	}
	pathType := networkingv1.PathTypePrefix
	path := routing.Path
	if path == "" {
		path = "/"
	}
	ingress := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:        ChildName(name, sessionv1alpha1.ChildKeyIngress),
			Namespace:   namespace,
			Annotations: routing.IngressAnnotations,
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{
				{
					Host: routing.Host,
					IngressRuleValue: networkingv1.IngressRuleValue{
						HTTP: &networkingv1.HTTPIngressRuleValue{
							Paths: []networkingv1.HTTPIngressPath{
								{
									Path:     path,
									PathType: &pathType,
									Backend: networkingv1.IngressBackend{
										Service: &networkingv1.IngressServiceBackend{
											Name: ChildName(name, sessionv1alpha1.ChildKeyService),
											Port: networkingv1.ServiceBackendPort{Number: servicePort},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	if routing.TLS.Enabled {
		ingress.Spec.TLS = []networkingv1.IngressTLS{{Hosts: []string{routing.Host}}}
	}
	return ingress
}

func mustParseQuantityOrZero(s string) resource.Quantity {
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return resource.Quantity{}
	}
	return q
}

// FullURL builds the session's externally reachable URL from its routing
// spec, for the status deriver's reachability probe and the idle
// culler's activity probe.
func FullURL(routing sessionv1alpha1.RoutingSpec) string {
	if routing.Host == "" {
		return ""
	}
	scheme := "http"
	if routing.TLS.Enabled {
		scheme = "https"
	}
	path := routing.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s://%s%s", scheme, routing.Host, path)
}
