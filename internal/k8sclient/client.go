package k8sclient

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Client bundles the typed clientset, the dynamic client used for
// arbitrary-kind child resource access, and the discovery cache.
type Client struct {
	Typed   kubernetes.Interface
	Dynamic dynamic.Interface
	Config  *rest.Config

	Discovery *DiscoveryCache
}

// NewClient builds a Client from a rest.Config (typically ctrl.GetConfigOrDie()
// in cmd/main.go, so in-cluster vs kubeconfig resolution is left to
// controller-runtime rather than duplicated here).
func NewClient(cfg *rest.Config) (*Client, error) {
	typed, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating typed clientset: %w", err)
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	disc, err := NewDiscoveryCache(typed.Discovery())
	if err != nil {
		return nil, fmt.Errorf("creating discovery cache: %w", err)
	}
	return &Client{Typed: typed, Dynamic: dyn, Config: cfg, Discovery: disc}, nil
}

// PodMetrics is the subset of the metrics.k8s.io/v1beta1 PodMetrics shape
// the culling idle-check CPU probe needs.
type PodMetrics struct {
	Containers []struct {
		Name  string `json:"name"`
		Usage struct {
			CPU    string `json:"cpu"`
			Memory string `json:"memory"`
		} `json:"usage"`
	} `json:"containers"`
}

// GetPodMetrics fetches raw pod metrics from the metrics-server aggregated
// API. Any error (metrics-server absent, pod not found, malformed body) is
// returned to the caller, who must report 0 millicores rather than let an
// absent metrics-server prevent culling.
func (c *Client) GetPodMetrics(ctx context.Context, namespace, name string) (*PodMetrics, error) {
	path := fmt.Sprintf("/apis/metrics.k8s.io/v1beta1/namespaces/%s/pods/%s", namespace, name)
	raw, err := c.Typed.CoreV1().RESTClient().Get().AbsPath(path).DoRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pod metrics for %s/%s: %w", namespace, name, err)
	}
	var pm PodMetrics
	if err := json.Unmarshal(raw, &pm); err != nil {
		return nil, fmt.Errorf("parsing pod metrics for %s/%s: %w", namespace, name, err)
	}
	return &pm, nil
}

// GetPod is a small convenience wrapper that fetches a pod by namespace and
// name through the typed clientset.
func (c *Client) GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	return c.Typed.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
}

// OwnerUIDs extracts the UID set from an object's owner references, used by
// the label/ownership policy's ownership filter.
func OwnerUIDs(owners []metav1.OwnerReference) []types.UID {
	out := make([]types.UID, 0, len(owners))
	for _, o := range owners {
		out = append(out, o.UID)
	}
	return out
}
