package culling

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/manifests"
)

const sessionHomePath = "/home/jovyan"

// RunResourceUsageReport execs into the main pod and reports disk usage for
// its home volume. It is only active when
// JUPYTER_SERVER_RESOURCE_CHECK_ENABLED is set; parse failures yield a
// null-field result rather than an error.
func (c *Controller) RunResourceUsageReport(ctx context.Context, parent *sessionv1alpha1.SessionServer) error {
	if !c.Config.ResourceCheckEnabled {
		return nil
	}

	mainPodName := manifests.ChildName(parent.Name, sessionv1alpha1.ChildKeyStatefulSet) + "-0"
	usesPVC := parent.Spec.Storage.PVC.Enabled

	var cmd []string
	if usesPVC {
		cmd = []string{"df", "-Pk", sessionHomePath}
	} else {
		cmd = []string{"du", "-sb", sessionHomePath}
	}

	stdout, err := c.execInMainPod(ctx, parent.Namespace, mainPodName, cmd)
	if err != nil {
		// exec failure (pod not ready, container gone): skip this tick, the
		// next scheduled run retries.
		return nil
	}

	usage := parseUsageOutput(usesPVC, stdout)

	key := types.NamespacedName{Namespace: parent.Namespace, Name: parent.Name}
	return c.Writer.PatchParentStatusMerge(ctx, key, map[string]interface{}{
		"mainPod": map[string]interface{}{"resourceUsage": usage},
	})
}

func (c *Controller) execInMainPod(ctx context.Context, namespace, podName string, cmd []string) (string, error) {
	req := c.K8s.Typed.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: cmd,
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(c.K8s.Config, "POST", req.URL())
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// parseUsageOutput parses either `du -sb <path>` ("12345\t/home/jovyan") or
// `df -Pk <path>` (POSIX header line + one data line in 1K blocks) into the
// {used_bytes, available_bytes, total_bytes} shape. Any parse
// failure leaves the corresponding field nil rather than erroring.
func parseUsageOutput(isPVC bool, output string) sessionv1alpha1.PodResourceUsage {
	if !isPVC {
		fields := strings.Fields(output)
		if len(fields) < 1 {
			return sessionv1alpha1.PodResourceUsage{}
		}
		used, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return sessionv1alpha1.PodResourceUsage{}
		}
		return sessionv1alpha1.PodResourceUsage{UsedBytes: &used}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return sessionv1alpha1.PodResourceUsage{}
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return sessionv1alpha1.PodResourceUsage{}
	}
	totalKB, errT := strconv.ParseInt(fields[1], 10, 64)
	usedKB, errU := strconv.ParseInt(fields[2], 10, 64)
	availKB, errA := strconv.ParseInt(fields[3], 10, 64)

	var usage sessionv1alpha1.PodResourceUsage
	if errT == nil {
		total := totalKB * 1024
		usage.TotalBytes = &total
	}
	if errU == nil {
		used := usedKB * 1024
		usage.UsedBytes = &used
	}
	if errA == nil {
		avail := availKB * 1024
		usage.AvailableBytes = &avail
	}
	return usage
}
