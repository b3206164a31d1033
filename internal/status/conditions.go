package status

import (
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// sortedConditions returns pod conditions sorted by LastTransitionTime
// descending, so the most recent condition comes first.
func sortedConditions(conditions []corev1.PodCondition) []corev1.PodCondition {
	out := make([]corev1.PodCondition, len(conditions))
	copy(out, conditions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTransitionTime.Time.After(out[j].LastTransitionTime.Time)
	})
	return out
}

// allConditionsTrue reports whether every condition's Status is "True", used
// by overall-status step 4.
func allConditionsTrue(conditions []corev1.PodCondition) bool {
	for _, c := range conditions {
		if c.Status != corev1.ConditionTrue {
			return false
		}
	}
	return true
}

// isUnschedulable reports whether the pod is Pending with its most recent
// condition reporting Unschedulable, excluding the normal brief
// "waiting for first consumer"/PVC-provisioning window: the message
// must not mention "persistentvolumeclaim".
func isUnschedulable(phase corev1.PodPhase, conditions []corev1.PodCondition) bool {
	if phase != corev1.PodPending {
		return false
	}
	sorted := sortedConditions(conditions)
	if len(sorted) == 0 {
		return false
	}
	latest := sorted[0]
	if latest.Reason != "Unschedulable" {
		return false
	}
	return !strings.Contains(strings.ToLower(latest.Message), "persistentvolumeclaim")
}

// podAge is a small readability wrapper; creationTimestamp zero means "no
// pod observed yet", in which case the caller should treat age as 0 rather
// than an enormous duration.
func podAge(now time.Time, creationTimestamp time.Time) time.Duration {
	if creationTimestamp.IsZero() {
		return 0
	}
	return now.Sub(creationTimestamp)
}
