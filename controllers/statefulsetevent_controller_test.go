package controllers

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/engine"
)

var _ = Describe("StatefulSetEventController", func() {
	const (
		timeout  = 10 * time.Second
		interval = 100 * time.Millisecond
	)

	It("records a quota-exceeded FailedCreate event against the parent, then clears it on SuccessfulCreate", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("stsevent-%d", time.Now().UnixNano())
		parent := newStartedParent(eng, name)

		stsName := parent.Status.Children[sessionv1alpha1.ChildKeyStatefulSet].Name
		Expect(stsName).NotTo(BeEmpty())

		c := &StatefulSetEventController{Client: k8sClient, Engine: eng, Labels: lbls, Log: logr.Discard()}

		failedAt := time.Now()
		c.onEvent(&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "evt-1", Namespace: "default"},
			InvolvedObject: corev1.ObjectReference{Kind: "StatefulSet", Namespace: "default", Name: stsName},
			Reason:         "FailedCreate",
			Message:        "create Pod failed: pods \"x\" is forbidden: exceeded quota: compute-resources",
			LastTimestamp:  metav1.NewTime(failedAt),
		})

		Eventually(func() string {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil || got.Status.Events.StatefulSet == nil {
				return ""
			}
			return got.Status.Events.StatefulSet.Message
		}, timeout, interval).Should(Equal(engine.QuotaExceededMessage))

		c.onEvent(&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "evt-2", Namespace: "default"},
			InvolvedObject: corev1.ObjectReference{Kind: "StatefulSet", Namespace: "default", Name: stsName},
			Reason:         "SuccessfulCreate",
			Message:        "create Pod x",
			LastTimestamp:  metav1.NewTime(failedAt.Add(time.Minute)),
		})

		Eventually(func() *sessionv1alpha1.StatefulSetEventStatus {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
				return &sessionv1alpha1.StatefulSetEventStatus{Message: "lookup-failed"}
			}
			return got.Status.Events.StatefulSet
		}, timeout, interval).Should(BeNil())
	})

	It("ignores events for kinds other than StatefulSet", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("stsevent-ignore-%d", time.Now().UnixNano())
		newStartedParent(eng, name)

		c := &StatefulSetEventController{Client: k8sClient, Engine: eng, Labels: lbls, Log: logr.Discard()}
		c.onEvent(&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "evt-pod", Namespace: "default"},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Namespace: "default", Name: "some-pod"},
			Reason:         "FailedCreate",
			Message:        "exceeded quota",
		})

		Consistently(func() *sessionv1alpha1.StatefulSetEventStatus {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
				return nil
			}
			return got.Status.Events.StatefulSet
		}, time.Second, 100*time.Millisecond).Should(BeNil())
	})
})
