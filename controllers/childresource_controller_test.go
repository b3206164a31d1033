package controllers

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/engine"
)

var _ = Describe("ChildResourceController", func() {
	const (
		timeout  = 10 * time.Second
		interval = 100 * time.Millisecond
	)

	It("replaces the status.children slot for an owned built-in child update", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("child-owned-%d", time.Now().UnixNano())
		parent := newStartedParent(eng, name)

		c := &ChildResourceController{Engine: eng, Labels: lbls}

		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:            name + "-cm",
				Namespace:       "default",
				Labels:          lbls.LabelsFor(nil, parent.UID, parent.Name, sessionv1alpha1.ChildKeyConfigMap, false),
				OwnerReferences: []metav1.OwnerReference{{UID: parent.UID, Name: parent.Name, Kind: "SessionServer"}},
			},
		}
		gvk := corev1.SchemeGroupVersion.WithKind("ConfigMap")
		c.childHandler(engine.EventModified, sessionv1alpha1.ChildKeyConfigMap, gvk)(cm)

		Eventually(func() string {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
				return ""
			}
			return got.Status.Children[sessionv1alpha1.ChildKeyConfigMap].Name
		}, timeout, interval).Should(Equal(cm.Name))
	})

	It("ignores a child event for an object not owned by the parent", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("child-foreign-%d", time.Now().UnixNano())
		parent := newStartedParent(eng, name)
		originalName := parent.Status.Children[sessionv1alpha1.ChildKeyConfigMap].Name

		c := &ChildResourceController{Engine: eng, Labels: lbls}

		foreign := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "not-mine",
				Namespace: "default",
				Labels:    lbls.LabelsFor(nil, types.UID("some-other-uid"), parent.Name, sessionv1alpha1.ChildKeyConfigMap, false),
			},
		}
		gvk := corev1.SchemeGroupVersion.WithKind("ConfigMap")
		c.childHandler(engine.EventModified, sessionv1alpha1.ChildKeyConfigMap, gvk)(foreign)

		Consistently(func() string {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
				return ""
			}
			return got.Status.Children[sessionv1alpha1.ChildKeyConfigMap].Name
		}, time.Second, 100*time.Millisecond).Should(Equal(originalName))
	})

	It("routes the main pod to status.mainPod regardless of owner references", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("child-mainpod-%d", time.Now().UnixNano())
		parent := newStartedParent(eng, name)

		c := &ChildResourceController{Engine: eng, Labels: lbls}

		pod := &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name + "-0",
				Namespace: "default",
				Labels:    lbls.LabelsFor(nil, parent.UID, parent.Name, "", true),
			},
			Status: corev1.PodStatus{Phase: corev1.PodRunning},
		}
		c.podHandler(engine.EventAdded)(pod)

		Eventually(func() string {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil || got.Status.MainPod == nil {
				return ""
			}
			return got.Status.MainPod.Name
		}, timeout, interval).Should(Equal(pod.Name))
	})
})

var _ = Describe("summarizeStatus", func() {
	It("reports StatefulSet ready/total replicas", func() {
		sts := &appsv1.StatefulSet{Status: appsv1.StatefulSetStatus{ReadyReplicas: 1, Replicas: 2}}
		Expect(summarizeStatus(sts)).To(Equal("replicas=1/2"))
	})

	It("returns empty text for a child kind with nothing worth summarizing", func() {
		Expect(summarizeStatus(&corev1.Secret{})).To(Equal(""))
	})
})
