package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
)

var _ = Describe("ExtraChildController", func() {
	const (
		timeout  = 10 * time.Second
		interval = 100 * time.Millisecond
	)

	It("needs leader election like every other watcher", func() {
		eng, lbls := buildTestEngine()
		c := &ExtraChildController{K8s: &k8sclient.Client{}, Engine: eng, Labels: lbls, Log: logr.Discard()}
		Expect(c.NeedLeaderElection()).To(BeTrue())
	})

	It("blocks until ctx is cancelled when no extra resources are configured", func() {
		eng, lbls := buildTestEngine()
		c := &ExtraChildController{K8s: &k8sclient.Client{}, Engine: eng, Labels: lbls, Refs: nil, Log: logr.Discard()}

		runCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- c.Start(runCtx) }()

		Eventually(done, timeout, interval).Should(Receive(BeNil()))
	})

	It("patches status.children for a dynamically-watched extra resource carrying the parent labels", func() {
		eng, lbls := buildTestEngine()
		name := fmt.Sprintf("extrachild-%d", time.Now().UnixNano())
		parent := newStartedParent(eng, name)

		c := &ExtraChildController{
			K8s:    &k8sclient.Client{},
			Engine: eng,
			Labels: lbls,
			Refs:   []config.ChildResourceRef{{Group: "example.org", Name: "widgets"}},
			Log:    logr.Discard(),
		}

		keys := lbls.Keys()
		widget := &unstructured.Unstructured{}
		widget.SetAPIVersion("example.org/v1")
		widget.SetKind("Widget")
		widget.SetName(name + "-widget")
		widget.SetNamespace("default")
		widget.SetLabels(map[string]string{
			keys.ParentName: parent.Name,
			keys.ParentUID:  string(parent.UID),
		})
		widget.SetOwnerReferences([]metav1.OwnerReference{{UID: parent.UID, Name: parent.Name, Kind: "SessionServer"}})

		gvk := schema.GroupVersionKind{Group: "example.org", Version: "v1", Kind: "Widget"}
		c.handler(engine.EventAdded, sessionv1alpha1.ChildKey("widgets"), gvk)(widget)

		Eventually(func() string {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
				return ""
			}
			return got.Status.Children[sessionv1alpha1.ChildKey("widgets")].Name
		}, timeout, interval).Should(Equal(widget.GetName()))
	})
})
