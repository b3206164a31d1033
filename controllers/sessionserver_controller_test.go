package controllers

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/culling"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/manifests"
	"github.com/sessionserver-operator/operator/internal/metricsink"
)

// newTestSessionServerController assembles a real Engine/Scheduler pair
// against the envtest API server, mirroring cmd/main.go's own wiring. Culling
// intervals are set far longer than any single test's runtime so its
// background cron jobs never fire mid-test.
func newTestSessionServerController() *SessionServerController {
	cfg := config.Config{
		APIGroup:                        "amalthea.dev",
		CPUUsageMillicoresIdleThreshold: 200,
		UnschedulableFailureThreshold:   60 * time.Second,
		InitContainerRestartLimit:       1,
		ContainerRestartLimit:           3,
		IdleCheckInterval:               time.Hour,
		PendingCheckInterval:            time.Hour,
		ResourceCheckInterval:           time.Hour,
		ResourceCheckEnabled:            false,
	}

	k8s, err := k8sclient.NewClient(restCfg)
	Expect(err).NotTo(HaveOccurred())

	lbls := labels.NewPolicy(cfg.APIGroup, "SessionServer", nil)
	sink := metricsink.NewQueue(16, logr.Discard())
	pool := engine.NewWorkerPool()
	eng := engine.New(k8sClient, k8s, cfg, lbls, sink, pool, logr.Discard())

	cullCtrl := culling.New(k8sClient, k8s, eng.Writer, lbls, cfg, logr.Discard())
	scheduler := culling.NewScheduler(cullCtrl, k8sClient)
	scheduler.Start()

	DeferCleanup(func() {
		scheduler.Stop()
		pool.Stop()
	})

	return &SessionServerController{Engine: eng, Culling: scheduler, Log: logr.Discard()}
}

var _ = Describe("SessionServerController", func() {
	const (
		timeout  = 10 * time.Second
		interval = 100 * time.Millisecond
	)

	var (
		c    *SessionServerController
		name string
		key  types.NamespacedName
	)

	BeforeEach(func() {
		c = newTestSessionServerController()
	})

	newParent := func() *sessionv1alpha1.SessionServer {
		return &sessionv1alpha1.SessionServer{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
			Spec: sessionv1alpha1.SessionServerSpec{
				JupyterServer: sessionv1alpha1.JupyterServerSpec{Image: "jupyter/base-notebook:latest"},
			},
		}
	}

	It("marks a newly created session Starting and adds the finalizer", func() {
		name = fmt.Sprintf("create-%d", time.Now().UnixNano())
		key = types.NamespacedName{Namespace: "default", Name: name}
		parent := newParent()
		Expect(k8sClient.Create(ctx, parent)).To(Succeed())

		c.onAdd(parent)

		Eventually(func() sessionv1alpha1.OverallStatus {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, key, &got); err != nil {
				return ""
			}
			return got.Status.State
		}, timeout, interval).Should(Equal(sessionv1alpha1.StatusStarting))

		Eventually(func() bool {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, key, &got); err != nil {
				return false
			}
			for _, f := range got.Finalizers {
				if f == FinalizerName {
					return true
				}
			}
			return false
		}, timeout, interval).Should(BeTrue(), "finalizer should have been added on create")
	})

	It("writes Stopping and removes the finalizer on delete", func() {
		name = fmt.Sprintf("delete-%d", time.Now().UnixNano())
		key = types.NamespacedName{Namespace: "default", Name: name}
		parent := newParent()
		Expect(k8sClient.Create(ctx, parent)).To(Succeed())

		c.onAdd(parent)
		Eventually(func() bool {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, key, &got); err != nil {
				return false
			}
			for _, f := range got.Finalizers {
				if f == FinalizerName {
					return true
				}
			}
			return false
		}, timeout, interval).Should(BeTrue())

		var live sessionv1alpha1.SessionServer
		Expect(k8sClient.Get(ctx, key, &live)).To(Succeed())
		Expect(k8sClient.Delete(ctx, &live)).To(Succeed())

		var deleting sessionv1alpha1.SessionServer
		Expect(k8sClient.Get(ctx, key, &deleting)).To(Succeed())
		Expect(deleting.DeletionTimestamp).NotTo(BeNil())

		before := live.DeepCopy()
		before.DeletionTimestamp = nil
		c.onUpdate(before, &deleting)

		// HandleDelete persists status.state=Stopping before the finalizer is
		// removed (same goroutine, sequential statements in onUpdate's
		// nowDeleting branch), so the object's final disappearance from the
		// API server is sufficient evidence that write already happened;
		// asserting the intermediate Stopping read here would race the
		// object's own removal once the finalizer clears.
		Eventually(func() error {
			return k8sClient.Get(ctx, key, &sessionv1alpha1.SessionServer{})
		}, timeout, interval).ShouldNot(Succeed(), "the finalizer should be removed and the object reaped once Stopping is recorded")
	})

	It("scales the hibernated field handler in on a spec change", func() {
		name = fmt.Sprintf("hibernate-%d", time.Now().UnixNano())
		key = types.NamespacedName{Namespace: "default", Name: name}
		parent := newParent()
		Expect(k8sClient.Create(ctx, parent)).To(Succeed())
		c.onAdd(parent)

		Eventually(func() sessionv1alpha1.OverallStatus {
			var got sessionv1alpha1.SessionServer
			if err := k8sClient.Get(ctx, key, &got); err != nil {
				return ""
			}
			return got.Status.State
		}, timeout, interval).Should(Equal(sessionv1alpha1.StatusStarting))

		var before sessionv1alpha1.SessionServer
		Expect(k8sClient.Get(ctx, key, &before)).To(Succeed())
		after := before.DeepCopy()
		hibernated := true
		after.Spec.JupyterServer.Hibernated = &hibernated
		Expect(k8sClient.Update(ctx, after)).To(Succeed())

		c.onUpdate(&before, after)

		stsKey := types.NamespacedName{
			Namespace: "default",
			Name:      manifests.ChildName(name, sessionv1alpha1.ChildKeyStatefulSet),
		}
		Eventually(func() int32 {
			var sts appsv1.StatefulSet
			if err := k8sClient.Get(ctx, stsKey, &sts); err != nil || sts.Spec.Replicas == nil {
				return -1
			}
			return *sts.Spec.Replicas
		}, timeout, interval).Should(BeZero())
	})
})
