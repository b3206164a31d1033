package controllers

import (
	"time"

	"github.com/go-logr/logr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/metricsink"
)

// buildTestEngine wires a real Engine against the envtest API server, the
// same collaborators cmd/main.go assembles, for tests that exercise a single
// handler method directly rather than the full SessionServerController.
func buildTestEngine() (*engine.Engine, labels.Policy) {
	lbls := labels.NewPolicy("amalthea.dev", "SessionServer", nil)
	sink := metricsink.NewQueue(16, logr.Discard())
	pool := engine.NewWorkerPool()
	DeferCleanup(func() { pool.Stop() })

	eng := engine.New(k8sClient, &k8sclient.Client{}, config.Config{
		APIGroup:                  "amalthea.dev",
		InitContainerRestartLimit: 1,
		ContainerRestartLimit:     3,
	}, lbls, sink, pool, logr.Discard())
	return eng, lbls
}

// newStartedParent creates a SessionServer and runs HandleCreate directly,
// bypassing SessionServerController so the child-resource/event tests don't
// need a finalizer or culling registration to get a populated
// status.children map to patch against.
func newStartedParent(eng *engine.Engine, name string) *sessionv1alpha1.SessionServer {
	parent := &sessionv1alpha1.SessionServer{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Spec: sessionv1alpha1.SessionServerSpec{
			JupyterServer: sessionv1alpha1.JupyterServerSpec{Image: "jupyter/base-notebook:latest"},
		},
	}
	Expect(k8sClient.Create(ctx, parent)).To(Succeed())
	Expect(eng.HandleCreate(ctx, parent)).To(Succeed())

	Eventually(func() sessionv1alpha1.OverallStatus {
		var got sessionv1alpha1.SessionServer
		if err := k8sClient.Get(ctx, keyFor(name), &got); err != nil {
			return ""
		}
		return got.Status.State
	}, 10*time.Second, 100*time.Millisecond).Should(Equal(sessionv1alpha1.StatusStarting))

	var live sessionv1alpha1.SessionServer
	Expect(k8sClient.Get(ctx, keyFor(name), &live)).To(Succeed())
	return &live
}

func keyFor(name string) types.NamespacedName {
	return types.NamespacedName{Namespace: "default", Name: name}
}
