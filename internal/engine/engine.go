package engine

import (
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/metricsink"
	"github.com/sessionserver-operator/operator/internal/status"
	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// Engine wires the explicit handler table to a shared writer, label policy,
// worker pool and metric sink. One Engine serves the whole operator process;
// controllers/sessionserver_controller.go adapts controller-runtime's watch
// events into calls on its handler methods and submits them to Pool keyed by
// parent so per-parent ordering is preserved.
type Engine struct {
	Client client.Client
	K8s    *k8sclient.Client

	Writer *Writer
	Labels labels.Policy
	Config config.Config

	MetricSink *metricsink.Queue
	Pool       *WorkerPool

	Log logr.Logger
}

// New builds an Engine from its collaborators. Callers (cmd/main.go) own
// the lifetime of Pool and MetricSink; Engine only uses them.
func New(c client.Client, k8s *k8sclient.Client, cfg config.Config, lbls labels.Policy, sink *metricsink.Queue, pool *WorkerPool, log logr.Logger) *Engine {
	return &Engine{
		Client:     c,
		K8s:        k8s,
		Writer:     &Writer{Client: c},
		Labels:     lbls,
		Config:     cfg,
		MetricSink: sink,
		Pool:       pool,
		Log:        log,
	}
}

func (e *Engine) restartLimits() status.RestartLimits {
	return status.RestartLimits{Init: e.Config.InitContainerRestartLimit, Regular: e.Config.ContainerRestartLimit}
}

// recordReconciliation is called via defer by every exported Handle* entry
// point to fill in pkg/metrics's reconciliation counters/histogram.
func recordReconciliation(handler string, start time.Time, err error) {
	metrics.ObserveReconciliationDuration(handler, time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordReconciliation(outcome)
}
