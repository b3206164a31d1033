package culling

import (
	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
)

// Controller runs the three independent periodic culling tasks plus the
// optional resource-usage reporter, reusing the reconciliation engine's own
// Writer so every culling write goes through the same conflict-retry and
// NotFound-swallowing discipline.
type Controller struct {
	Client client.Client
	K8s    *k8sclient.Client
	Writer *engine.Writer
	Labels labels.Policy
	Config config.Config

	Prober ActivityProber

	Log logr.Logger
}

// New builds a Controller that probes activity with ProbeActivity; tests
// build a Controller directly with a stub Prober instead.
func New(c client.Client, k8s *k8sclient.Client, w *engine.Writer, lbls labels.Policy, cfg config.Config, log logr.Logger) *Controller {
	return &Controller{Client: c, K8s: k8s, Writer: w, Labels: lbls, Config: cfg, Prober: ProbeActivity, Log: log}
}

func (c *Controller) prober() ActivityProber {
	if c.Prober != nil {
		return c.Prober
	}
	return ProbeActivity
}
