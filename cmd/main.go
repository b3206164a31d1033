// Package main is the entry point for the SessionServer operator.
//
// This operator manages the lifecycle of SessionServer custom resources
// (historically a Jupyter-style interactive compute session): a single
// parent CRD whose children are a StatefulSet, a Service, a ConfigMap, a
// Secret, and optionally an Ingress and a PersistentVolumeClaim.
//
// Key responsibilities:
//   - Materializing a SessionServer's children on creation (internal/engine)
//   - Deriving and writing status.state from the main pod's observed state
//     (internal/status)
//   - Pushing spec.jupyterServer.hibernated/resources edits down onto the
//     child StatefulSet (internal/engine field handlers)
//   - Culling idle, overage, stuck, and long-hibernated sessions
//     (internal/culling)
//   - Emitting one metric event per status transition, to Prometheus and
//     optionally NATS (internal/metricsink)
//
// Architecture:
//   - SessionServerController: parent create/delete/status/field dispatch
//   - ChildResourceController: built-in child kind + main pod dispatch
//   - ExtraChildController: operator-configured extra child kind dispatch
//   - StatefulSetEventController: quota-rejection event surfacing
//   - culling.Scheduler: per-parent cron jobs for the three culling checks
//     and the optional resource-usage report
//
// Deployment:
//
//	The operator is designed to run as a Kubernetes Deployment with:
//	  - Leader election for high availability
//	  - Health and readiness probes
//	  - Prometheus metrics endpoint on :8765 (METRICS_PORT)
//	  - Health probes on :8081
//
// Example usage:
//
//	# Run with leader election enabled
//	./operator --leader-elect=true
//
//	# Enable debug logging
//	./operator --zap-log-level=debug
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/controllers"
	"github.com/sessionserver-operator/operator/internal/config"
	"github.com/sessionserver-operator/operator/internal/culling"
	"github.com/sessionserver-operator/operator/internal/engine"
	"github.com/sessionserver-operator/operator/internal/k8sclient"
	"github.com/sessionserver-operator/operator/internal/labels"
	"github.com/sessionserver-operator/operator/internal/metricsink"
	_ "github.com/sessionserver-operator/operator/pkg/metrics" // registers Prometheus metrics
)

var (
	// scheme defines the runtime scheme used by the operator. It includes
	// standard Kubernetes types and the SessionServer custom resource.
	scheme = runtime.NewScheme()

	// setupLog is the logger used during operator initialization.
	setupLog = ctrl.Log.WithName("setup")
)

// init registers all required schemes with the operator's runtime scheme.
// This must happen before the manager is created to ensure all types are
// recognized.
func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(sessionv1alpha1.AddToScheme(scheme))
}

// main is the entry point for the SessionServer operator.
//
// It performs the following initialization steps:
//  1. Parse command-line flags and process configuration
//  2. Initialize structured logging with zap
//  3. Create the controller manager with leader election
//  4. Build the shared collaborators (client wrapper, label policy, metric
//     sink, reconciliation engine, culling controller)
//  5. Register the three watcher controllers plus the extra-child runnable
//  6. Setup health and readiness probes
//  7. Start the manager and wait for shutdown signal
//
// The operator exits with code 1 if any initialization step fails.
func main() {
	// Loaded before flag parsing so METRICS_PORT can seed the
	// metrics-bind-address default that the command-line flag may still
	// override.
	cfg, err := config.Load()
	if err != nil {
		setupLog.Error(err, "unable to load configuration")
		os.Exit(1)
	}

	var metricsAddr string
	var enableLeaderElection bool
	var probeAddr string
	var natsURL string

	flag.StringVar(&metricsAddr, "metrics-bind-address", fmt.Sprintf(":%d", cfg.MetricsPort), "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	flag.StringVar(&natsURL, "nats-url", getEnv("NATS_URL", "nats://localhost:4222"), "NATS server URL for the metric sink")

	opts := zap.Options{
		Development: true,
		TimeEncoder: zapcore.ISO8601TimeEncoder,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	metricsBindAddress := metricsAddr
	if !cfg.MetricsEnabled {
		metricsBindAddress = "0"
	}

	// NAMESPACES/CLUSTER_WIDE scope the manager's cache. Leaving
	// DefaultNamespaces nil (the zero value) watches cluster-wide, which is
	// also what happens if NAMESPACES is unset and CLUSTER_WIDE isn't true.
	cacheOpts := cache.Options{}
	if !cfg.ClusterWide && len(cfg.Namespaces) > 0 {
		cacheOpts.DefaultNamespaces = make(map[string]cache.Config, len(cfg.Namespaces))
		for _, ns := range cfg.Namespaces {
			cacheOpts.DefaultNamespaces[ns] = cache.Config{}
		}
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Cache:  cacheOpts,

		Metrics:                metricsserver.Options{BindAddress: metricsBindAddress},
		HealthProbeBindAddress: probeAddr,

		LeaderElection:   enableLeaderElection,
		LeaderElectionID: "sessionserver-operator.amalthea.dev",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	k8s, err := k8sclient.NewClient(mgr.GetConfig())
	if err != nil {
		setupLog.Error(err, "unable to create k8s client wrapper")
		os.Exit(1)
	}

	labelPolicy := labels.NewPolicy(cfg.APIGroup, cfg.CRDName, cfg.SelectorLabels)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handlers []metricsink.Handler
	handlers = append(handlers, metricsink.PrometheusHandler{})
	if natsURL != "" {
		natsHandler := metricsink.NewNATSHandler(natsURL, ctrl.Log.WithName("metricsink").WithName("nats"))
		defer natsHandler.Close()
		handlers = append(handlers, natsHandler)
	}
	sink := metricsink.NewQueue(256, ctrl.Log.WithName("metricsink"), handlers...)
	go sink.Run(ctx)

	pool := engine.NewWorkerPool()
	defer pool.Stop()

	eng := engine.New(mgr.GetClient(), k8s, cfg, labelPolicy, sink, pool, ctrl.Log.WithName("engine"))

	cullCtrl := culling.New(mgr.GetClient(), k8s, eng.Writer, labelPolicy, cfg, ctrl.Log.WithName("culling"))
	scheduler := culling.NewScheduler(cullCtrl, mgr.GetClient())
	scheduler.Start()
	defer scheduler.Stop()

	if err := (&controllers.SessionServerController{
		Engine:  eng,
		Culling: scheduler,
		Log:     ctrl.Log.WithName("controllers").WithName("SessionServer"),
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "SessionServer")
		os.Exit(1)
	}

	if err := (&controllers.ChildResourceController{
		Engine: eng,
		Labels: labelPolicy,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "ChildResource")
		os.Exit(1)
	}

	if err := (&controllers.StatefulSetEventController{
		Client: mgr.GetClient(),
		Engine: eng,
		Labels: labelPolicy,
		Log:    ctrl.Log.WithName("controllers").WithName("StatefulSetEvent"),
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "StatefulSetEvent")
		os.Exit(1)
	}

	if err := mgr.Add(&controllers.ExtraChildController{
		K8s:    k8s,
		Engine: eng,
		Labels: labelPolicy,
		Refs:   cfg.ExtraChildResources,
		Log:    ctrl.Log.WithName("controllers").WithName("ExtraChild"),
	}); err != nil {
		setupLog.Error(err, "unable to register extra child resource watcher")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
