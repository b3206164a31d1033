package culling

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
)

// perParentEntries tracks the cron.EntryIDs registered for one parent so
// Unregister can remove exactly its own jobs without affecting others.
type perParentEntries struct {
	idle, pendingFailed, hibernatedAge, resourceUsage cron.EntryID
}

// Scheduler owns a single robfig/cron/v3 instance and registers/
// unregisters one set of periodic jobs per parent as SessionServers are
// created and deleted.
type Scheduler struct {
	cron   *cron.Cron
	ctrl   *Controller
	client client.Client

	mu      sync.Mutex
	entries map[string]perParentEntries
}

// NewScheduler builds a Scheduler. Call Start once at operator startup and
// Stop at shutdown.
func NewScheduler(ctrl *Controller, c client.Client) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		ctrl:    ctrl,
		client:  c,
		entries: make(map[string]perParentEntries),
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop drains in-flight jobs before returning, at the granularity cron
// itself offers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Register schedules the idle, pending/failed, hibernated-age, and (if
// enabled) resource-usage jobs for one parent. It is idempotent: calling it
// again for an already-registered parent first unregisters the old entries.
func (s *Scheduler) Register(key types.NamespacedName) error {
	s.Unregister(key)

	idleSpec := everySpec(s.ctrl.Config.IdleCheckInterval)
	pendingSpec := everySpec(s.ctrl.Config.PendingCheckInterval)
	resourceSpec := everySpec(s.ctrl.Config.ResourceCheckInterval)

	var entries perParentEntries
	var err error

	if entries.idle, err = s.cron.AddFunc(idleSpec, s.job(key, (*Controller).RunIdleCheck)); err != nil {
		return fmt.Errorf("scheduling idle check for %s: %w", key, err)
	}
	if entries.pendingFailed, err = s.cron.AddFunc(pendingSpec, s.job(key, (*Controller).RunPendingFailedCheck)); err != nil {
		return fmt.Errorf("scheduling pending/failed check for %s: %w", key, err)
	}
	// The hibernated-age check rides the same cadence as the pending/failed
	// check; both are cheap metadata-only reads.
	if entries.hibernatedAge, err = s.cron.AddFunc(pendingSpec, s.job(key, (*Controller).RunHibernatedAgeCheck)); err != nil {
		return fmt.Errorf("scheduling hibernated-age check for %s: %w", key, err)
	}
	if s.ctrl.Config.ResourceCheckEnabled {
		if entries.resourceUsage, err = s.cron.AddFunc(resourceSpec, s.job(key, (*Controller).RunResourceUsageReport)); err != nil {
			return fmt.Errorf("scheduling resource-usage report for %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.entries[key.String()] = entries
	s.mu.Unlock()
	return nil
}

// Unregister removes every job scheduled for a parent, called when the
// parent is observed deleted.
func (s *Scheduler) Unregister(key types.NamespacedName) {
	s.mu.Lock()
	entries, ok := s.entries[key.String()]
	if ok {
		delete(s.entries, key.String())
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, id := range []cron.EntryID{entries.idle, entries.pendingFailed, entries.hibernatedAge, entries.resourceUsage} {
		if id != 0 {
			s.cron.Remove(id)
		}
	}
}

func (s *Scheduler) job(key types.NamespacedName, run func(*Controller, context.Context, *sessionv1alpha1.SessionServer) error) func() {
	return func() {
		ctx := context.Background()
		var parent sessionv1alpha1.SessionServer
		if err := s.client.Get(ctx, key, &parent); err != nil {
			return
		}
		if err := run(s.ctrl, ctx, &parent); err != nil {
			s.ctrl.Log.Info("culling task failed", "namespace", key.Namespace, "name", key.Name, "error", err.Error())
		}
	}
}

func everySpec(d interface{ String() string }) string {
	return fmt.Sprintf("@every %s", d)
}
