package kev

import (
	"context"
	"sync"
	"time"

	"github.com/secscore-io/secscore/pkg/common"
)

// Scheduler arms a single periodic refresh timer per process, bound to the
// application lifecycle. The loop starts on the first call to Arm (the
// server calls it once at startup, not on the first request) and is
// cancelled on Stop; a kill-switch disables it entirely.
type Scheduler struct {
	catalog  *Catalog
	interval time.Duration
	disabled bool

	once   sync.Once
	cancel context.CancelFunc
}

// NewScheduler builds a scheduler for catalog, refreshing every interval
// unless disabled is set (the KEV_SCHEDULER_DISABLED kill-switch).
func NewScheduler(catalog *Catalog, interval time.Duration, disabled bool) *Scheduler {
	return &Scheduler{catalog: catalog, interval: interval, disabled: disabled}
}

// Arm starts the refresh loop on first call; subsequent calls are no-ops.
// Does nothing if the scheduler is disabled. The timer is unref'd from the
// process's perspective by being bound to ctx: Stop (or ctx's own
// cancellation) tears it down so it never outlives shutdown.
func (s *Scheduler) Arm(ctx context.Context) {
	if s.disabled {
		return
	}
	s.once.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.loop(loopCtx)
		common.Info("kev: scheduler armed, interval=%s", s.interval)
	})
}

// Stop cancels the refresh loop. Safe to call even if Arm was never called.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := s.catalog.Refresh(ctx)
			if res.Err != nil {
				common.Warn("kev: scheduled refresh failed: %v", res.Err)
			} else {
				common.Info("kev: scheduled refresh complete, changed=%v", res.Changed)
			}
		}
	}
}
