package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"fileshare/internal/domain/files"
)

// Reconciler is the part of files.Service the job needs.
type Reconciler interface {
	Reconcile(ctx context.Context) (files.ReconcileResult, error)
}

// Scheduler periodically reconciles the metadata index with the directory.
type Scheduler struct {
	cron    *cron.Cron
	target  Reconciler
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Mutex
}

// NewScheduler validates spec (standard cron syntax or @every) up front.
func NewScheduler(spec string, target Reconciler) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(),
		target: target,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("jobs: index reconciliation scheduled (%d entries)", len(s.cron.Entries()))
}

// Stop cancels a running pass and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Printf("jobs: index reconciliation stopped")
}

// RunOnce performs one reconciliation; overlapping runs are skipped.
func (s *Scheduler) RunOnce() {
	if !s.running.TryLock() {
		log.Printf("jobs: reconcile already running, skipping")
		return
	}
	defer s.running.Unlock()

	res, err := s.target.Reconcile(s.ctx)
	if err != nil {
		log.Printf("jobs: reconcile failed: %v", err)
		return
	}
	if res.Pruned > 0 || res.Indexed > 0 {
		log.Printf("jobs: reconcile pruned=%d indexed=%d", res.Pruned, res.Indexed)
	}
}
