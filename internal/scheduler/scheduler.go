// Package scheduler runs reminder timers and the daily admin report on a
// single cron instance.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler owns the cron loop. Jobs run on cron goroutines and must not
// block on the dispatch pipeline.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	log        *zap.Logger
	reportSpec string
	reportFunc func(ctx context.Context) error

	mu      sync.Mutex
	pending map[cron.EntryID]struct{}
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		pending: make(map[cron.EntryID]struct{}),
	}
}

// SetReportFunction registers the daily report. spec is a standard 5-field
// cron expression in UTC; an empty spec disables the report.
func (s *Scheduler) SetReportFunction(spec string, f func(ctx context.Context) error) {
	s.reportSpec = spec
	s.reportFunc = f
}

func (s *Scheduler) Start() error {
	if s.reportFunc == nil || s.reportSpec == "" {
		s.log.Warn("report function not set, daily reports disabled")
	} else {
		_, err := s.cron.AddFunc(s.reportSpec, func() {
			s.log.Info("daily report triggered")
			if err := s.reportFunc(s.ctx); err != nil {
				s.log.Error("daily report failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("report", s.reportSpec))
	return nil
}

// Stop waits for running jobs and cancels the context handed to them.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

// After runs job once, d from now. The entry removes itself after firing.
func (s *Scheduler) After(d time.Duration, job func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id cron.EntryID
	id = s.cron.Schedule(&onceSchedule{at: time.Now().Add(d)}, cron.FuncJob(func() {
		s.mu.Lock()
		_, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if !ok {
			return
		}
		s.cron.Remove(id)
		job()
	}))
	s.pending[id] = struct{}{}
	return id, nil
}

// Remove cancels a pending one-shot entry. Unknown ids are ignored.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.mu.Lock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if ok {
		s.cron.Remove(id)
	}
}

// Pending reports how many one-shot entries have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// onceSchedule yields its instant on the first call and the zero time
// afterwards, which cron treats as "never again".
type onceSchedule struct {
	at   time.Time
	used bool
}

func (o *onceSchedule) Next(time.Time) time.Time {
	if o.used {
		return time.Time{}
	}
	o.used = true
	return o.at
}
