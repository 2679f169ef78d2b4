package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a named callback run on a fixed interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs background tasks on a cron until it is stopped or its
// context ends. Intervals below one second are rounded up by cron.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	tasks    []Task
	entryIDs map[string]cron.EntryID
	cancel   context.CancelFunc
	started  bool
	stopOnce sync.Once
}

func New() *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Every registers a task. Tasks registered after Start are ignored.
func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || interval <= 0 {
		return
	}
	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Run: run})
}

// Start adds every task as an @every entry and starts the cron. Cancelling
// ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, task := range s.tasks {
		id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", task.Interval), func() {
			if runCtx.Err() != nil {
				return
			}
			task.Run(runCtx)
		})
		if err != nil {
			log.Printf("[WARN] scheduler: task %q not registered: %v", task.Name, err)
			continue
		}
		s.entryIDs[task.Name] = id
	}
	s.cron.Start()

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop cancels every task and waits for in-flight runs to return. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		<-s.cron.Stop().Done()
	})
}

// Entries returns the registered task names.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entryIDs))
	for name := range s.entryIDs {
		names = append(names, name)
	}
	return names
}
