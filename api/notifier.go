/*
notifier.go - Background reminder for tasks due today

PURPOSE:
  Periodically looks for open tasks due today that asked for a
  notification and logs each of them once per day. The log line is the
  hook for whatever delivers the reminder (log shipping, alerting).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Remembers which task ids were announced for the current day
  - Forgets them when the day rolls over

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether the notifier is active (default: true)

USAGE:
  n := NewDueTaskNotifier(svc, logger)
  n.Start()
  // ... later
  n.Stop()

SEE ALSO:
  - followup/views.go: Service.DueToday
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/followup-engine/followup"
	"github.com/warp/followup-engine/generic"
)

// DueTaskNotifier announces tasks due today.
type DueTaskNotifier struct {
	Service       *followup.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// seenMu guards day and announced; mu only guards the lifecycle.
	seenMu    sync.Mutex
	day       generic.Date
	announced map[generic.TaskID]bool
}

// NewDueTaskNotifier creates a notifier with a one-minute interval.
func NewDueTaskNotifier(svc *followup.Service, logger *zap.Logger) *DueTaskNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DueTaskNotifier{
		Service:       svc,
		Logger:        logger,
		CheckInterval: time.Minute,
		Enabled:       true,
		announced:     make(map[generic.TaskID]bool),
	}
}

// Start begins the notifier.
func (n *DueTaskNotifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.Enabled {
		n.Logger.Info("notifier disabled, not starting")
		return
	}
	if n.ticker != nil {
		return
	}

	n.ticker = time.NewTicker(n.CheckInterval)
	n.stop = make(chan struct{})
	n.wg.Add(1)

	go n.run()

	n.Logger.Info("notifier started", zap.Duration("interval", n.CheckInterval))
}

// Stop stops the notifier and waits for the running check to finish.
func (n *DueTaskNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticker != nil {
		n.ticker.Stop()
		close(n.stop)
		n.wg.Wait()
		n.ticker = nil
		n.Logger.Info("notifier stopped")
	}
}

func (n *DueTaskNotifier) run() {
	defer n.wg.Done()

	// Run immediately on start
	n.check()

	for {
		select {
		case <-n.ticker.C:
			n.check()
		case <-n.stop:
			return
		}
	}
}

// RunNow triggers an immediate check and returns the newly announced tasks.
func (n *DueTaskNotifier) RunNow() []generic.Task {
	return n.check()
}

func (n *DueTaskNotifier) check() []generic.Task {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	due, err := n.Service.DueToday(ctx)
	if err != nil {
		n.Logger.Error("notifier: list due tasks", zap.Error(err))
		return nil
	}

	today := generic.Today()
	if n.Service.Now != nil {
		today = generic.DateOf(n.Service.Now())
	}

	n.seenMu.Lock()
	defer n.seenMu.Unlock()
	if !n.day.Equal(today) {
		n.day = today
		n.announced = make(map[generic.TaskID]bool)
	}

	var fresh []generic.Task
	for _, t := range due {
		if n.announced[t.ID] {
			continue
		}
		n.announced[t.ID] = true
		fresh = append(fresh, t)
		n.Logger.Info("task due today",
			zap.String("task_id", string(t.ID)),
			zap.String("client", t.ClientName),
			zap.String("title", t.Title),
			zap.String("type", string(t.Type)),
			zap.String("importance", string(t.Importance)))
	}
	return fresh
}
