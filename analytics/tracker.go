// Package analytics brackets every reading position a reader lands on with
// a page-view record that is opened on entry and closed with the dwell time
// on exit. Recording is best effort: calls run in the background, failures
// are logged and never retried.
package analytics

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultCheckpointInterval is how often an open page view pushes its
// elapsed time while the reader stays on the same position.
const DefaultCheckpointInterval = 30 * time.Second

const defaultCallTimeout = 10 * time.Second

// Visit describes the position being viewed and who is viewing it.
// UserID is empty for anonymous readers.
type Visit struct {
	UserID          string
	ChapterIndex    int
	SubChapterIndex int
	LoggedIn        bool
}

// Recorder persists page views.
type Recorder interface {
	OpenPageView(ctx context.Context, v Visit) (string, error)
	CheckpointPageView(ctx context.Context, id string, seconds int64) error
	ClosePageView(ctx context.Context, id string, seconds int64) error
}

type State int

const (
	StatePending State = iota
	StateOpen
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Tracker struct {
	rec      Recorder
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

type TrackerOption func(*Tracker)

// WithCheckpointInterval sets the checkpoint period; zero disables checkpoints.
func WithCheckpointInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.interval = d }
}

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithCallTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func NewTracker(rec Recorder, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		rec:      rec,
		interval: DefaultCheckpointInterval,
		timeout:  defaultCallTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open starts a page view for v and returns without waiting for the
// recorder.
func (t *Tracker) Open(v Visit) *View {
	pv := &View{
		tracker: t,
		visit:   v,
		started: t.now(),
		stop:    make(chan struct{}),
	}
	t.wg.Add(1)
	go pv.run()
	return pv
}

// Wait blocks until every page view has been closed and has finished talking
// to the recorder, or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View is one open page view.
type View struct {
	tracker *Tracker
	visit   Visit
	started time.Time

	mu    sync.Mutex
	id    string
	state State
	ended time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func (pv *View) Visit() Visit { return pv.visit }

func (pv *View) State() State {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.state
}

// ID returns the record id once the open call has succeeded.
func (pv *View) ID() string {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.id
}

// Close ends the page view. The dwell time is measured now; the final
// update happens in the background. Calling Close more than once is safe.
func (pv *View) Close() {
	pv.stopOnce.Do(func() {
		pv.mu.Lock()
		pv.ended = pv.tracker.now()
		pv.mu.Unlock()
		close(pv.stop)
	})
}

func (pv *View) run() {
	defer pv.tracker.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), pv.tracker.timeout)
	id, err := pv.tracker.rec.OpenPageView(ctx, pv.visit)
	cancel()

	pv.mu.Lock()
	if err != nil {
		pv.state = StateFailed
		pv.mu.Unlock()
		log.Printf("analytics: open page view (%d,%d): %v", pv.visit.ChapterIndex, pv.visit.SubChapterIndex, err)
		return
	}
	pv.id = id
	pv.state = StateOpen
	pv.mu.Unlock()

	var tick <-chan time.Time
	if pv.tracker.interval > 0 {
		ticker := time.NewTicker(pv.tracker.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			pv.checkpoint(id)
		case <-pv.stop:
			pv.finish(id)
			return
		}
	}
}

func (pv *View) checkpoint(id string) {
	seconds := elapsedSeconds(pv.started, pv.tracker.now())
	ctx, cancel := context.WithTimeout(context.Background(), pv.tracker.timeout)
	defer cancel()
	if err := pv.tracker.rec.CheckpointPageView(ctx, id, seconds); err != nil {
		log.Printf("analytics: checkpoint page view %s: %v", id, err)
	}
}

func (pv *View) finish(id string) {
	pv.mu.Lock()
	ended := pv.ended
	pv.state = StateClosed
	pv.mu.Unlock()

	seconds := elapsedSeconds(pv.started, ended)
	ctx, cancel := context.WithTimeout(context.Background(), pv.tracker.timeout)
	defer cancel()
	if err := pv.tracker.rec.ClosePageView(ctx, id, seconds); err != nil {
		log.Printf("analytics: close page view %s: %v", id, err)
	}
}

func elapsedSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
