package schedule

import (
	"sort"
	"sync"
	"time"
)

// Task is a scheduled one-shot callback.
type Task interface {
	// Stop cancels the task. It returns false if the task already ran or
	// was already stopped.
	Stop() bool
}

// Scheduler creates one-shot tasks.
type Scheduler interface {
	// AfterFunc runs fn in its own goroutine once d has elapsed.
	// A negative d is treated as zero.
	AfterFunc(d time.Duration, fn func()) Task
}

// Real schedules tasks on the wall clock.
type Real struct{}

// AfterFunc schedules fn with time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, fn)
}

// Manual is a virtual clock for tests. Tasks run only when Advance moves the
// clock past their due time, synchronously on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

// manualTask is a task owned by a Manual scheduler.
type manualTask struct {
	m       *Manual
	due     time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates a virtual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc registers fn to run when the clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{m: m, due: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d and runs every task that became due,
// in due order. Tasks scheduled by a running task are considered as well.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.fired = true
		m.now = next.due
		m.removeLocked(next)
		fn := next.fn
		m.mu.Unlock()

		// Run outside lock so the task may schedule again.
		fn()
	}
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of tasks waiting to run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// nextDue returns the earliest task due at or before target.
func (m *Manual) nextDue(target time.Duration) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	if len(m.tasks) == 0 || m.tasks[0].due > target {
		return nil
	}
	return m.tasks[0]
}

func (m *Manual) removeLocked(t *manualTask) {
	for i, other := range m.tasks {
		if other == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Stop cancels the task if it has not run yet.
func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.m.removeLocked(t)
	return true
}

// Compile-time interface satisfaction checks.
var (
	_ Scheduler = Real{}
	_ Scheduler = (*Manual)(nil)
	_ Task      = (*time.Timer)(nil)
)
