package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const (
	DefaultCourseInterval    = time.Second
	DefaultCourseMaxAttempts = 180
)

// CourseAPI is the part of the course service the course poller reads.
type CourseAPI interface {
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
}

// CourseFunc observes every course aggregate the poller accepts. It runs on
// the poll goroutine under the task lock and must not call Stop.
type CourseFunc func(models.Course)

// CoursePoller re-fetches one course until no lecture is pending, a fetch
// fails, or the attempt ceiling is exceeded. It is owned by a single course
// view and holds that view's copy of the aggregate.
type CoursePoller struct {
	api         CourseAPI
	courseID    string
	interval    time.Duration
	maxAttempts int
	onUpdate    CourseFunc

	mu       sync.Mutex
	task     *Task
	course   *models.Course
	attempts int
	lastErr  error
}

type CoursePollerOption func(*CoursePoller)

func WithCourseInterval(d time.Duration) CoursePollerOption {
	return func(p *CoursePoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) CoursePollerOption {
	return func(p *CoursePoller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// OnUpdate registers fn to observe accepted aggregates.
func OnUpdate(fn CourseFunc) CoursePollerOption {
	return func(p *CoursePoller) { p.onUpdate = fn }
}

func NewCoursePoller(api CourseAPI, courseID string, opts ...CoursePollerOption) *CoursePoller {
	p := &CoursePoller{
		api:         api,
		courseID:    courseID,
		interval:    DefaultCourseInterval,
		maxAttempts: DefaultCourseMaxAttempts,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetCourse installs the aggregate loaded by the view before polling starts.
func (p *CoursePoller) SetCourse(c models.Course) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.course = &c
}

// Start begins polling. It returns false without doing anything when a
// session is already running. A new session resets the attempt counter.
// The first fetch happens one interval after Start.
func (p *CoursePoller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.task != nil && !p.task.Stopped() {
		return false
	}

	t := newTask(ctx)
	p.task = t
	p.attempts = 0
	p.lastErr = nil

	slog.Debug("course poll started", "course_id", p.courseID)
	go func() {
		defer t.exit()
		t.loop(p.interval, false, func(ctx context.Context) bool {
			return p.tick(ctx, t)
		})
	}()
	return true
}

// Stop ends the current session, if any. Responses still in flight are
// discarded.
func (p *CoursePoller) Stop() {
	p.mu.Lock()
	t := p.task
	p.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Running reports whether a session is live.
func (p *CoursePoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task != nil && !p.task.Stopped()
}

// Done is closed when the current session goroutine exits. Without a
// session it is already closed.
func (p *CoursePoller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.task.Done()
}

// Course returns the last accepted aggregate.
func (p *CoursePoller) Course() (models.Course, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.course == nil {
		return models.Course{}, false
	}
	return *p.course, true
}

// Attempts returns the number of ticks in the current session.
func (p *CoursePoller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Err returns the fetch error that ended the last session. Such errors are
// not surfaced otherwise; the last good aggregate stays displayed.
func (p *CoursePoller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *CoursePoller) tick(ctx context.Context, t *Task) bool {
	var attempt int
	if !t.guard(func() {
		p.mu.Lock()
		p.attempts++
		attempt = p.attempts
		p.mu.Unlock()
	}) {
		return false
	}

	if attempt > p.maxAttempts {
		if t.settle(nil) {
			slog.Info("course poll gave up", "course_id", p.courseID, "attempts", attempt-1)
		}
		return false
	}

	course, err := p.api.GetCourse(ctx, p.courseID)
	if err != nil {
		if t.settle(func() {
			p.mu.Lock()
			p.lastErr = err
			p.mu.Unlock()
		}) {
			slog.Info("course poll stopped on fetch error", "course_id", p.courseID, "attempt", attempt, "error", err)
		}
		return false
	}

	settled := course.Settled()
	slog.Debug("course poll tick", "course_id", p.courseID, "attempt", attempt, "settled", settled)

	update := func() {
		p.mu.Lock()
		p.course = course
		p.mu.Unlock()
		if p.onUpdate != nil {
			p.onUpdate(*course)
		}
	}

	if settled {
		if t.settle(update) {
			slog.Info("course settled", "course_id", p.courseID, "attempts", attempt)
		}
		return false
	}
	return t.guard(update)
}
