package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// DefaultLectureInterval is the status polling period of a lecture watch.
const DefaultLectureInterval = 4 * time.Second

// LectureAPI is the part of the course service the lecture poller reads.
type LectureAPI interface {
	GetLecture(ctx context.Context, lectureID string) (*models.Lecture, error)
	GetLectureSummary(ctx context.Context, lectureID string) (string, error)
}

// SummaryStore is where resolved summaries are written.
type SummaryStore interface {
	Upsert(ctx context.Context, rec models.CachedSummary) error
}

// LecturePoller starts lecture watches. It holds no per-lecture state.
type LecturePoller struct {
	api      LectureAPI
	cache    SummaryStore
	interval time.Duration
	now      func() time.Time
}

type LecturePollerOption func(*LecturePoller)

// WithLectureClock overrides time.Now for the created_at of cached records.
func WithLectureClock(now func() time.Time) LecturePollerOption {
	return func(p *LecturePoller) { p.now = now }
}

func NewLecturePoller(api LectureAPI, cache SummaryStore, interval time.Duration, opts ...LecturePollerOption) *LecturePoller {
	if interval <= 0 {
		interval = DefaultLectureInterval
	}
	p := &LecturePoller{api: api, cache: cache, interval: interval, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// StatusFunc observes each live status response of a watch. It runs on the
// watch goroutine under the task lock. It must not call Stop on the watch,
// SummaryView.Close, or SummaryView.Show for the same lecture; reading the
// view with Active is fine.
type StatusFunc func(models.Lecture)

// LectureWatch is one poll session for one lecture. It fetches the status
// immediately and then every interval until READY, FAILED, an error or Stop.
// On READY the summary body is fetched exactly once and upserted into the
// cache.
type LectureWatch struct {
	*Task

	lectureID string
	poller    *LecturePoller
	onStatus  StatusFunc

	// fetched is the one-shot latch guarding the summary fetch.
	fetched atomic.Bool

	// Guarded by Task.mu.
	lecture *models.Lecture
	result  *models.CachedSummary
	err     error
}

// Watch starts a poll session for lectureID. The session ends when ctx is
// canceled, which counts as a teardown.
func (p *LecturePoller) Watch(ctx context.Context, lectureID string, onStatus StatusFunc) (*LectureWatch, error) {
	if lectureID == "" {
		return nil, ErrMissingLectureID
	}

	w := &LectureWatch{
		Task:      newTask(ctx),
		lectureID: lectureID,
		poller:    p,
		onStatus:  onStatus,
	}
	go w.run()
	return w, nil
}

func (w *LectureWatch) LectureID() string {
	return w.lectureID
}

func (w *LectureWatch) run() {
	defer w.exit()

	w.loop(w.poller.interval, true, w.tick)

	if w.fetched.Load() {
		w.fetchSummary(w.ctx)
	}
}

// tick fetches the status once and reports whether polling continues.
func (w *LectureWatch) tick(ctx context.Context) bool {
	lecture, err := w.poller.api.GetLecture(ctx, w.lectureID)
	if err != nil {
		if w.settle(func() { w.err = fmt.Errorf("%w: %w", ErrStatusFetch, err) }) {
			slog.Info("lecture poll stopped on status error", "lecture_id", w.lectureID, "error", err)
		}
		return false
	}

	status := lecture.SummaryStatus.Normalize()
	slog.Debug("lecture status", "lecture_id", w.lectureID, "status", status)

	live := w.guard(func() {
		w.lecture = lecture
		if w.onStatus != nil {
			w.onStatus(*lecture)
		}
	})
	if !live {
		return false
	}

	switch status {
	case models.SummaryReady:
		// A second READY before the loop exits must not fetch again.
		w.fetched.CompareAndSwap(false, true)
		return false
	case models.SummaryFailed:
		if w.settle(func() { w.err = ErrSummaryFailed }) {
			slog.Info("lecture summary failed", "lecture_id", w.lectureID)
		}
		return false
	default:
		return true
	}
}

func (w *LectureWatch) fetchSummary(ctx context.Context) {
	text, err := w.poller.api.GetLectureSummary(ctx, w.lectureID)
	if err != nil {
		w.settle(func() { w.err = fmt.Errorf("%w: %w", ErrSummaryFetch, err) })
		return
	}

	committed := w.settle(func() {
		rec := models.CachedSummary{
			LectureID: w.lectureID,
			Summary:   text,
			CreatedAt: w.poller.now().UTC(),
		}
		if w.lecture != nil {
			rec.LectureName = w.lecture.Name
			rec.CourseName = w.lecture.CourseName()
		}
		if err := w.poller.cache.Upsert(ctx, rec); err != nil {
			w.err = fmt.Errorf("caching summary: %w", err)
			return
		}
		w.result = &rec
	})
	if committed {
		slog.Info("lecture summary ready", "lecture_id", w.lectureID)
	} else {
		slog.Debug("discarding summary after teardown", "lecture_id", w.lectureID)
	}
}

// Lecture returns the last status response, if any.
func (w *LectureWatch) Lecture() (models.Lecture, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lecture == nil {
		return models.Lecture{}, false
	}
	return *w.lecture, true
}

// Wait blocks until the session ends and returns the cached summary, or the
// terminal error. A session torn down before resolving returns ErrStopped.
func (w *LectureWatch) Wait(ctx context.Context) (*models.CachedSummary, error) {
	select {
	case <-w.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.err != nil:
		return nil, w.err
	case w.result != nil:
		rec := *w.result
		return &rec, nil
	default:
		return nil, ErrStopped
	}
}
