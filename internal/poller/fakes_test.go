package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/lecturepilot/internal/cache"
	"github.com/kiranshivaraju/lecturepilot/internal/store"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const testInterval = 5 * time.Millisecond

// fakeLectureAPI replays a scripted status sequence; the last entry repeats.
type fakeLectureAPI struct {
	mu           sync.Mutex
	statuses     []models.SummaryStatus
	statusErr    error
	statusCalls  int
	summary      string
	summaryErr   error
	summaryCalls int

	// summaryGate, when set, blocks GetLectureSummary until closed or ctx ends.
	summaryGate chan struct{}
	// summaryStarted is closed on the first GetLectureSummary call.
	summaryStarted chan struct{}
}

func newFakeLectureAPI(statuses ...models.SummaryStatus) *fakeLectureAPI {
	return &fakeLectureAPI{statuses: statuses, summary: "# Notes\n- point", summaryStarted: make(chan struct{})}
}

func (f *fakeLectureAPI) GetLecture(_ context.Context, id string) (*models.Lecture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	i := f.statusCalls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return &models.Lecture{
		ID:            id,
		Name:          "Lecture " + id,
		SummaryStatus: f.statuses[i],
		CourseInfo:    &models.CourseInfo{ID: "C1", Name: "Algebra"},
	}, nil
}

func (f *fakeLectureAPI) GetLectureSummary(ctx context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.summaryCalls++
	if f.summaryCalls == 1 {
		close(f.summaryStarted)
	}
	gate, text, err := f.summaryGate, f.summary, f.summaryErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			// A real transport would abort here; report the late
			// response anyway to prove it is discarded.
		}
	}
	return text, err
}

func (f *fakeLectureAPI) counts() (status, summary int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.summaryCalls
}

func (f *fakeLectureAPI) setStatuses(s ...models.SummaryStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses, f.statusCalls = s, 0
}

// fakeCourseAPI answers with respond(call), optionally blocking on gate.
type fakeCourseAPI struct {
	mu      sync.Mutex
	calls   int
	respond func(call int) (*models.Course, error)
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeCourseAPI) GetCourse(ctx context.Context, _ string) (*models.Course, error) {
	f.mu.Lock()
	f.calls++
	call, gate, entered := f.calls, f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	return f.respond(call)
}

func (f *fakeCourseAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newCache(t *testing.T) *cache.SummaryCache {
	t.Helper()
	return cache.NewSummaryCache(store.NewMemoryStore())
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll session did not end")
	}
}

func courseWith(statuses ...models.SummaryStatus) *models.Course {
	c := &models.Course{ID: "C1", Name: "Algebra"}
	for i, s := range statuses {
		c.Lectures = append(c.Lectures, models.Lecture{ID: string(rune('a' + i)), SummaryStatus: s})
	}
	return c
}

func requireCalmFor(t *testing.T, d time.Duration, count func() int) {
	t.Helper()
	before := count()
	time.Sleep(d)
	require.Equal(t, before, count(), "requests issued after the session ended")
}
