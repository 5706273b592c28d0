package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLecturePoller(api LectureAPI, c SummaryStore) *LecturePoller {
	return NewLecturePoller(api, c, testInterval, WithLectureClock(func() time.Time { return fixedNow }))
}

func TestLectureWatch_PendingPendingReady(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending, models.SummaryPending, models.SummaryReady)
	c := newCache(t)
	p := newTestLecturePoller(api, c)

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	rec, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "L1", rec.LectureID)
	assert.Equal(t, "Lecture L1", rec.LectureName)
	assert.Equal(t, "Algebra", rec.CourseName)
	assert.Equal(t, fixedNow, rec.CreatedAt)

	status, summary := api.counts()
	assert.Equal(t, 3, status)
	assert.Equal(t, 1, summary)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "L1", all[0].LectureID)

	requireCalmFor(t, 5*testInterval, func() int { n, _ := api.counts(); return n })
}

func TestLectureWatch_ReadyCaseInsensitive(t *testing.T) {
	api := newFakeLectureAPI("ready")
	p := newTestLecturePoller(api, newCache(t))

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)
	_, err = w.Wait(context.Background())
	require.NoError(t, err)
}

func TestLectureWatch_FailedNeverFetchesSummary(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryProcessing, models.SummaryFailed)
	c := newCache(t)
	p := newTestLecturePoller(api, c)

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrSummaryFailed)

	status, summary := api.counts()
	assert.Equal(t, 2, status)
	assert.Zero(t, summary)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	requireCalmFor(t, 5*testInterval, func() int { n, _ := api.counts(); return n })
}

func TestLectureWatch_StatusErrorIsTerminal(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending)
	boom := errors.New("connection refused")
	api.statusErr = boom
	p := newTestLecturePoller(api, newCache(t))

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrStatusFetch)
	require.ErrorIs(t, err, boom)

	requireCalmFor(t, 5*testInterval, func() int { n, _ := api.counts(); return n })
	status, _ := api.counts()
	assert.Equal(t, 1, status)
}

func TestLectureWatch_SummaryErrorLeavesCacheUntouched(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryReady)
	api.summaryErr = errors.New("500")
	c := newCache(t)
	p := newTestLecturePoller(api, c)

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrSummaryFetch)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLectureWatch_AtMostOneSummaryFetch(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryReady)
	api.summaryGate = make(chan struct{})
	p := newTestLecturePoller(api, newCache(t))

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	<-api.summaryStarted
	// Several intervals pass while the summary request is in flight.
	time.Sleep(10 * testInterval)
	status, summary := api.counts()
	assert.Equal(t, 1, status)
	assert.Equal(t, 1, summary)

	close(api.summaryGate)
	_, err = w.Wait(context.Background())
	require.NoError(t, err)

	_, summary = api.counts()
	assert.Equal(t, 1, summary)
}

func TestLectureWatch_StopDiscardsInFlightSummary(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryReady)
	api.summaryGate = make(chan struct{})
	c := newCache(t)
	p := newTestLecturePoller(api, c)

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	<-api.summaryStarted
	w.Stop()
	close(api.summaryGate)

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrStopped)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "late summary must not reach the cache")
}

func TestLectureWatch_StopHaltsPolling(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending)
	p := newTestLecturePoller(api, newCache(t))

	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { n, _ := api.counts(); return n >= 2 }, time.Second, time.Millisecond)
	w.Stop()
	waitDone(t, w.Done())

	requireCalmFor(t, 5*testInterval, func() int { n, _ := api.counts(); return n })
	_, summary := api.counts()
	assert.Zero(t, summary)
}

func TestLectureWatch_ParentCancelIsTeardown(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending)
	p := newTestLecturePoller(api, newCache(t))

	ctx, cancel := context.WithCancel(context.Background())
	w, err := p.Watch(ctx, "L1", nil)
	require.NoError(t, err)

	cancel()
	waitDone(t, w.Done())
	assert.True(t, w.Stopped())

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

func TestLectureWatch_ObservesStatuses(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending, models.SummaryProcessing, models.SummaryReady)
	p := newTestLecturePoller(api, newCache(t))

	var mu sync.Mutex
	var seen []models.SummaryStatus
	w, err := p.Watch(context.Background(), "L1", func(l models.Lecture) {
		mu.Lock()
		seen = append(seen, l.SummaryStatus)
		mu.Unlock()
	})
	require.NoError(t, err)

	_, err = w.Wait(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.SummaryStatus{models.SummaryPending, models.SummaryProcessing, models.SummaryReady}, seen)

	lec, ok := w.Lecture()
	require.True(t, ok)
	assert.Equal(t, models.SummaryReady, lec.SummaryStatus)
}

func TestLectureWatch_MissingID(t *testing.T) {
	p := newTestLecturePoller(newFakeLectureAPI(models.SummaryReady), newCache(t))
	_, err := p.Watch(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrMissingLectureID)
}

func TestLectureWatch_WaitHonoursContext(t *testing.T) {
	api := newFakeLectureAPI(models.SummaryPending)
	p := newTestLecturePoller(api, newCache(t))
	w, err := p.Watch(context.Background(), "L1", nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*testInterval)
	defer cancel()
	_, err = w.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewLecturePoller_DefaultInterval(t *testing.T) {
	p := NewLecturePoller(newFakeLectureAPI(), newCache(t), 0)
	assert.Equal(t, DefaultLectureInterval, p.interval)
}
