package poller

import (
	"context"
	"errors"
	"sync"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

var ErrViewClosed = errors.New("summary view closed")

// SummaryLister reads the cached summaries for dashboard mode.
type SummaryLister interface {
	All(ctx context.Context) ([]models.CachedSummary, error)
}

// SummaryView is the summary screen. It allows at most one active watch per
// lecture and tears all of them down on Close.
type SummaryView struct {
	poller *LecturePoller
	cache  SummaryLister

	show    sync.Mutex
	mu      sync.Mutex
	watches map[string]*LectureWatch
	closed  bool
}

func NewSummaryView(p *LecturePoller, cache SummaryLister) *SummaryView {
	return &SummaryView{poller: p, cache: cache, watches: make(map[string]*LectureWatch)}
}

// Show opens the view for lectureID. A previous watch of the same lecture is
// stopped before the new one starts; a new watch is a new poll session, which
// is also how a failed lecture is retried. With an empty lectureID no polling
// starts and the cached summaries are returned instead.
func (v *SummaryView) Show(ctx context.Context, lectureID string, onStatus StatusFunc) (*LectureWatch, []models.CachedSummary, error) {
	if lectureID == "" {
		records, err := v.cache.All(ctx)
		if err != nil {
			return nil, nil, err
		}
		return nil, records, nil
	}

	// show serializes Show calls so a lecture never has two live watches.
	// Stop runs without v.mu: it waits for the previous watch's observer,
	// which may itself read the view.
	v.show.Lock()
	defer v.show.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, nil, ErrViewClosed
	}
	prev := v.watches[lectureID]
	delete(v.watches, lectureID)
	v.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, nil, ErrViewClosed
	}
	w, err := v.poller.Watch(ctx, lectureID, onStatus)
	if err != nil {
		return nil, nil, err
	}
	v.watches[lectureID] = w
	return w, nil, nil
}

// Active returns the number of watches that have not ended.
func (v *SummaryView) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, w := range v.watches {
		if !w.Stopped() {
			n++
		}
	}
	return n
}

// Close stops every watch. Results of requests still in flight are discarded.
func (v *SummaryView) Close() {
	v.mu.Lock()
	v.closed = true
	watches := make([]*LectureWatch, 0, len(v.watches))
	for id, w := range v.watches {
		watches = append(watches, w)
		delete(v.watches, id)
	}
	v.mu.Unlock()

	for _, w := range watches {
		w.Stop()
	}
}
