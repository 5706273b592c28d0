package poller

import "errors"

var (
	ErrMissingLectureID = errors.New("lecture id is required")
	ErrSummaryFailed    = errors.New("summary generation failed")
	ErrStatusFetch      = errors.New("failed to fetch lecture status")
	ErrSummaryFetch     = errors.New("failed to fetch summary")
	ErrStopped          = errors.New("polling stopped before a result")
)
