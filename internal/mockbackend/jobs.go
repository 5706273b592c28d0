package mockbackend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// Jobs runs one background summarization job per uploaded lecture. A job
// waits steps delays: after the first the lecture is PROCESSING, after the
// last it is READY with its summary, or FAILED.
type Jobs struct {
	state      *State
	summarizer Summarizer
	steps      int
	delay      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJobs(state *State, summarizer Summarizer, steps int, delay time.Duration) *Jobs {
	if steps < 1 {
		steps = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		state:      state,
		summarizer: summarizer,
		steps:      steps,
		delay:      delay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Enqueue starts the job for a freshly uploaded lecture.
func (j *Jobs) Enqueue(lectureID, lectureName string, content []byte) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(lectureID, lectureName, content)
	}()
}

// Close stops pending jobs and waits for them to exit.
func (j *Jobs) Close() {
	j.cancel()
	j.wg.Wait()
}

// run always leaves the lecture in a terminal state unless it was deleted
// or the backend is shutting down.
func (j *Jobs) run(lectureID, lectureName string, content []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in summary job", "error", r, "lecture_id", lectureID)
			j.state.setJob(lectureID, models.SummaryFailed, "")
		}
	}()

	for step := 1; step <= j.steps; step++ {
		select {
		case <-j.ctx.Done():
			return
		case <-time.After(j.delay):
		}
		if step == 1 && j.steps > 1 {
			if !j.state.setJob(lectureID, models.SummaryProcessing, "") {
				return
			}
		}
	}

	if strings.Contains(strings.ToLower(lectureName), "fail") {
		j.fail(lectureID, fmt.Errorf("simulated failure"))
		return
	}

	summary, err := j.summarizer.Summarize(j.ctx, lectureName, content)
	if err != nil {
		j.fail(lectureID, err)
		return
	}

	if j.state.setJob(lectureID, models.SummaryReady, summary) {
		slog.Info("summary ready", "lecture_id", lectureID)
	}
}

func (j *Jobs) fail(lectureID string, err error) {
	if j.ctx.Err() != nil {
		return
	}
	slog.Warn("summary job failed", "lecture_id", lectureID, "error", err)
	j.state.setJob(lectureID, models.SummaryFailed, "")
}
