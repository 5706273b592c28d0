// Package models contains shared data models used across the lecturepilot codebase.
package models

import (
	"strings"
	"time"
)

// SummaryStatus is the state of a lecture's server-side summarization job.
type SummaryStatus string

const (
	SummaryPending    SummaryStatus = "PENDING"
	SummaryProcessing SummaryStatus = "PROCESSING"
	SummaryReady      SummaryStatus = "READY"
	SummaryFailed     SummaryStatus = "FAILED"
)

// Normalize upper-cases the status; the backend is not consistent about case.
func (s SummaryStatus) Normalize() SummaryStatus {
	return SummaryStatus(strings.ToUpper(strings.TrimSpace(string(s))))
}

// IsTerminal reports whether polling must stop for this status.
func (s SummaryStatus) IsTerminal() bool {
	n := s.Normalize()
	return n == SummaryReady || n == SummaryFailed
}

// CourseInfo is the parent-course snapshot embedded in a lecture response.
type CourseInfo struct {
	ID   string `json:"course_id"`
	Name string `json:"course_name"`
}

// Lecture is a single uploaded lecture file and its summary job state.
// GET /lectures/{id}/ and the embedded lecture list both decode into it.
type Lecture struct {
	ID            string        `json:"lecture_id"`
	Name          string        `json:"lecture_name"`
	CourseID      string        `json:"course_id,omitempty"`
	FileURL       string        `json:"file_url,omitempty"`
	File          string        `json:"file,omitempty"`
	SummaryStatus SummaryStatus `json:"summary_status,omitempty"`
	SummaryText   string        `json:"summary_text,omitempty"`
	CourseInfo    *CourseInfo   `json:"course_info,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
}

// EffectiveStatus resolves the status the way the course view does: an
// explicit status wins; otherwise summary text implies READY and anything
// else is still PENDING.
func (l Lecture) EffectiveStatus() SummaryStatus {
	if s := l.SummaryStatus.Normalize(); s != "" {
		return s
	}
	if l.SummaryText != "" {
		return SummaryReady
	}
	return SummaryPending
}

// IsPending reports whether the lecture's summary is neither READY nor FAILED.
func (l Lecture) IsPending() bool {
	return !l.EffectiveStatus().IsTerminal()
}

// CourseName returns the parent course name when the backend embedded it.
func (l Lecture) CourseName() string {
	if l.CourseInfo == nil {
		return ""
	}
	return l.CourseInfo.Name
}

// Link returns whichever file URL field the backend populated.
func (l Lecture) Link() string {
	if l.FileURL != "" {
		return l.FileURL
	}
	return l.File
}
