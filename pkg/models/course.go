package models

import "time"

// Course is the course aggregate: course metadata plus its embedded lectures.
// It is never cached locally; every view re-fetches it.
type Course struct {
	ID           string     `json:"course_id"`
	Name         string     `json:"course_name"`
	Teacher      string     `json:"course_teacher,omitempty"`
	Lectures     []Lecture  `json:"lectures"`
	LectureCount *int       `json:"lecture_count,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// HasPendingSummaries reports whether any embedded lecture is still waiting
// on its summary job. A course with no pending lectures is settled.
func (c *Course) HasPendingSummaries() bool {
	if c == nil {
		return false
	}
	for _, l := range c.Lectures {
		if l.IsPending() {
			return true
		}
	}
	return false
}

// Settled is the negation of HasPendingSummaries.
func (c *Course) Settled() bool {
	return !c.HasPendingSummaries()
}

// CourseInput is the request body for course create and edit.
type CourseInput struct {
	Name    string `json:"course_name"              validate:"required"`
	Teacher string `json:"course_teacher,omitempty"`
}
