package models

import "time"

// CachedSummary is the denormalized snapshot of a READY summary kept in the
// local summary cache. At most one record exists per LectureID.
type CachedSummary struct {
	LectureID   string    `json:"lecture_id"`
	LectureName string    `json:"lecture_name"`
	CourseName  string    `json:"course_name"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"created_at"`
}

// LectureSummary is the response of GET /lectures/{id}/summary/.
type LectureSummary struct {
	Summary string `json:"summary"`
}
