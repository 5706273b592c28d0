package courseapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// courseShape tags which of the two response shapes the course endpoint used.
type courseShape int

const (
	shapeObject courseShape = iota // {"course_id": ..., "lectures": [...]}
	shapeArray                     // [{lecture}, ...]
)

// coursePayload is the decoded GET /courses/{id}/lectures/ response before
// normalisation into a models.Course.
type coursePayload struct {
	shape    courseShape
	course   models.Course
	lectures []models.Lecture
}

func decodeCoursePayload(raw []byte) (coursePayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return coursePayload{}, fmt.Errorf("%w: empty course body", ErrMalformedResponse)
	}

	if raw[0] == '[' {
		var lectures []models.Lecture
		if err := json.Unmarshal(raw, &lectures); err != nil {
			return coursePayload{}, fmt.Errorf("%w: decoding lecture array: %v", ErrMalformedResponse, err)
		}
		return coursePayload{shape: shapeArray, lectures: nonNilLectures(lectures)}, nil
	}

	var course models.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return coursePayload{}, fmt.Errorf("%w: decoding course: %v", ErrMalformedResponse, err)
	}
	course.Lectures = nonNilLectures(course.Lectures)
	return coursePayload{shape: shapeObject, course: course}, nil
}

// decodeCourseList accepts either a bare array or {"courses": [...]}.
func decodeCourseList(raw []byte) ([]models.Course, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty course list body", ErrMalformedResponse)
	}

	var courses []models.Course
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &courses); err != nil {
			return nil, fmt.Errorf("%w: decoding course list: %v", ErrMalformedResponse, err)
		}
	} else {
		var wrapped struct {
			Courses []models.Course `json:"courses"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: decoding course list: %v", ErrMalformedResponse, err)
		}
		courses = wrapped.Courses
	}

	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func nonNilLectures(l []models.Lecture) []models.Lecture {
	if l == nil {
		return []models.Lecture{}
	}
	return l
}
