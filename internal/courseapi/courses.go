package courseapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

func (c *HTTPClient) ListCourses(ctx context.Context) ([]models.Course, error) {
	raw, err := c.do(ctx, http.MethodGet, "/courses/", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeCourseList(raw)
}

// GetCourse returns the course aggregate. When the backend answers with a
// bare lecture array, the course metadata is resolved from the course list.
func (c *HTTPClient) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%s/lectures/", url.PathEscape(courseID)), nil, "")
	if err != nil {
		return nil, err
	}

	payload, err := decodeCoursePayload(raw)
	if err != nil {
		return nil, err
	}

	switch payload.shape {
	case shapeArray:
		return c.resolveCourse(ctx, courseID, payload.lectures)
	default:
		course := payload.course
		if course.ID == "" {
			course.ID = courseID
		}
		return &course, nil
	}
}

func (c *HTTPClient) resolveCourse(ctx context.Context, courseID string, lectures []models.Lecture) (*models.Course, error) {
	courses, err := c.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving course info: %w", err)
	}
	for _, course := range courses {
		if course.ID == courseID {
			course.Lectures = lectures
			return &course, nil
		}
	}
	return nil, &APIError{StatusCode: http.StatusNotFound, Message: "course not found", kind: ErrNotFound}
}

func (c *HTTPClient) CreateCourse(ctx context.Context, in models.CourseInput) (*models.Course, error) {
	var course models.Course
	if err := c.doJSON(ctx, http.MethodPost, "/courses/create/", in, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *HTTPClient) UpdateCourse(ctx context.Context, courseID string, in models.CourseInput) (*models.Course, error) {
	var course models.Course
	path := fmt.Sprintf("/courses/%s/edit/", url.PathEscape(courseID))
	if err := c.doJSON(ctx, http.MethodPut, path, in, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *HTTPClient) DeleteCourse(ctx context.Context, courseID string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/courses/%s/delete/", url.PathEscape(courseID)), nil, nil)
}
