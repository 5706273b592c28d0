package courseapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// LectureUpload is a lecture name plus the file payload to submit.
type LectureUpload struct {
	Name     string
	Filename string
	Content  io.Reader
}

// UploadLecture submits a multipart form with lecture_name and file.
func (c *HTTPClient) UploadLecture(ctx context.Context, courseID string, in LectureUpload) (*models.Lecture, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("lecture_name", in.Name); err != nil {
		return nil, fmt.Errorf("writing lecture_name: %w", err)
	}
	part, err := mw.CreateFormFile("file", in.Filename)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return nil, fmt.Errorf("copying file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	path := fmt.Sprintf("/courses/%s/lectures/upload/", url.PathEscape(courseID))
	raw, err := c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	lecture := &models.Lecture{Name: in.Name, CourseID: courseID}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := decodeInto(raw, lecture); err != nil {
			return nil, err
		}
	}
	return lecture, nil
}

// GetLecture returns the lecture with its summary job status.
func (c *HTTPClient) GetLecture(ctx context.Context, lectureID string) (*models.Lecture, error) {
	var lecture models.Lecture
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/lectures/%s/", url.PathEscape(lectureID)), nil, &lecture); err != nil {
		return nil, err
	}
	if lecture.ID == "" {
		lecture.ID = lectureID
	}
	return &lecture, nil
}

// GetLectureSummary returns the summary body of a READY lecture.
func (c *HTTPClient) GetLectureSummary(ctx context.Context, lectureID string) (string, error) {
	var res models.LectureSummary
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/lectures/%s/summary/", url.PathEscape(lectureID)), nil, &res); err != nil {
		return "", err
	}
	return res.Summary, nil
}

func (c *HTTPClient) RenameLecture(ctx context.Context, lectureID, name string) (*models.Lecture, error) {
	lecture := models.Lecture{ID: lectureID, Name: name}
	path := fmt.Sprintf("/lectures/%s/", url.PathEscape(lectureID))
	raw, err := c.do(ctx, http.MethodPatch, path, jsonBody(map[string]string{"lecture_name": name}), "application/json")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := decodeInto(raw, &lecture); err != nil {
			return nil, err
		}
	}
	return &lecture, nil
}

func (c *HTTPClient) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	path := fmt.Sprintf("/courses/%s/lectures/%s/delete/", url.PathEscape(courseID), url.PathEscape(lectureID))
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
