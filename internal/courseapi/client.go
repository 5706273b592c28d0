// Package courseapi is the HTTP client for the authentication and
// course/lecture services. Every request passes through the session guard:
// bearer credentials are attached, failures are classified into sentinel
// errors, and a 401 clears the session.
package courseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const (
	// skipWarningHeader suppresses the interstitial page of the tunnelling
	// proxy in front of the backend.
	skipWarningHeader = "ngrok-skip-browser-warning"

	maxErrorBody = 1 << 20
)

// Client is the interface for the backend services.
type Client interface {
	Signup(ctx context.Context, in models.SignupInput) (*models.User, error)
	Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error)
	Me(ctx context.Context) (*models.User, error)
	EditAccount(ctx context.Context, in models.AccountEdit) (*models.User, error)
	DeleteAccount(ctx context.Context, password string) error

	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	CreateCourse(ctx context.Context, in models.CourseInput) (*models.Course, error)
	UpdateCourse(ctx context.Context, courseID string, in models.CourseInput) (*models.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error

	UploadLecture(ctx context.Context, courseID string, in LectureUpload) (*models.Lecture, error)
	GetLecture(ctx context.Context, lectureID string) (*models.Lecture, error)
	GetLectureSummary(ctx context.Context, lectureID string) (string, error)
	RenameLecture(ctx context.Context, lectureID, name string) (*models.Lecture, error)
	DeleteLecture(ctx context.Context, courseID, lectureID string) error
}

// Credentials is the session state the guard reads and clears.
type Credentials interface {
	Token() string
	Clear(ctx context.Context) error
}

// HTTPClient implements Client using the backend's JSON API.
type HTTPClient struct {
	baseURL        string
	client         *http.Client
	creds          Credentials
	onUnauthorized func()
}

type Option func(*HTTPClient)

// WithUnauthorizedHandler registers fn to run after a 401 has cleared the
// session. The CLI uses it to send the user back to login.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a backend client. creds may be nil for
// unauthenticated use.
func NewHTTPClient(baseURL string, timeout time.Duration, creds Credentials, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		creds: creds,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// doJSON sends in (if non-nil) as a JSON body and decodes the response into out.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	raw, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: empty body from %s %s", ErrMalformedResponse, method, path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

// do performs one request and returns the raw 2xx body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.setHeaders(req, path)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, errBody)
		if resp.StatusCode == http.StatusUnauthorized && !isLoginPath(path) {
			c.handleUnauthorized(ctx, method, path)
		}
		return nil, apiErr
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil, fmt.Errorf("%w: HTML page received from %s %s (gateway interstitial?)", ErrMalformedResponse, method, path)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)
	}
	return raw, nil
}

func (c *HTTPClient) setHeaders(req *http.Request, path string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(skipWarningHeader, "true")
	if c.creds == nil || isPublicPath(path) {
		return
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// handleUnauthorized clears the session unconditionally. It runs even when
// the failing call was a background poll, so it must not depend on ctx
// still being live.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, method, path string) {
	slog.Warn("authorization denied, clearing session", "method", method, "path", path)
	if c.creds != nil {
		if err := c.creds.Clear(context.WithoutCancel(ctx)); err != nil {
			slog.Error("clearing session after 401", "error", err)
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func isLoginPath(path string) bool {
	return strings.Contains(path, "/login/")
}

func isPublicPath(path string) bool {
	return isLoginPath(path) || strings.Contains(path, "/signup/")
}

// classifyError maps transport-level errors to sentinel errors. Caller
// cancellation is passed through so pollers can tell teardown from failure.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout: %w", ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: timeout: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
