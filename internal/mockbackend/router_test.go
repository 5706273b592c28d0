package mockbackend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/lecturepilot/internal/cache"
	"github.com/kiranshivaraju/lecturepilot/internal/courseapi"
	"github.com/kiranshivaraju/lecturepilot/internal/mockbackend"
	"github.com/kiranshivaraju/lecturepilot/internal/poller"
	"github.com/kiranshivaraju/lecturepilot/internal/session"
	"github.com/kiranshivaraju/lecturepilot/internal/store"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const pollInterval = 5 * time.Millisecond

type harness struct {
	url     string
	sess    *session.Session
	client  *courseapi.HTTPClient
	cache   *cache.SummaryCache
	expired int
}

func newHarness(t *testing.T, wrap func(http.Handler) http.Handler) *harness {
	t.Helper()

	state := mockbackend.NewState()
	jobs := mockbackend.NewJobs(state, mockbackend.ExtractiveSummarizer{}, 2, 25*time.Millisecond)
	t.Cleanup(jobs.Close)

	srv := mockbackend.NewServer(state, mockbackend.NewTokens("integration-secret-123", time.Hour), jobs,
		mockbackend.WithBcryptCost(bcrypt.MinCost))
	handler := mockbackend.NewRouter(srv)
	if wrap != nil {
		handler = wrap(handler)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	st := store.NewMemoryStore()
	h := &harness{url: ts.URL + "/api", sess: session.New(st), cache: cache.NewSummaryCache(st)}
	require.NoError(t, h.sess.Load(context.Background()))
	h.client = courseapi.NewHTTPClient(h.url, 5*time.Second, h.sess,
		courseapi.WithUnauthorizedHandler(func() { h.expired++ }))
	return h
}

func (h *harness) signupAndLogin(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.client.Signup(ctx, models.SignupInput{
		Username: username, Email: username + "@example.com",
		Password: "secret1", PasswordConfirm: "secret1",
	})
	require.NoError(t, err)

	res, err := h.client.Login(ctx, models.LoginInput{Username: username, Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, h.sess.Login(ctx, res.Token, res.User))
}

func (h *harness) upload(t *testing.T, courseID, name, content string) *models.Lecture {
	t.Helper()
	lec, err := h.client.UploadLecture(context.Background(), courseID, courseapi.LectureUpload{
		Name: name, Filename: "notes.pdf", Content: strings.NewReader(content),
	})
	require.NoError(t, err)
	return lec
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := http.Get(h.url + "/health/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.client.Me(ctx)
	require.ErrorIs(t, err, courseapi.ErrUnauthorized)

	h.signupAndLogin(t, "ana")
	assert.True(t, h.sess.Authenticated())

	me, err := h.client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)

	edited, err := h.client.EditAccount(ctx, models.AccountEdit{Username: "ana", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", edited.Email)

	_, err = h.client.Login(ctx, models.LoginInput{Username: "ana", Password: "wrong-pass"})
	require.ErrorIs(t, err, courseapi.ErrUnauthorized)
	assert.True(t, h.sess.Authenticated(), "failed login must not clear the session")
}

func TestSignup_FieldErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")

	_, err := h.client.Signup(context.Background(), models.SignupInput{
		Username: "ana", Email: "ana@example.com", Password: "secret1", PasswordConfirm: "secret1",
	})
	require.ErrorIs(t, err, courseapi.ErrValidation)
	fields, ok := courseapi.FieldErrorsOf(err)
	require.True(t, ok)
	assert.Contains(t, fields["username"][0], "already exists")

	_, err = h.client.Signup(context.Background(), models.SignupInput{Username: "bob", Email: "bad", Password: "1"})
	fields, ok = courseapi.FieldErrorsOf(err)
	require.True(t, ok)
	assert.Equal(t, []string{"email", "password", "password_confirm"}, fields.Fields())
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	err := h.client.DeleteAccount(ctx, "wrong-pass")
	require.ErrorIs(t, err, courseapi.ErrValidation)

	require.NoError(t, h.client.DeleteAccount(ctx, "secret1"))

	_, err = h.client.Me(ctx)
	require.ErrorIs(t, err, courseapi.ErrUnauthorized)
	assert.False(t, h.sess.Authenticated())
	assert.Equal(t, 1, h.expired)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.sess.Login(ctx, "forged-token", models.User{Username: "mallory"}))

	_, err := h.client.ListCourses(ctx)
	require.ErrorIs(t, err, courseapi.ErrUnauthorized)
	assert.Equal(t, session.StateAnonymous, h.sess.State())
	assert.Empty(t, h.sess.Token())
	assert.Equal(t, 1, h.expired)
}

func TestCourseCRUD(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	_, err := h.client.CreateCourse(ctx, models.CourseInput{})
	require.ErrorIs(t, err, courseapi.ErrValidation)

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Algebra", Teacher: "Noether"})
	require.NoError(t, err)

	updated, err := h.client.UpdateCourse(ctx, course.ID, models.CourseInput{Name: "Algebra I"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", updated.Name)

	list, err := h.client.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, h.client.DeleteCourse(ctx, course.ID))
	_, err = h.client.GetCourse(ctx, course.ID)
	require.ErrorIs(t, err, courseapi.ErrNotFound)
}

func TestLectureSummaryFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Algebra"})
	require.NoError(t, err)
	lec := h.upload(t, course.ID, "Groups", "Groups and rings\nA group has an identity\n")
	assert.Equal(t, models.SummaryPending, lec.SummaryStatus)

	_, err = h.client.GetLectureSummary(ctx, lec.ID)
	require.ErrorIs(t, err, courseapi.ErrValidation, "summary is not served before READY")

	lp := poller.NewLecturePoller(h.client, h.cache, pollInterval)
	w, err := lp.Watch(ctx, lec.ID, nil)
	require.NoError(t, err)

	rec, err := w.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Groups", rec.LectureName)
	assert.Equal(t, "Algebra", rec.CourseName)
	assert.Contains(t, rec.Summary, "- Groups and rings")

	all, err := h.cache.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, lec.ID, all[0].LectureID)

	renamed, err := h.client.RenameLecture(ctx, lec.ID, "Group theory")
	require.NoError(t, err)
	assert.Equal(t, "Group theory", renamed.Name)

	require.NoError(t, h.client.DeleteLecture(ctx, course.ID, lec.ID))
	_, err = h.client.GetLecture(ctx, lec.ID)
	require.ErrorIs(t, err, courseapi.ErrNotFound)
}

func TestLectureSummaryFailed(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Algebra"})
	require.NoError(t, err)
	lec := h.upload(t, course.ID, "please fail", "text text\n")

	w, err := poller.NewLecturePoller(h.client, h.cache, pollInterval).Watch(ctx, lec.ID, nil)
	require.NoError(t, err)
	_, err = w.Wait(ctx)
	require.ErrorIs(t, err, poller.ErrSummaryFailed)

	all, err := h.cache.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUploadValidation(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Algebra"})
	require.NoError(t, err)

	_, err = h.client.UploadLecture(ctx, course.ID, courseapi.LectureUpload{
		Name: "Week 1", Filename: "notes.txt", Content: strings.NewReader("x"),
	})
	require.ErrorIs(t, err, courseapi.ErrValidation)
	fields, ok := courseapi.FieldErrorsOf(err)
	require.True(t, ok)
	assert.Contains(t, fields, "file")
}

func TestCoursePollerSettles(t *testing.T) {
	h := newHarness(t, nil)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Algebra"})
	require.NoError(t, err)
	h.upload(t, course.ID, "Intro", "Introduction to groups\n")
	h.upload(t, course.ID, "fail me", "x\n")

	initial, err := h.client.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.True(t, initial.HasPendingSummaries())

	cp := poller.NewCoursePoller(h.client, course.ID, poller.WithCourseInterval(pollInterval))
	cp.SetCourse(*initial)
	require.True(t, cp.Start(ctx))

	select {
	case <-cp.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("course poll did not settle")
	}

	final, ok := cp.Course()
	require.True(t, ok)
	assert.True(t, final.Settled())
	require.Len(t, final.Lectures, 2)
	assert.Equal(t, models.SummaryReady, final.Lectures[0].EffectiveStatus())
	assert.Equal(t, models.SummaryFailed, final.Lectures[1].EffectiveStatus())
	assert.NoError(t, cp.Err())
}

func TestCourseArrayShape(t *testing.T) {
	forceArray := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/lectures/") && strings.Contains(r.URL.Path, "/courses/") {
				q := r.URL.Query()
				q.Set("shape", "array")
				r.URL.RawQuery = q.Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
	h := newHarness(t, forceArray)
	h.signupAndLogin(t, "ana")
	ctx := context.Background()

	course, err := h.client.CreateCourse(ctx, models.CourseInput{Name: "Physics"})
	require.NoError(t, err)
	h.upload(t, course.ID, "Motion", "Newton laws of motion\n")

	got, err := h.client.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics", got.Name)
	require.Len(t, got.Lectures, 1)
	assert.Equal(t, "Motion", got.Lectures[0].Name)
}
