// Package mockbackend is an in-memory fake of the course platform backend
// for local runs and integration tests. It serves the authentication and
// course/lecture endpoints and simulates asynchronous summary jobs.
package mockbackend

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/kiranshivaraju/lecturepilot/internal/mockbackend/middleware"
	"github.com/kiranshivaraju/lecturepilot/internal/mockbackend/response"
	"github.com/kiranshivaraju/lecturepilot/internal/validate"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const maxUploadMemory = 8 << 20

// Server holds the handlers' dependencies.
type Server struct {
	state  *State
	tokens *Tokens
	jobs   *Jobs
	cost   int
}

type ServerOption func(*Server)

// WithBcryptCost overrides the password hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) ServerOption {
	return func(s *Server) { s.cost = cost }
}

func NewServer(state *State, tokens *Tokens, jobs *Jobs, opts ...ServerOption) *Server {
	s := &Server{state: state, tokens: tokens, jobs: jobs, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Detail(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}

// validationFailed writes validate.Errors as a field map.
func validationFailed(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var errs validate.Errors
	if errors.As(err, &errs) {
		fields := make(map[string][]string, len(errs))
		for k, msg := range errs {
			fields[k] = []string{msg}
		}
		response.Fields(w, fields)
		return true
	}
	response.Detail(w, http.StatusBadRequest, err.Error())
	return true
}

func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := mw.GetUserID(r)
	if !ok {
		response.Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return id, ok
}

func notFound(w http.ResponseWriter) {
	response.Detail(w, http.StatusNotFound, "Not found.")
}

// --- auth ---

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in models.SignupInput
	if !decode(w, r, &in) || validationFailed(w, validate.Struct(in)) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		response.Detail(w, http.StatusInternalServerError, "Failed to hash password.")
		return
	}
	user, err := s.state.CreateUser(in, hash)
	if errors.Is(err, ErrUsernameTaken) {
		response.Field(w, "username", "A user with that username already exists.")
		return
	}
	response.Created(w, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decode(w, r, &in) || validationFailed(w, validate.Struct(in)) {
		return
	}

	user, hash, err := s.state.Credentials(in.Username)
	if err != nil || bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
		response.Detail(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	id, _ := user.ID.(int)
	token, err := s.tokens.Issue(id)
	if err != nil {
		response.Detail(w, http.StatusInternalServerError, "Failed to issue token.")
		return
	}
	response.JSON(w, models.LoginResult{Token: token, User: user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, _, err := s.state.User(id)
	if err != nil {
		response.Detail(w, http.StatusUnauthorized, "User not found.")
		return
	}
	response.JSON(w, user)
}

func (s *Server) editAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in models.AccountEdit
	if !decode(w, r, &in) || validationFailed(w, validate.Struct(in)) {
		return
	}

	var hash []byte
	if in.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			response.Detail(w, http.StatusInternalServerError, "Failed to hash password.")
			return
		}
		hash = h
	}

	user, err := s.state.UpdateUser(id, in, hash)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		response.Field(w, "username", "A user with that username already exists.")
	case err != nil:
		response.Detail(w, http.StatusUnauthorized, "User not found.")
	default:
		response.JSON(w, user)
	}
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Password == "" {
		response.Field(w, "password", "Password is required")
		return
	}

	_, hash, err := s.state.User(id)
	if err != nil {
		response.Detail(w, http.StatusUnauthorized, "User not found.")
		return
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
		response.Field(w, "password", "Incorrect password.")
		return
	}
	s.state.DeleteUser(id)
	response.NoContent(w)
}

// --- courses ---

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	response.JSON(w, s.state.ListCourses(id))
}

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in models.CourseInput
	if !decode(w, r, &in) || validationFailed(w, validate.Struct(in)) {
		return
	}
	response.Created(w, s.state.CreateCourse(id, in))
}

func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in models.CourseInput
	if !decode(w, r, &in) || validationFailed(w, validate.Struct(in)) {
		return
	}
	course, err := s.state.UpdateCourse(id, chi.URLParam(r, "courseID"), in)
	if err != nil {
		notFound(w)
		return
	}
	response.JSON(w, course)
}

func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := s.state.DeleteCourse(id, chi.URLParam(r, "courseID")); err != nil {
		notFound(w)
		return
	}
	response.NoContent(w)
}

// courseLectures answers with the course object, or with the bare lecture
// array when ?shape=array is set.
func (s *Server) courseLectures(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	course, err := s.state.Course(id, chi.URLParam(r, "courseID"))
	if err != nil {
		notFound(w)
		return
	}
	if r.URL.Query().Get("shape") == "array" {
		response.JSON(w, course.Lectures)
		return
	}
	response.JSON(w, course)
}

// --- lectures ---

func (s *Server) uploadLecture(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, validate.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Field(w, "file", "File size must be less than 50MB")
			return
		}
		response.Field(w, "file", "No file was submitted.")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		response.Field(w, "file", "No file was submitted.")
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("lecture_name"))
	filename := filepath.Base(hdr.Filename)
	if validationFailed(w, validate.Upload(name, filename, hdr.Size)) {
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		response.Detail(w, http.StatusBadRequest, "Failed to read file.")
		return
	}

	lecture, err := s.state.AddLecture(id, chi.URLParam(r, "courseID"), name, filename)
	if err != nil {
		notFound(w)
		return
	}
	s.jobs.Enqueue(lecture.ID, lecture.Name, content)
	response.Created(w, lecture)
}

func (s *Server) getLecture(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	lecture, err := s.state.Lecture(id, chi.URLParam(r, "lectureID"))
	if err != nil {
		notFound(w)
		return
	}
	response.JSON(w, lecture)
}

func (s *Server) lectureSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	lecture, err := s.state.Lecture(id, chi.URLParam(r, "lectureID"))
	if err != nil {
		notFound(w)
		return
	}
	if lecture.SummaryStatus != models.SummaryReady {
		response.Detail(w, http.StatusBadRequest, "Summary is not ready yet.")
		return
	}
	response.JSON(w, models.LectureSummary{Summary: lecture.SummaryText})
}

func (s *Server) renameLecture(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"lecture_name"`
	}
	if !decode(w, r, &in) || validationFailed(w, validate.LectureName(in.Name)) {
		return
	}
	lecture, err := s.state.RenameLecture(id, chi.URLParam(r, "lectureID"), strings.TrimSpace(in.Name))
	if err != nil {
		notFound(w)
		return
	}
	response.JSON(w, lecture)
}

func (s *Server) deleteLecture(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := s.state.DeleteLecture(id, chi.URLParam(r, "courseID"), chi.URLParam(r, "lectureID")); err != nil {
		notFound(w)
		return
	}
	response.NoContent(w)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, map[string]string{"status": "ok"})
}
