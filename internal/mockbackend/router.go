package mockbackend

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/kiranshivaraju/lecturepilot/internal/mockbackend/middleware"
)

// NewRouter builds the Chi router with the middleware stack and all routes,
// mounted under /api.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	auth := mw.NewAuth(s.tokens)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health/", s.health)
		r.Post("/signup/", s.signup)
		r.Post("/login/", s.login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/me/", s.me)
			r.Put("/edit/", s.editAccount)
			r.Delete("/delete/", s.deleteAccount)

			r.Get("/courses/", s.listCourses)
			r.Post("/courses/create/", s.createCourse)
			r.Put("/courses/{courseID}/edit/", s.updateCourse)
			r.Delete("/courses/{courseID}/delete/", s.deleteCourse)
			r.Get("/courses/{courseID}/lectures/", s.courseLectures)
			r.Post("/courses/{courseID}/lectures/upload/", s.uploadLecture)
			r.Delete("/courses/{courseID}/lectures/{lectureID}/delete/", s.deleteLecture)

			r.Get("/lectures/{lectureID}/", s.getLecture)
			r.Patch("/lectures/{lectureID}/", s.renameLecture)
			r.Get("/lectures/{lectureID}/summary/", s.lectureSummary)
		})
	})

	return r
}
