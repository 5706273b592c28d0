package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kiranshivaraju/lecturepilot/internal/courseapi"
	"github.com/kiranshivaraju/lecturepilot/internal/poller"
	"github.com/kiranshivaraju/lecturepilot/internal/render"
	"github.com/kiranshivaraju/lecturepilot/internal/validate"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// --- account ---

func cmdSignup(ctx context.Context, a *app, args []string) error {
	var in models.SignupInput
	fs := newFlags(a, "signup")
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Phone, "phone", "", "phone number, digits only")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.PasswordConfirm, "password-confirm", "", "password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	user, err := a.client.Signup(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created. Log in with \"lecturepilot login\".\n", user.Username)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	var in models.LoginInput
	fs := newFlags(a, "login")
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	res, err := a.client.Login(ctx, in)
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, res.Token, res.User); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", res.User.Username)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	if err := a.session.SetUser(ctx, *user); err != nil {
		slog.Warn("caching profile", "error", err)
	}
	printUser(a.out, *user)
	return nil
}

func cmdAccountEdit(ctx context.Context, a *app, args []string) error {
	var in models.AccountEdit
	if u := a.session.User(); u != nil {
		in.Username, in.Email, in.Phone = u.Username, u.Email, u.Phone
	}
	fs := newFlags(a, "account edit")
	fs.StringVar(&in.Username, "username", in.Username, "new username")
	fs.StringVar(&in.Email, "email", in.Email, "new email address")
	fs.StringVar(&in.Phone, "phone", in.Phone, "new phone number")
	fs.StringVar(&in.Password, "password", "", "new password")
	fs.StringVar(&in.PasswordConfirm, "password-confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	user, err := a.client.EditAccount(ctx, in)
	if err != nil {
		return err
	}
	if err := a.session.SetUser(ctx, *user); err != nil {
		slog.Warn("caching profile", "error", err)
	}
	fmt.Fprintln(a.out, "Account updated.")
	printUser(a.out, *user)
	return nil
}

func cmdAccountDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "account delete")
	password := fs.String("password", "", "current password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		return validate.Errors{"password": "Password is required"}
	}

	if err := a.client.DeleteAccount(ctx, *password); err != nil {
		return err
	}
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account deleted.")
	return nil
}

// --- courses ---

func cmdCoursesList(ctx context.Context, a *app, _ []string) error {
	courses, err := a.client.ListCourses(ctx)
	if err != nil {
		return err
	}
	printCourses(a.out, courses)
	return nil
}

func courseFlags(a *app, name string, args []string, needID bool) (string, models.CourseInput, error) {
	var (
		id string
		in models.CourseInput
	)
	fs := newFlags(a, name)
	if needID {
		fs.StringVar(&id, "id", "", "course id")
	}
	fs.StringVar(&in.Name, "name", "", "course name")
	fs.StringVar(&in.Teacher, "teacher", "", "teacher name")
	if err := fs.Parse(args); err != nil {
		return "", in, err
	}
	if needID {
		if err := validate.ID("course_id", id); err != nil {
			return "", in, err
		}
	}
	return id, in, validate.Struct(in)
}

func cmdCoursesCreate(ctx context.Context, a *app, args []string) error {
	_, in, err := courseFlags(a, "courses create", args, false)
	if err != nil {
		return err
	}
	course, err := a.client.CreateCourse(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, course.ID)
	return nil
}

func cmdCoursesEdit(ctx context.Context, a *app, args []string) error {
	id, in, err := courseFlags(a, "courses edit", args, true)
	if err != nil {
		return err
	}
	course, err := a.client.UpdateCourse(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Course %s updated: %s\n", course.ID, course.Name)
	return nil
}

// cmdCoursesDelete deletes a course and the cached summaries of its lectures.
// The cache removal is best effort.
func cmdCoursesDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "courses delete")
	id := fs.String("id", "", "course id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("course_id", *id); err != nil {
		return err
	}

	// The lecture ids are needed to drop cached summaries once the course is gone.
	course, err := a.client.GetCourse(ctx, *id)
	if err != nil {
		return err
	}
	if err := a.client.DeleteCourse(ctx, *id); err != nil {
		return err
	}
	for _, l := range course.Lectures {
		if err := a.cache.Delete(ctx, l.ID); err != nil {
			slog.Warn("removing cached summary", "lecture_id", l.ID, "course_id", *id, "error", err)
		}
	}
	fmt.Fprintf(a.out, "Course %s deleted.\n", *id)
	return nil
}

// cmdCourseShow prints a course. With -wait it keeps refreshing while any
// lecture summary is still pending.
func cmdCourseShow(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "course show")
	id := fs.String("id", "", "course id")
	wait := fs.Bool("wait", false, "poll until every summary is ready or failed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("course_id", *id); err != nil {
		return err
	}

	course, err := a.client.GetCourse(ctx, *id)
	if err != nil {
		return err
	}
	printCourse(a.out, *course)
	if !*wait || course.Settled() {
		return nil
	}

	fmt.Fprintln(a.errOut, "Waiting for summaries...")
	p := poller.NewCoursePoller(a.client, *id,
		poller.WithCourseInterval(a.cfg.Polling.CourseInterval),
		poller.WithMaxAttempts(a.cfg.Polling.CourseMaxAttempts),
		poller.OnUpdate(func(c models.Course) { printProgress(a.errOut, c) }),
	)
	p.SetCourse(*course)
	p.Start(ctx)
	defer p.Stop()

	select {
	case <-p.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	final, _ := p.Course()
	fmt.Fprintln(a.out)
	printCourse(a.out, final)
	if !final.Settled() {
		if err := p.Err(); err != nil {
			return fmt.Errorf("refreshing course: %w", err)
		}
		fmt.Fprintf(a.errOut, "Gave up after %d checks; some summaries are still pending.\n", p.Attempts()-1)
	}
	return nil
}

// --- lectures ---

func cmdLectureUpload(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "lecture upload")
	courseID := fs.String("course", "", "course id")
	name := fs.String("name", "", "lecture name (defaults to the file name)")
	path := fs.String("file", "", "lecture file (.pdf, .docx, .pptx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("course_id", *courseID); err != nil {
		return err
	}
	if *path == "" {
		return validate.Errors{"file": "Please select a file to upload"}
	}
	if *name == "" {
		*name = validate.DefaultLectureName(*path)
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open lecture file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat lecture file: %w", err)
	}
	if err := validate.Upload(*name, info.Name(), info.Size()); err != nil {
		return err
	}

	lecture, err := a.client.UploadLecture(ctx, *courseID, courseapi.LectureUpload{
		Name:     *name,
		Filename: filepath.Base(*path),
		Content:  f,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, lecture.ID)
	return nil
}

func cmdLectureRename(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "lecture rename")
	id := fs.String("id", "", "lecture id")
	name := fs.String("name", "", "new lecture name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("lecture_id", *id); err != nil {
		return err
	}
	if err := validate.LectureName(*name); err != nil {
		return err
	}

	lecture, err := a.client.RenameLecture(ctx, *id, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Lecture %s renamed to %s.\n", lecture.ID, lecture.Name)
	return nil
}

// cmdLectureDelete deletes a lecture and drops its cached summary. The cache
// removal is best effort.
func cmdLectureDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "lecture delete")
	courseID := fs.String("course", "", "course id")
	id := fs.String("id", "", "lecture id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("course_id", *courseID); err != nil {
		return err
	}
	if err := validate.ID("lecture_id", *id); err != nil {
		return err
	}

	if err := a.client.DeleteLecture(ctx, *courseID, *id); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, *id); err != nil {
		slog.Warn("removing cached summary", "lecture_id", *id, "error", err)
	}
	fmt.Fprintf(a.out, "Lecture %s deleted.\n", *id)
	return nil
}

// --- summaries ---

// cmdSummaryGet waits for a lecture's summary, caches it and prints it.
func cmdSummaryGet(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "summary get")
	id := fs.String("id", "", "lecture id")
	format := fs.String("format", "text", "output format: text or markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.ID("lecture_id", *id); err != nil {
		return err
	}
	if *format != "text" && *format != "markdown" {
		return validate.Errors{"format": "Format must be text or markdown"}
	}

	view := poller.NewSummaryView(poller.NewLecturePoller(a.client, a.cache, a.cfg.Polling.LectureInterval), a.cache)
	defer view.Close()

	var last models.SummaryStatus
	w, _, err := view.Show(ctx, *id, func(l models.Lecture) {
		if s := l.EffectiveStatus(); s != last {
			last = s
			fmt.Fprintf(a.errOut, "%s: %s\n", l.Name, s)
		}
	})
	if err != nil {
		return err
	}

	rec, err := w.Wait(ctx)
	switch {
	case errors.Is(err, poller.ErrSummaryFailed):
		return fmt.Errorf("summary generation failed; upload the lecture again to retry")
	case err != nil:
		return err
	}

	if *format == "markdown" {
		fmt.Fprint(a.out, rec.Summary)
		return nil
	}
	return render.Text(a.out, []models.CachedSummary{*rec})
}

// cmdSummariesList shows the cached summaries without contacting the backend.
func cmdSummariesList(ctx context.Context, a *app, _ []string) error {
	records, err := a.cache.All(ctx)
	if err != nil {
		return err
	}
	printSummaries(a.out, records)
	return nil
}

func cmdSummariesDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "summaries delete")
	id := fs.String("id", "", "lecture id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return validate.Errors{"lecture_id": "Lecture id is required"}
	}
	if err := a.cache.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Summary for lecture %s removed.\n", *id)
	return nil
}

func cmdSummariesExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags(a, "summaries export")
	format := fs.String("format", "html", "export format: html or text")
	output := fs.String("o", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "html" && *format != "text" {
		return validate.Errors{"format": "Format must be html or text"}
	}

	records, err := a.cache.All(ctx)
	if err != nil {
		return err
	}

	w := a.out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if *format == "html" {
		err = render.HTML(w, "Lecture summaries", records)
	} else {
		err = render.Text(w, records)
	}
	if err != nil {
		return fmt.Errorf("export summaries: %w", err)
	}
	if *output != "" {
		fmt.Fprintf(a.errOut, "Exported %d summaries to %s.\n", len(records), *output)
	}
	return nil
}
