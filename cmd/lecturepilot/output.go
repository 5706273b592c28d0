package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "Username: %s\nEmail:    %s\n", u.Username, u.Email)
	if u.Phone != "" {
		fmt.Fprintf(w, "Phone:    %s\n", u.Phone)
	}
}

func printCourses(w io.Writer, courses []models.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(w, "No courses yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTEACHER\tLECTURES")
	for _, c := range courses {
		count := "-"
		if c.LectureCount != nil {
			count = fmt.Sprint(*c.LectureCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, orDash(c.Teacher), count)
	}
	tw.Flush()
}

func printCourse(w io.Writer, c models.Course) {
	fmt.Fprintf(w, "%s (%s)\n", c.Name, c.ID)
	if c.Teacher != "" {
		fmt.Fprintf(w, "Teacher: %s\n", c.Teacher)
	}
	if len(c.Lectures) == 0 {
		fmt.Fprintln(w, "No lectures yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLECTURE\tSUMMARY\tFILE")
	for _, l := range c.Lectures {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ID, l.Name, l.EffectiveStatus(), orDash(l.Link()))
	}
	tw.Flush()
}

// printProgress writes a one-line status tally.
func printProgress(w io.Writer, c models.Course) {
	counts := map[models.SummaryStatus]int{}
	for _, l := range c.Lectures {
		counts[l.EffectiveStatus()]++
	}
	var parts []string
	for _, s := range []models.SummaryStatus{models.SummaryPending, models.SummaryProcessing, models.SummaryReady, models.SummaryFailed} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], strings.ToLower(string(s))))
		}
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func printSummaries(w io.Writer, records []models.CachedSummary) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No summaries yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LECTURE ID\tLECTURE\tCOURSE\tSAVED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.LectureID, orDash(r.LectureName), orDash(r.CourseName),
			r.CreatedAt.In(time.Local).Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
