// Package main is the lecturepilot command-line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/kiranshivaraju/lecturepilot/internal/cache"
	"github.com/kiranshivaraju/lecturepilot/internal/config"
	"github.com/kiranshivaraju/lecturepilot/internal/courseapi"
	"github.com/kiranshivaraju/lecturepilot/internal/session"
	"github.com/kiranshivaraju/lecturepilot/internal/store"
)

const expiredMessage = `session expired or unauthorized; run "lecturepilot login"`

var errNotLoggedIn = errors.New(`not logged in; run "lecturepilot login"`)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

// app carries the wired dependencies of a single invocation.
type app struct {
	cfg     *config.Config
	session *session.Session
	client  *courseapi.HTTPClient
	cache   *cache.SummaryCache
	out     io.Writer
	errOut  io.Writer
}

type command struct {
	usage   string
	run     func(ctx context.Context, a *app, args []string) error
	private bool
}

var commands = map[string]command{
	"signup":           {usage: "-username U -email E [-phone P] -password X -password-confirm X", run: cmdSignup},
	"login":            {usage: "-username U -password X", run: cmdLogin},
	"logout":           {run: cmdLogout},
	"me":               {run: cmdMe, private: true},
	"account edit":     {usage: "-username U -email E [-phone P] [-password X -password-confirm X]", run: cmdAccountEdit, private: true},
	"account delete":   {usage: "-password X", run: cmdAccountDelete, private: true},
	"courses list":     {run: cmdCoursesList, private: true},
	"courses create":   {usage: "-name N [-teacher T]", run: cmdCoursesCreate, private: true},
	"courses edit":     {usage: "-id C -name N [-teacher T]", run: cmdCoursesEdit, private: true},
	"courses delete":   {usage: "-id C", run: cmdCoursesDelete, private: true},
	"course show":      {usage: "-id C [-wait]", run: cmdCourseShow, private: true},
	"lecture upload":   {usage: "-course C [-name N] -file PATH", run: cmdLectureUpload, private: true},
	"lecture rename":   {usage: "-id L -name N", run: cmdLectureRename, private: true},
	"lecture delete":   {usage: "-course C -id L", run: cmdLectureDelete, private: true},
	"summary get":      {usage: "-id L [-format text|markdown]", run: cmdSummaryGet, private: true},
	"summaries list":   {run: cmdSummariesList},
	"summaries delete": {usage: "-id L", run: cmdSummariesDelete},
	"summaries export": {usage: "[-format html|text] [-o PATH]", run: cmdSummariesExport},
}

// groups are the first words of two-word commands.
var groups = map[string]bool{"account": true, "courses": true, "course": true, "lecture": true, "summary": true, "summaries": true}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	name, rest, ok := resolve(args)
	if !ok {
		usage(stderr)
		return flag.ErrHelp
	}
	cmd := commands[name]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.InitLogger(cfg.Log, stderr)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	sess := session.New(st)
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	slog.Debug("session loaded", "state", sess.State(), "store", cfg.Store.Backend)

	a := &app{
		cfg:     cfg,
		session: sess,
		cache:   cache.NewSummaryCache(st),
		out:     stdout,
		errOut:  stderr,
	}
	a.client = courseapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.Timeout, sess,
		courseapi.WithUnauthorizedHandler(func() { fmt.Fprintln(stderr, expiredMessage) }))

	if cmd.private && !sess.Authenticated() {
		return errNotLoggedIn
	}
	return cmd.run(ctx, a, rest)
}

// resolve finds the command named by the leading words of args.
func resolve(args []string) (string, []string, bool) {
	if len(args) == 0 {
		return "", nil, false
	}
	if groups[args[0]] {
		if len(args) < 2 {
			return "", nil, false
		}
		name := args[0] + " " + args[1]
		_, ok := commands[name]
		return name, args[2:], ok
	}
	_, ok := commands[args[0]]
	return args[0], args[1:], ok
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: lecturepilot <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s %s\n", name, commands[name].usage)
	}
}

// newFlags builds the flag set for a command. Flag errors are returned
// rather than exiting the process.
func newFlags(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("lecturepilot "+name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// describe formats err for the terminal, listing field errors one per line.
func describe(err error) string {
	if fields, ok := courseapi.FieldErrorsOf(err); ok {
		var b strings.Builder
		b.WriteString("the server rejected the input")
		for _, name := range fields.Fields() {
			fmt.Fprintf(&b, "\n  %s: %s", name, strings.Join(fields[name], " "))
		}
		return b.String()
	}
	return err.Error()
}
