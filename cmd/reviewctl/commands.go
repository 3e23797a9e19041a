package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"code-review-client/models"
	"code-review-client/services"
	"code-review-client/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"sign in and store the session", runLogin},
	"register":      {"create an account", runRegister},
	"logout":        {"forget the stored session", runLogout},
	"whoami":        {"show the signed-in user", runWhoami},
	"list":          {"list submissions", runList},
	"show":          {"show a submission with its reviews", runShow},
	"create":        {"submit code for review", runCreate},
	"edit":          {"replace a pending submission", runEdit},
	"delete":        {"delete a pending submission", runDelete},
	"review":        {"review a submission (mentors)", runReview},
	"notifications": {"list notifications", runNotifications},
	"watch":         {"poll notifications until interrupted", runWatch},
	"analytics":     {"show the dashboard for your role", runAnalytics},
	"tags":          {"list known tags", runTags},
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet("reviewctl "+name, flag.ContinueOnError)
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("REVIEW_PASSWORD"), "password (or REVIEW_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}

	sess, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s (%s)\n", sess.Identity.Name, sess.Identity.Role)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	var req models.RegisterRequest
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", os.Getenv("REVIEW_PASSWORD"), "password, at least 8 characters")
	role := fs.String("role", string(models.RoleStudent), "student, mentor or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.Role = models.Role(*role)

	identity, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	a.printf("Registered %s <%s> as %s. Run `reviewctl login` to sign in.\n", identity.Name, identity.Email, identity.Role)
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	if err := a.auth.Logout(); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	fs := newFlags("whoami")
	remote := fs.Bool("remote", false, "ask the server instead of the stored session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	identity, ok := a.sessions.Identity()
	if !ok {
		return services.ErrNotSignedIn
	}
	if *remote {
		var err error
		if identity, err = a.auth.Me(ctx); err != nil {
			return err
		}
	}
	a.printf("%s <%s> (%s, id %d)\n", identity.Name, identity.Email, identity.Role, identity.ID)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := newFlags("list")
	var filter models.SubmissionFilter
	fs.IntVar(&filter.Skip, "skip", 0, "entries to skip")
	fs.IntVar(&filter.Limit, "limit", 10, "entries per page (1-100)")
	status := fs.String("status", "", "pending or reviewed")
	fs.StringVar(&filter.Language, "language", "", "only this language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter.Status = models.SubmissionStatus(*status)

	page, err := a.submissions.List(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLANGUAGE\tSTATUS\tREVIEWS\tAUTHOR\tCREATED")
	for _, s := range page.Submissions {
		author := ""
		if s.User != nil {
			author = s.User.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Title, s.Language, s.Status, s.ReviewCount, author, formatTime(s.CreatedAt))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("page %d of %d, showing %d of %d\n", page.Page, page.Pages, page.Showing, page.Total)
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlags("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := submissionID(fs)
	if err != nil {
		return err
	}

	sub, err := a.submissions.Get(ctx, id)
	if err != nil {
		return err
	}

	a.printf("#%d %s [%s]\n", sub.ID, sub.Title, sub.Status)
	if sub.User != nil {
		a.printf("by %s, %s\n", sub.User.Name, formatTime(sub.CreatedAt))
	}
	if sub.Language != "" {
		a.printf("language: %s\n", sub.Language)
	}
	if len(sub.Tags) > 0 {
		a.printf("tags: %s\n", strings.Join(sub.Tags, ", "))
	}
	a.printf("\n%s\n\n", sub.Description)
	for i, line := range strings.Split(sub.CodeContent, "\n") {
		a.printf("%4d | %s\n", i+1, line)
	}
	for _, r := range sub.Reviews {
		reviewer := "unknown"
		if r.Reviewer != nil {
			reviewer = r.Reviewer.Name
		}
		a.printf("\nreview by %s: %d/%d\n  %s\n", reviewer, r.Rating, models.MaxRating, r.OverallComment)
		for _, an := range r.Annotations {
			if an.LineNumber > 0 {
				a.printf("  line %d: %s\n", an.LineNumber, an.CommentText)
			} else {
				a.printf("  general: %s\n", an.CommentText)
			}
		}
	}
	return nil
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("create")
	var draft models.SubmissionDraft
	fs.StringVar(&draft.Title, "title", "", "title (max 200 characters)")
	fs.StringVar(&draft.Description, "description", "", "description (max 2000 characters)")
	fs.StringVar(&draft.Language, "language", "", "programming language")
	file := fs.String("file", "-", "code file, - for stdin")
	tags := fs.String("tags", "", "comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	code, err := readCode(a, *file)
	if err != nil {
		return err
	}
	draft.CodeContent = code
	draft.Tags = utils.SplitTags(*tags)

	sub, err := a.submissions.Create(ctx, draft)
	if err != nil {
		return err
	}
	a.printf("Created submission #%d (%s)\n", sub.ID, sub.Status)
	return nil
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit")
	var patch models.SubmissionPatch
	fs.StringVar(&patch.Title, "title", "", "new title")
	fs.StringVar(&patch.Description, "description", "", "new description")
	file := fs.String("file", "-", "new code file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := submissionID(fs)
	if err != nil {
		return err
	}
	if patch.CodeContent, err = readCode(a, *file); err != nil {
		return err
	}

	sub, err := a.submissions.Edit(ctx, id, patch)
	if err != nil {
		return err
	}
	a.printf("Updated submission #%d\n", sub.ID)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := submissionID(fs)
	if err != nil {
		return err
	}
	if !*yes {
		answer := a.prompt(fmt.Sprintf("Delete submission #%d permanently? [y/N] ", id))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			a.printf("Cancelled\n")
			return nil
		}
	}

	if err := a.submissions.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted submission #%d\n", id)
	return nil
}

// annotationFlags collects repeated -annotation "line:text" values.
type annotationFlags []models.AnnotationDraft

func (f *annotationFlags) String() string { return fmt.Sprint(len(*f)) }

func (f *annotationFlags) Set(v string) error {
	line, text, found := strings.Cut(v, ":")
	if !found {
		line, text = "", v
	}
	*f = append(*f, models.AnnotationDraft{LineNumber: line, CommentText: text})
	return nil
}

func runReview(ctx context.Context, a *app, args []string) error {
	fs := newFlags("review")
	comment := fs.String("comment", "", "overall comment")
	rating := fs.Int("rating", 0, "rating from 1 to 10")
	var annotations annotationFlags
	fs.Var(&annotations, "annotation", `"line:comment" or ":comment" for a general note; repeatable`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := submissionID(fs)
	if err != nil {
		return err
	}
	if identity, ok := a.sessions.Identity(); ok {
		if err := services.CanReview(identity); err != nil {
			return err
		}
	}

	review, err := a.reviews.SubmitReview(ctx, id, *comment, *rating, annotations)
	if err != nil {
		return err
	}
	a.printf("Posted review #%d on submission #%d\n", review.ID, id)
	return nil
}

func runNotifications(ctx context.Context, a *app, args []string) error {
	fs := newFlags("notifications")
	ack := fs.Bool("ack", true, "mark the listed notifications as read")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items := a.notifications.Refresh(ctx)
	if len(items) == 0 {
		a.printf("No notifications\n")
		return nil
	}
	for _, n := range items {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		a.printf("%s %s  %s\n", marker, formatTime(n.CreatedAt), n.Message)
	}
	if *ack {
		return a.notifications.AcknowledgeVisible(ctx)
	}
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("watch")
	every := fs.Duration("every", 30*time.Second, "poll interval")
	metricsAddr := fs.String("metrics-addr", "", "serve client metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *every <= 0 {
		return errors.New("-every must be positive")
	}

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.WithError(err).Warn("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	poller := services.NewNotificationPoller(a.notifications, func(unread int) {
		a.printf("%s  %d unread notification(s)\n", time.Now().Format(time.Kitchen), unread)
	}, a.log)
	if err := poller.Start(ctx, "@every "+every.String()); err != nil {
		return err
	}
	defer poller.Stop()

	<-ctx.Done()
	return nil
}

func runAnalytics(ctx context.Context, a *app, _ []string) error {
	identity, ok := a.sessions.Identity()
	if !ok {
		return services.ErrNotSignedIn
	}
	dash, err := a.analytics.ForIdentity(ctx, identity)
	if err != nil {
		return err
	}

	switch d := dash.(type) {
	case *models.StudentAnalytics:
		s := d.Summary
		a.printf("submissions: %d\nreviews received: %d\naverage rating: %.2f\naverage review time: %.1f days\n",
			s.TotalSubmissions, s.TotalReviewsReceived, s.AvgRating, s.AvgReviewTimeDays)
		for _, l := range d.LanguageBreakdown {
			a.printf("  %s: %d\n", l.Name, l.Count)
		}
	case *models.MentorAnalytics:
		s := d.Summary
		a.printf("reviews given: %d (%d this month)\nstudents helped: %d (%d this month)\naverage rating given: %.2f\naverage response time: %.1f days\n",
			s.TotalReviewsGiven, s.ReviewsThisMonth, s.StudentsHelped, s.StudentsHelpedThisMonth,
			s.AvgRatingGiven, s.AvgResponseTimeDays)
	case *models.AdminAnalytics:
		a.printf("submissions: %d\nreviews: %d\n", d.Summary.TotalSubmissions, d.Summary.TotalReviews)
		for _, rc := range d.UsersByRole {
			a.printf("  %s: %d\n", rc.Role, rc.Count)
		}
		r := services.ComputeAdminRatios(d)
		a.printf("reviews per submission: %s\n", formatRatio(r.ReviewCoverage))
		a.printf("submissions per student: %s\n", formatRatio(r.SubmissionsPerStudent))
		a.printf("reviews per mentor: %s\n", formatRatio(r.ReviewsPerMentor))
		a.printf("students per mentor: %s\n", formatRatio(r.StudentsPerMentor))
	}
	return nil
}

func runTags(ctx context.Context, a *app, _ []string) error {
	tags, err := a.tags.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		a.printf("%s\n", t.Name)
	}
	return nil
}

func submissionID(fs *flag.FlagSet) (int, error) {
	if fs.NArg() != 1 {
		return 0, errors.New("expected exactly one submission id")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid submission id %q", fs.Arg(0))
	}
	return id, nil
}

func readCode(a *app, file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(a.in)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}

func (a *app) prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
