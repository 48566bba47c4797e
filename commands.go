package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/credstore"
	"github.com/aktagon/articles-client/internal/output"
	"github.com/aktagon/articles-client/internal/session"
)

// topics accepted by the articles service
var topics = []string{"JavaScript", "React", "Node"}

const deleteConcurrency = 4

var errSessionLost = errors.New("session lost")

func usageError(err error) error {
	return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
}

// withUsage makes argument validation failures exit with the usage code
func withUsage(args cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := args(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, usageError(fmt.Errorf("invalid article id %q", s))
	}
	return id, nil
}

func checkTopic(topic string) error {
	if topic == "" || slices.Contains(topics, topic) {
		return nil
	}
	return usageError(fmt.Errorf("unknown topic %q (must be one of %s)", topic, strings.Join(topics, ", ")))
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with a username and password. The password is taken from --password,
then ARTICLES_PASSWORD, and is otherwise prompted for.`,
		Args: withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return usageError(errors.New("--username is required"))
			}
			pw := password
			if pw == "" {
				pw = os.Getenv("ARTICLES_PASSWORD")
			}
			if pw == "" {
				var err error
				if pw, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			app.run(func() {
				app.ctrl.Login(ctx, api.Credentials{Username: username, Password: pw})
			})
			return app.report()
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

// readPassword prompts without echo on a terminal and reads one line otherwise
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.ctrl.Logout(cmd.Context())
			return app.report()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			printer.Info("Server:      %s", app.client.BaseURL())
			printer.Info("Credentials: %s", settings.Credentials.Backend)

			token, ok, err := app.store.Get(cmd.Context(), credstore.TokenKey)
			if err != nil {
				return fmt.Errorf("reading token: %w", err)
			}
			if !ok || token == "" {
				return &output.CLIError{
					Summary:    "not logged in",
					Suggestion: "run 'articles login'",
					ExitCode:   output.ExitUnauthorized,
				}
			}

			describeToken(printer, token, time.Now())
			return nil
		},
	}
}

// describeToken prints what the token says about itself. The signature is
// not checked; only the server can do that.
func describeToken(p *output.Printer, token string, now time.Time) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		p.Success("Logged in (opaque token)")
		return
	}

	if claims.Subject != "" {
		p.Success("Logged in as %s", p.Bold(claims.Subject))
	} else {
		p.Success("Logged in")
	}
	if claims.ExpiresAt == nil {
		return
	}
	exp := claims.ExpiresAt.Time
	if exp.Before(now) {
		p.Warning("Token expired at %s", exp.Format(time.RFC3339))
		return
	}
	p.Info("Expires:     %s (in %s)", exp.Format(time.RFC3339), exp.Sub(now).Round(time.Second))
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your articles",
		Args:    withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "table", "json", "yaml":
			default:
				return usageError(fmt.Errorf("invalid output format %q (must be table, json, or yaml)", format))
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return err
			}
			if err := app.fetch(ctx); err != nil {
				return err
			}

			st := app.ctrl.State()
			return writeArticles(printer.Out(), format, st.Articles)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table, json, yaml")
	return cmd
}

func writeArticles(w io.Writer, format string, articles []api.Article) error {
	if articles == nil {
		articles = []api.Article{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(articles); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(articles) == 0 {
			fmt.Fprintln(w, "No articles yet.")
			return nil
		}
		return output.ArticleTable(w, articles, nil)
	}
}

func newShowCmd() *cobra.Command {
	var asMarkdown bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one article",
		Args:  withUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return err
			}
			article, err := app.selectArticle(ctx, id)
			if err != nil {
				return err
			}
			return printArticle(printer, *article, asMarkdown)
		},
	}

	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "render the text as Markdown")
	return cmd
}

func printArticle(p *output.Printer, a api.Article, asMarkdown bool) error {
	text := a.Text
	if asMarkdown {
		rendered, err := NewTextRenderer().Markdown(text)
		if err != nil {
			return fmt.Errorf("rendering article %d: %w", a.ID, err)
		}
		text = rendered
	}

	p.Print("%s", p.Bold(a.Title))
	if a.ID > 0 {
		p.Print("#%d · %s", a.ID, a.Topic)
	} else {
		p.Print("%s", a.Topic)
	}
	p.Print("")
	p.Print("%s", text)
	return nil
}

// articleFlags holds the --title/--text/--topic trio shared by create and update
type articleFlags struct {
	title, text, topic string
}

func (f *articleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "article title")
	cmd.Flags().StringVar(&f.text, "text", "", "article text, or - to read it from stdin")
	cmd.Flags().StringVar(&f.topic, "topic", "", "article topic: "+strings.Join(topics, ", "))
}

// resolveText replaces "-" with everything on stdin
func (f *articleFlags) resolveText(in io.Reader) error {
	if f.text != "-" {
		return nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading text from stdin: %w", err)
	}
	f.text = strings.TrimRight(string(b), "\n")
	return nil
}

func newCreateCmd() *cobra.Command {
	var f articleFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new article",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkTopic(f.topic); err != nil {
				return err
			}
			if err := f.resolveText(cmd.InOrStdin()); err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return err
			}
			in := api.ArticleInput{Title: f.title, Text: f.text, Topic: f.topic}
			app.run(func() { app.ctrl.PostArticle(ctx, in) })
			if err := app.report(); err != nil {
				return err
			}

			if st := app.ctrl.State(); len(st.Articles) > 0 {
				printer.Info("Created article %d", st.Articles[len(st.Articles)-1].ID)
			}
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var f articleFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace an article; fields not given keep their current value",
		Args:  withUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := checkTopic(f.topic); err != nil {
				return err
			}
			if err := f.resolveText(cmd.InOrStdin()); err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return err
			}
			current, err := app.selectArticle(ctx, id)
			if err != nil {
				return err
			}

			in := api.ArticleInput{Title: current.Title, Text: current.Text, Topic: current.Topic}
			if cmd.Flags().Changed("title") {
				in.Title = f.title
			}
			if cmd.Flags().Changed("text") {
				in.Text = f.text
			}
			if cmd.Flags().Changed("topic") {
				in.Topic = f.topic
			}

			app.run(func() {
				app.ctrl.UpdateArticle(ctx, session.UpdateRequest{ArticleID: id, Article: in})
			})
			return app.report()
		},
	}

	f.register(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete one or more articles",
		Args:    withUsage(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return err
			}
			if len(ids) == 1 {
				app.run(func() { app.ctrl.DeleteArticle(ctx, ids[0]) })
				return app.report()
			}
			return deleteMany(ctx, app, ids)
		},
	}
}

// deleteMany removes several articles concurrently. Ids absent from a fresh
// listing are reported without a request. The batch stops at the first
// rejected token.
func deleteMany(ctx context.Context, app *App, ids []int) error {
	if err := app.fetch(ctx); err != nil {
		return err
	}
	known := app.ctrl.Articles()
	has := func(articles []api.Article, id int) bool {
		return slices.ContainsFunc(articles, func(a api.Article) bool { return a.ID == id })
	}

	var (
		mu      sync.Mutex
		failed  []int
		missing []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, id := range ids {
		if !has(known, id) {
			missing = append(missing, id)
			continue
		}
		g.Go(func() error {
			app.ctrl.DeleteArticle(gctx, id)
			if !has(app.ctrl.Articles(), id) {
				return nil
			}
			if !app.ctrl.Authenticated(ctx) {
				return errSessionLost
			}
			mu.Lock()
			failed = append(failed, id)
			mu.Unlock()
			return nil
		})
	}
	var waitErr error
	app.run(func() { waitErr = g.Wait() })
	if errors.Is(waitErr, errSessionLost) {
		// deletes cancelled after the rejection may have written a later outcome
		return errRejectedToken()
	}

	for _, id := range ids {
		switch {
		case slices.Contains(missing, id):
			printer.Warning("Article %d not found", id)
		case slices.Contains(failed, id):
			printer.Error("Article %d: %s", id, session.MsgDeleteFailed)
		default:
			printer.Success("Deleted article %d", id)
		}
	}
	if len(failed) > 0 || len(missing) > 0 {
		return &output.CLIError{
			Summary:  fmt.Sprintf("%d of %d deletions failed", len(failed)+len(missing), len(ids)),
			ExitCode: output.ExitFailed,
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  withUsage(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			printer.Print("articles %s", version)
			printer.Print("  commit: %s", commit)
			printer.Print("  go:     %s", runtime.Version())
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default config file (default ./.articles.yaml)",
		Args:  withUsage(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			written, err := ensureConfigExists(path)
			if err != nil {
				return err
			}
			if !written {
				printer.Warning("%s already exists, leaving it alone", path)
				return nil
			}
			printer.Success("Wrote %s", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(printer.Out())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	return cmd
}
