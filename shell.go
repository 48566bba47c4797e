package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/output"
	"github.com/aktagon/articles-client/internal/session"
)

const shellHelp = `Commands:
  login USER [PASSWORD]  log in (prompts for the password when omitted)
  logout                 forget the session
  list                   refresh and show your articles
  show ID                show one article
  new                    write and post an article
  edit ID                select an article and replace its fields
  delete ID              delete an article
  state                  show the session state
  help                   show this help
  quit                   leave the shell`

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps one view of your articles",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			sh := newShell(app, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.loop(cmd.Context())
		},
	}
}

// shell reads one command per line and drives a single Controller. The
// prompt follows the view the controller navigates to.
type shell struct {
	app   *App
	in    *bufio.Scanner
	out   io.Writer
	route session.Route
}

func newShell(app *App, in io.Reader, out io.Writer) *shell {
	return &shell{
		app:   app,
		in:    bufio.NewScanner(in),
		out:   out,
		route: session.RouteLogin,
	}
}

func (s *shell) loop(ctx context.Context) error {
	p := s.app.printer
	p.Info("Type 'help' for commands.")

	if s.app.ctrl.Authenticated(ctx) {
		s.enter(ctx, session.RouteArticles)
	}

	for {
		fmt.Fprint(s.out, s.prompt())
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}

		if s.dispatch(ctx, fields[0], fields[1:]) {
			s.showMessage()
		}
		if route, moved := s.app.nav.take(); moved {
			s.enter(ctx, route)
		}
	}
}

func (s *shell) prompt() string {
	if s.route == session.RouteArticles {
		return "articles> "
	}
	return "login> "
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// ask prompts for one field; an empty answer keeps current
func (s *shell) ask(label, current string) (string, bool) {
	if current != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	v, ok := s.readLine()
	if !ok {
		return "", false
	}
	if v == "" {
		return current, true
	}
	return v, true
}

// enter switches the view. The article view loads the collection on entry.
func (s *shell) enter(ctx context.Context, route session.Route) {
	s.route = route
	if route != session.RouteArticles {
		return
	}
	s.app.run(func() { s.app.ctrl.GetArticles(ctx) })
	if st := s.app.ctrl.State(); st.Outcome != session.OutcomeSuccess {
		s.showMessage()
		if route, moved := s.app.nav.take(); moved {
			s.route = route
		}
		return
	}
	s.showTable()
}

// dispatch runs one command and reports whether it left a status message
func (s *shell) dispatch(ctx context.Context, name string, args []string) bool {
	p := s.app.printer

	switch name {
	case "help":
		p.Print("%s", shellHelp)
		return false
	case "state":
		s.showState()
		return false
	case "login":
		return s.login(ctx, args)
	}

	if s.route != session.RouteArticles {
		p.Warning("Log in first: login USER")
		return false
	}

	switch name {
	case "logout":
		s.app.ctrl.Logout(ctx)
		return true
	case "list":
		s.app.run(func() { s.app.ctrl.GetArticles(ctx) })
		if s.app.ctrl.State().Outcome == session.OutcomeSuccess {
			s.showTable()
			return false
		}
		return true
	case "show":
		id, ok := s.argID(args)
		if !ok {
			return false
		}
		a, found := s.find(id)
		if !found {
			p.Warning("Article %d not found", id)
			return false
		}
		if err := printArticle(p, a, true); err != nil {
			p.Error("%v", err)
		}
		return false
	case "new":
		return s.create(ctx)
	case "edit":
		id, ok := s.argID(args)
		if !ok {
			return false
		}
		return s.edit(ctx, id)
	case "delete":
		id, ok := s.argID(args)
		if !ok {
			return false
		}
		s.app.run(func() { s.app.ctrl.DeleteArticle(ctx, id) })
		return true
	default:
		p.Warning("Unknown command %q. Type 'help' for commands.", name)
		return false
	}
}

func (s *shell) login(ctx context.Context, args []string) bool {
	if len(args) == 0 || len(args) > 2 {
		s.app.printer.Warning("Usage: login USER [PASSWORD]")
		return false
	}
	creds := api.Credentials{Username: args[0]}
	if len(args) == 2 {
		creds.Password = args[1]
	} else {
		fmt.Fprint(s.out, "Password: ")
		pw, ok := s.readLine()
		if !ok {
			return false
		}
		creds.Password = pw
	}

	s.app.run(func() { s.app.ctrl.Login(ctx, creds) })
	return true
}

func (s *shell) create(ctx context.Context) bool {
	var in api.ArticleInput
	var ok bool
	if in.Title, ok = s.ask("Title", ""); !ok {
		return false
	}
	if in.Text, ok = s.ask("Text", ""); !ok {
		return false
	}
	if in.Topic, ok = s.ask("Topic ("+strings.Join(topics, ", ")+")", ""); !ok {
		return false
	}

	s.app.run(func() { s.app.ctrl.PostArticle(ctx, in) })
	return true
}

func (s *shell) edit(ctx context.Context, id int) bool {
	s.app.ctrl.SelectArticle(id)
	current := s.app.ctrl.State().Selected
	if current == nil {
		s.app.ctrl.ClearSelection()
		s.app.printer.Warning("Article %d not found", id)
		return false
	}

	in := api.ArticleInput{}
	var ok bool
	if in.Title, ok = s.ask("Title", current.Title); !ok {
		return false
	}
	if in.Text, ok = s.ask("Text", current.Text); !ok {
		return false
	}
	if in.Topic, ok = s.ask("Topic", current.Topic); !ok {
		return false
	}

	s.app.run(func() {
		s.app.ctrl.UpdateArticle(ctx, session.UpdateRequest{ArticleID: id, Article: in})
	})
	return true
}

func (s *shell) argID(args []string) (int, bool) {
	if len(args) != 1 {
		s.app.printer.Warning("An article id is required")
		return 0, false
	}
	id, err := parseID(args[0])
	if err != nil {
		s.app.printer.Warning("%v", err)
		return 0, false
	}
	return id, true
}

func (s *shell) find(id int) (api.Article, bool) {
	for _, a := range s.app.ctrl.Articles() {
		if a.ID == id {
			return a, true
		}
	}
	return api.Article{}, false
}

func (s *shell) showMessage() {
	st := s.app.ctrl.State()
	if st.Outcome == session.OutcomeUnauthorized {
		s.app.printer.Warning("Session expired. Log in again.")
		return
	}
	if st.Message == "" {
		return
	}
	switch st.Outcome {
	case session.OutcomeFailed:
		s.app.printer.Error("%s", st.Message)
	default:
		s.app.printer.Success("%s", st.Message)
	}
}

func (s *shell) showTable() {
	st := s.app.ctrl.State()
	if len(st.Articles) == 0 {
		s.app.printer.Info("No articles yet. Type 'new' to write one.")
		return
	}
	if err := output.ArticleTable(s.out, st.Articles, st.SelectedID); err != nil {
		s.app.printer.Error("%v", err)
	}
}

func (s *shell) showState() {
	st := s.app.ctrl.State()
	p := s.app.printer
	p.Print("route:    %s", s.route)
	p.Print("busy:     %t", st.Busy)
	p.Print("message:  %s", st.Message)
	p.Print("articles: %d", len(st.Articles))
	if st.Selected != nil {
		p.Print("selected: %d %s", st.Selected.ID, st.Selected.Title)
	}
}
