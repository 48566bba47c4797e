package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/credstore"
	"github.com/aktagon/articles-client/internal/output"
	"github.com/aktagon/articles-client/internal/session"
)

// spinnerDelay is how long an operation may run before "Please wait..." shows
const spinnerDelay = 250 * time.Millisecond

// App wires configuration, transport, credential store and controller for
// one command invocation.
type App struct {
	settings *Settings
	client   *api.Client
	store    credstore.Store
	ctrl     *session.Controller
	nav      *routeRecorder
	printer  *output.Printer
	logger   *slog.Logger
}

// NewApp builds an App from loaded settings
func NewApp(s *Settings, p *output.Printer, l *slog.Logger) (*App, error) {
	store, err := credstore.Open(s.Credentials.StoreConfig())
	if err != nil {
		return nil, &output.CLIError{
			Summary:    "cannot open credential store",
			Detail:     err.Error(),
			Suggestion: "check the credentials section of your config",
			ExitCode:   output.ExitConfigError,
		}
	}

	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: s.API.Timeout}),
		api.WithLogger(l),
		api.WithUserAgent("articles-client/" + version),
	}
	if s.API.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(rate.Limit(s.API.RateLimit), s.API.Burst))
	}
	client := api.New(s.API.BaseURL, opts...)

	nav := &routeRecorder{}
	ctrl := session.New(client, store,
		session.WithNavigator(nav),
		session.WithLogger(l),
	)

	return &App{
		settings: s,
		client:   client,
		store:    store,
		ctrl:     ctrl,
		nav:      nav,
		printer:  p,
		logger:   l,
	}, nil
}

// newApp builds an App from the globals set up by initConfig
func newApp() (*App, error) {
	return NewApp(settings, printer, logger)
}

// Close releases the credential store when it holds a connection
func (a *App) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// run performs op and shows the busy indicator when it outlasts spinnerDelay
func (a *App) run(op func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		op()
	}()

	timer := time.NewTimer(spinnerDelay)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		if a.ctrl.Busy() {
			a.printer.Busy()
		}
		<-done
	}
}

// report prints the status message left by the last operation and turns
// failures into CLI errors carrying the matching exit code.
func (a *App) report() error {
	st := a.ctrl.State()
	switch st.Outcome {
	case session.OutcomeUnauthorized:
		return errRejectedToken()
	case session.OutcomeFailed:
		return &output.CLIError{Summary: st.Message, ExitCode: output.ExitFailed}
	default:
		if st.Message != "" {
			a.printer.Success("%s", st.Message)
		}
		return nil
	}
}

func errRejectedToken() *output.CLIError {
	return &output.CLIError{
		Summary:    "not logged in",
		Detail:     "the server rejected the stored token or none is stored",
		Suggestion: "run 'articles login'",
		ExitCode:   output.ExitUnauthorized,
	}
}

// requireLogin fails fast when no token is stored
func (a *App) requireLogin(ctx context.Context) error {
	if a.ctrl.Authenticated(ctx) {
		return nil
	}
	return &output.CLIError{
		Summary:    "not logged in",
		Suggestion: "run 'articles login'",
		ExitCode:   output.ExitUnauthorized,
	}
}

// fetch refreshes the local collection and reports only failures
func (a *App) fetch(ctx context.Context) error {
	a.run(func() { a.ctrl.GetArticles(ctx) })
	if st := a.ctrl.State(); st.Outcome != session.OutcomeSuccess {
		return a.report()
	}
	return nil
}

// selectArticle refreshes the collection and selects id in it
func (a *App) selectArticle(ctx context.Context, id int) (*api.Article, error) {
	if err := a.fetch(ctx); err != nil {
		return nil, err
	}
	a.ctrl.SelectArticle(id)
	st := a.ctrl.State()
	if st.Selected == nil {
		a.ctrl.ClearSelection()
		return nil, &output.CLIError{
			Summary:    fmt.Sprintf("article %d not found", id),
			Suggestion: "run 'articles list' to see available ids",
			ExitCode:   output.ExitFailed,
		}
	}
	return st.Selected, nil
}

// routeRecorder is the terminal's navigator: it remembers the last view the
// controller asked for.
type routeRecorder struct {
	mu    sync.Mutex
	route session.Route
	moved bool
}

func (r *routeRecorder) Navigate(to session.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = to
	r.moved = true
}

// take returns the pending route and whether navigation happened since the
// previous call.
func (r *routeRecorder) take() (session.Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := r.moved
	r.moved = false
	return r.route, moved
}
