// Package session keeps the client's view state in sync with the articles
// backend. The Controller owns the status message, the busy indicator, the
// local article collection and the current selection; the bearer token lives
// in a credstore.Store.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/credstore"
)

// Status messages set by the Controller itself. Every other message comes
// from the server.
const (
	MsgLoginFailed  = "Login failed. Try again."
	MsgGoodbye      = "Goodbye!"
	MsgFetchFailed  = "Failed to fetch articles. Try again."
	MsgPostFailed   = "Failed to post article. Try again."
	MsgUpdateFailed = "Failed to update article. Try again."
	MsgDeleteFailed = "Failed to delete article. Try again."
)

// Controller mediates every call to the backend and reconciles local state
// with the responses. Operations never return errors: each failure ends up
// as the status message. Methods are safe for concurrent use.
type Controller struct {
	backend Backend
	store   credstore.Store
	nav     Navigator
	logger  *slog.Logger

	mu         sync.Mutex
	message    string
	articles   []api.Article
	selectedID *int
	route      Route
	outcome    Outcome
	inflight   int
	listGen    uint64
	epoch      uint64
}

var _ Actions = (*Controller)(nil)

// Option configures a Controller.
type Option func(*Controller)

// WithNavigator routes view transitions to nav.
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) {
		c.nav = nav
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithRoute sets the initial view context.
func WithRoute(r Route) Option {
	return func(c *Controller) {
		c.route = r
	}
}

// New creates a Controller talking to backend and keeping the token in store.
func New(backend Backend, store credstore.Store, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		store:   store,
		nav:     noopNavigator{},
		logger:  slog.New(slog.DiscardHandler),
		route:   RouteLogin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token. On success the token is stored,
// the server message shown and the view moves to the article list.
func (c *Controller) Login(ctx context.Context, creds api.Credentials) {
	epoch := c.begin()
	defer c.end()

	resp, err := c.backend.Login(ctx, creds)
	if err != nil {
		c.logger.Warn("login request failed", "error", err)
		c.finish(epoch, OutcomeFailed, MsgLoginFailed)
		return
	}
	if !resp.OK() {
		c.logger.Debug("login rejected", "error", resp.Err(), "server_message", resp.ServerMessage())
		c.finish(epoch, OutcomeFailed, MsgLoginFailed)
		return
	}

	var body api.LoginResponse
	if err := resp.Decode(&body); err != nil {
		c.logger.Warn("login response unreadable", "error", err)
		c.finish(epoch, OutcomeFailed, MsgLoginFailed)
		return
	}
	if body.Token == "" {
		c.logger.Warn("login response carried no token")
		c.finish(epoch, OutcomeFailed, MsgLoginFailed)
		return
	}
	if err := c.store.Set(ctx, credstore.TokenKey, body.Token); err != nil {
		c.logger.Warn("storing token", "error", err)
		c.finish(epoch, OutcomeFailed, MsgLoginFailed)
		return
	}

	c.logger.Debug("logged in", "username", creds.Username)
	c.mu.Lock()
	c.endSession()
	c.outcome = OutcomeSuccess
	c.message = body.Message
	c.mu.Unlock()

	c.navigate(RouteArticles)
}

// Logout forgets the token, if any, and returns to the login view. It does
// not talk to the server.
func (c *Controller) Logout(ctx context.Context) {
	_, ok, err := c.store.Get(ctx, credstore.TokenKey)
	if err != nil {
		c.logger.Warn("reading token on logout", "error", err)
	}
	if ok || err != nil {
		if err := c.store.Remove(ctx, credstore.TokenKey); err != nil {
			c.logger.Warn("removing token", "error", err)
		}
	}

	c.mu.Lock()
	c.endSession()
	c.articles = nil
	c.selectedID = nil
	c.message = MsgGoodbye
	c.outcome = OutcomeSuccess
	c.mu.Unlock()

	c.navigate(RouteLogin)
}

// GetArticles replaces the local collection with the server's.
func (c *Controller) GetArticles(ctx context.Context) {
	epoch := c.begin()
	defer c.end()

	c.mu.Lock()
	c.listGen++
	gen := c.listGen
	c.mu.Unlock()

	var body api.ListResponse
	res := c.exchange(ctx, "list", &body, func(ctx context.Context, token string) (*api.Response, error) {
		return c.backend.ListArticles(ctx, token)
	})
	if res == resultUnauthorized {
		c.invalidate(ctx, epoch)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.listGen {
		c.logger.Debug("discarding stale article list", "generation", gen, "latest", c.listGen)
		return
	}
	if res != resultOK {
		c.message = MsgFetchFailed
		c.outcome = OutcomeFailed
		return
	}

	c.articles = body.Articles
	if c.articles == nil {
		c.articles = []api.Article{}
	}
	c.message = body.Message
	c.outcome = OutcomeSuccess
}

// PostArticle creates an article and appends the server's copy, with its
// server-assigned id, to the collection.
func (c *Controller) PostArticle(ctx context.Context, article api.ArticleInput) {
	epoch := c.begin()
	defer c.end()

	var body api.CreateResponse
	res := c.exchange(ctx, "post", &body, func(ctx context.Context, token string) (*api.Response, error) {
		return c.backend.CreateArticle(ctx, token, article)
	})
	if res == resultOK && body.Article.ID == 0 {
		c.logger.Warn("post response carried no article")
		res = resultFailed
	}

	switch res {
	case resultUnauthorized:
		c.invalidate(ctx, epoch)
	case resultFailed:
		c.finish(epoch, OutcomeFailed, MsgPostFailed)
	default:
		c.mu.Lock()
		if c.stale(epoch, "post") {
			c.mu.Unlock()
			return
		}
		c.articles = append(c.articles, body.Article)
		c.message = body.Message
		c.outcome = OutcomeSuccess
		c.mu.Unlock()
	}
}

// UpdateArticle replaces an article. The local entry takes the submitted
// fields, not the server's echo.
func (c *Controller) UpdateArticle(ctx context.Context, req UpdateRequest) {
	epoch := c.begin()
	defer c.end()

	var body api.MessageResponse
	res := c.exchange(ctx, "update", &body, func(ctx context.Context, token string) (*api.Response, error) {
		return c.backend.UpdateArticle(ctx, token, req.ArticleID, req.Article)
	})

	switch res {
	case resultUnauthorized:
		c.invalidate(ctx, epoch)
	case resultFailed:
		c.finish(epoch, OutcomeFailed, MsgUpdateFailed)
	default:
		c.mu.Lock()
		if c.stale(epoch, "update") {
			c.mu.Unlock()
			return
		}
		for i := range c.articles {
			if c.articles[i].ID == req.ArticleID {
				c.articles[i] = api.Article{
					ID:    req.ArticleID,
					Title: req.Article.Title,
					Text:  req.Article.Text,
					Topic: req.Article.Topic,
				}
			}
		}
		if c.selectedID != nil && *c.selectedID == req.ArticleID {
			c.selectedID = nil
		}
		c.message = body.Message
		c.outcome = OutcomeSuccess
		c.mu.Unlock()
	}
}

// DeleteArticle removes an article on the server and then locally. A local
// miss still shows the server message.
func (c *Controller) DeleteArticle(ctx context.Context, id int) {
	epoch := c.begin()
	defer c.end()

	var body api.MessageResponse
	res := c.exchange(ctx, "delete", &body, func(ctx context.Context, token string) (*api.Response, error) {
		return c.backend.DeleteArticle(ctx, token, id)
	})

	switch res {
	case resultUnauthorized:
		c.invalidate(ctx, epoch)
	case resultFailed:
		c.finish(epoch, OutcomeFailed, MsgDeleteFailed)
	default:
		c.mu.Lock()
		if c.stale(epoch, "delete") {
			c.mu.Unlock()
			return
		}
		c.articles = slices.DeleteFunc(c.articles, func(a api.Article) bool { return a.ID == id })
		if c.selectedID != nil && *c.selectedID == id {
			c.selectedID = nil
		}
		c.message = body.Message
		c.outcome = OutcomeSuccess
		c.mu.Unlock()
	}
}

// SelectArticle marks id as the article being edited. No network call.
func (c *Controller) SelectArticle(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedID = &id
}

// ClearSelection drops the current selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedID = nil
}

// State returns a snapshot of the view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Message:  c.message,
		Busy:     c.inflight > 0,
		Articles: slices.Clone(c.articles),
		Route:    c.route,
		Outcome:  c.outcome,
	}
	if c.selectedID != nil {
		id := *c.selectedID
		s.SelectedID = &id
		if i := slices.IndexFunc(c.articles, func(a api.Article) bool { return a.ID == id }); i >= 0 {
			a := c.articles[i]
			s.Selected = &a
		}
	}
	return s
}

// Busy reports whether any operation is waiting on the network.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Message returns the current status message.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Articles returns a copy of the local collection.
func (c *Controller) Articles() []api.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.articles)
}

// Authenticated reports whether a token is stored.
func (c *Controller) Authenticated(ctx context.Context) bool {
	token, ok, err := c.store.Get(ctx, credstore.TokenKey)
	if err != nil {
		c.logger.Warn("reading token", "error", err)
		return false
	}
	return ok && token != ""
}

type result int

const (
	resultOK result = iota
	resultFailed
	resultUnauthorized
)

// exchange sends one authenticated request and decodes a 2xx body into out.
func (c *Controller) exchange(ctx context.Context, op string, out any, send func(ctx context.Context, token string) (*api.Response, error)) result {
	token, _, err := c.store.Get(ctx, credstore.TokenKey)
	if err != nil {
		c.logger.Warn("reading token", "op", op, "error", err)
		return resultFailed
	}

	resp, err := send(ctx, token)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "error", err)
		return resultFailed
	}
	if resp.Unauthorized() {
		c.logger.Debug("token rejected", "op", op, "server_message", resp.ServerMessage())
		return resultUnauthorized
	}
	if !resp.OK() {
		c.logger.Warn("request rejected", "op", op, "error", resp.Err(), "server_message", resp.ServerMessage())
		return resultFailed
	}
	if err := resp.Decode(out); err != nil {
		c.logger.Warn("response unreadable", "op", op, "error", err)
		return resultFailed
	}
	return resultOK
}

// invalidate handles a rejected token: forget it and go back to login. No
// failure message is shown. A rejection from an earlier session is ignored.
func (c *Controller) invalidate(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if c.stale(epoch, "invalidate") {
		c.mu.Unlock()
		return
	}
	c.endSession()
	c.outcome = OutcomeUnauthorized
	c.mu.Unlock()

	if err := c.store.Remove(ctx, credstore.TokenKey); err != nil {
		c.logger.Warn("removing rejected token", "error", err)
	}
	c.navigate(RouteLogin)
}

// endSession starts a new epoch so completions of requests issued under the
// old token are dropped. Caller holds c.mu.
func (c *Controller) endSession() {
	c.epoch++
	c.listGen++
}

// stale reports whether epoch has ended. Caller holds c.mu.
func (c *Controller) stale(epoch uint64, op string) bool {
	if epoch == c.epoch {
		return false
	}
	c.logger.Debug("discarding completion from an ended session", "op", op, "epoch", epoch, "latest", c.epoch)
	return true
}

// begin marks an operation in flight and returns the session epoch it runs in
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.message = ""
	c.inflight++
	return c.epoch
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
}

func (c *Controller) finish(epoch uint64, o Outcome, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(epoch, "finish") {
		return
	}
	c.outcome = o
	c.message = msg
}

func (c *Controller) navigate(to Route) {
	c.mu.Lock()
	c.route = to
	c.mu.Unlock()

	c.nav.Navigate(to)
}
