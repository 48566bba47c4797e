package session

import (
	"context"

	"github.com/aktagon/articles-client/internal/api"
)

// Route is the view context the client is showing.
type Route string

const (
	RouteLogin    Route = "/"
	RouteArticles Route = "/articles"
)

// Navigator receives view transitions decided by the Controller.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }

type noopNavigator struct{}

func (noopNavigator) Navigate(Route) {}

// Outcome classifies how the last completed operation ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailed
	OutcomeUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return "none"
	}
}

// State is a read-only snapshot of the Controller. Slices and pointers in it
// are copies and may be kept by the caller.
type State struct {
	Message    string
	Busy       bool
	Articles   []api.Article
	SelectedID *int
	Selected   *api.Article
	Route      Route
	Outcome    Outcome
}

// UpdateRequest names the article to replace and its new content.
type UpdateRequest struct {
	ArticleID int
	Article   api.ArticleInput
}

// Actions is everything a view may do with the Controller.
type Actions interface {
	Login(ctx context.Context, creds api.Credentials)
	Logout(ctx context.Context)
	GetArticles(ctx context.Context)
	PostArticle(ctx context.Context, article api.ArticleInput)
	UpdateArticle(ctx context.Context, req UpdateRequest)
	DeleteArticle(ctx context.Context, id int)
	SelectArticle(id int)
	State() State
}

// Backend is the subset of the API client the Controller uses.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.Response, error)
	ListArticles(ctx context.Context, token string) (*api.Response, error)
	CreateArticle(ctx context.Context, token string, in api.ArticleInput) (*api.Response, error)
	UpdateArticle(ctx context.Context, token string, id int, in api.ArticleInput) (*api.Response, error)
	DeleteArticle(ctx context.Context, token string, id int) (*api.Response, error)
}
