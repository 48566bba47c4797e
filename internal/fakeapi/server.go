// Package fakeapi is an in-memory implementation of the articles backend.
// It backs the client's tests and the articles-devserver command.
package fakeapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// DefaultPassword is the only password the fake backend accepts.
const DefaultPassword = "Password1234"

// Topics are the article topics the backend accepts.
var Topics = []string{"JavaScript", "React", "Node"}

// Config holds fake backend settings.
type Config struct {
	Secret   string
	Password string
	TokenTTL time.Duration
	// Latency is added to every /api request.
	Latency time.Duration
	Logger  *slog.Logger
}

type article struct {
	ID    int    `json:"article_id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

type articleInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Server is the fake backend state plus its echo router.
type Server struct {
	cfg    Config
	echo   *echo.Echo
	mu     sync.Mutex
	nextID int
	items  []article
}

// New builds a backend seeded with three articles.
func New(cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "fake-backend-secret"
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{cfg: cfg}
	s.Reset()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	g := e.Group("/api", s.latency)
	g.POST("/login", s.login)

	a := g.Group("/articles", s.requireToken)
	a.GET("", s.list)
	a.POST("", s.create)
	a.PUT("/:id", s.update)
	a.DELETE("/:id", s.remove)

	s.echo = e
	return s
}

// ServeHTTP lets the server be mounted in httptest or http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Reset restores the seeded article list.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []article{
		{ID: 1, Title: "Closures", Text: "Closures capture the variables of their enclosing scope.", Topic: "JavaScript"},
		{ID: 2, Title: "Hooks", Text: "useState and useEffect replace most class lifecycle methods.", Topic: "React"},
		{ID: 3, Title: "Streams", Text: "Streams process data piece by piece instead of all at once.", Topic: "Node"},
	}
	s.nextID = 4
}

// ArticleIDs lists the ids currently stored, in order.
func (s *Server) ArticleIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.items))
	for _, a := range s.items {
		ids = append(ids, a.ID)
	}
	return ids
}

// IssueToken signs a token for username, the same way /login does.
func (s *Server) IssueToken(username string) (string, error) {
	now := time.Now()
	c := claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    "articles-fakeapi",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *Server) latency(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.Latency > 0 {
			select {
			case <-time.After(s.cfg.Latency):
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		return next(c)
	}
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Ouch: token required")
		}

		parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.cfg.Secret), nil
		})
		if err != nil || !parsed.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Ouch: invalid token")
		}

		c.Set("username", parsed.Claims.(*claims).Username)
		return next(c)
	}
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Ouch: malformed request")
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || req.Password != s.cfg.Password {
		return echo.NewHTTPError(http.StatusUnauthorized, "Ouch: username or password incorrect")
	}

	token, err := s.IssueToken(username)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	s.cfg.Logger.Info("login", "username", username)
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Welcome back, %s!", username),
		"token":   token,
	})
}

func (s *Server) list(c echo.Context) error {
	s.mu.Lock()
	items := slices.Clone(s.items)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Here are your articles, %s!", c.Get("username")),
		"articles": items,
	})
}

func (s *Server) create(c echo.Context) error {
	in, err := bindArticle(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	a := article{ID: s.nextID, Title: in.Title, Text: in.Text, Topic: in.Topic}
	s.nextID++
	s.items = append(s.items, a)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Well done, %s. Great article!", c.Get("username")),
		"article": a,
	})
}

func (s *Server) update(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	in, err := bindArticle(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx >= 0 {
		s.items[idx] = article{ID: id, Title: in.Title, Text: in.Text, Topic: in.Topic}
	}
	s.mu.Unlock()

	if idx < 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Article %d not found", id))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Nice update, %s!", c.Get("username")),
	})
}

func (s *Server) remove(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx >= 0 {
		s.items = slices.Delete(s.items, idx, idx+1)
	}
	s.mu.Unlock()

	if idx < 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Article %d not found", id))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Article %d was deleted, %s!", id, c.Get("username")),
	})
}

// indexOf must be called with s.mu held.
func (s *Server) indexOf(id int) int {
	return slices.IndexFunc(s.items, func(a article) bool { return a.ID == id })
}

func articleID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Ouch: article_id must be a number")
	}
	return id, nil
}

func bindArticle(c echo.Context) (articleInput, error) {
	var in articleInput
	if err := c.Bind(&in); err != nil {
		return in, echo.NewHTTPError(http.StatusBadRequest, "Ouch: malformed request")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Text = strings.TrimSpace(in.Text)
	in.Topic = strings.TrimSpace(in.Topic)

	if in.Title == "" || in.Text == "" {
		return in, echo.NewHTTPError(http.StatusUnprocessableEntity, "Ouch: title and text are required")
	}
	if !slices.Contains(Topics, in.Topic) {
		return in, echo.NewHTTPError(http.StatusUnprocessableEntity,
			"Ouch: topic must be one of "+strings.Join(Topics, ", "))
	}
	return in, nil
}

// handleError renders every error as {"message": ...}, the shape the client
// expects.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Ouch: something went wrong"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		s.cfg.Logger.Error("request failed", "error", err, "path", c.Request().URL.Path)
	}

	if err := c.JSON(code, map[string]string{"message": msg}); err != nil {
		s.cfg.Logger.Error("writing error response", "error", err)
	}
}
