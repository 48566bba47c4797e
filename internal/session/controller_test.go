package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/credstore"
	"github.com/aktagon/articles-client/internal/fakeapi"
)

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) Navigate(to Route) {
	m.Called(to)
}

type fixture struct {
	backend *fakeapi.Server
	store   *credstore.Memory
	nav     *mockNavigator
	ctrl    *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := fakeapi.New(fakeapi.Config{})
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	return newFixtureWithURL(t, srv.URL+"/api", backend)
}

func newFixtureWithURL(t *testing.T, baseURL string, backend *fakeapi.Server) *fixture {
	t.Helper()

	nav := &mockNavigator{}
	nav.On("Navigate", mock.Anything).Return()
	store := credstore.NewMemory()

	return &fixture{
		backend: backend,
		store:   store,
		nav:     nav,
		ctrl:    New(api.New(baseURL), store, WithNavigator(nav)),
	}
}

func (f *fixture) token(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), credstore.TokenKey)
	require.NoError(t, err)
	return v, ok
}

func (f *fixture) loginAndList(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.ctrl.Login(ctx, api.Credentials{Username: "foo", Password: fakeapi.DefaultPassword})
	require.Equal(t, OutcomeSuccess, f.ctrl.State().Outcome)
	f.ctrl.GetArticles(ctx)
	require.Equal(t, OutcomeSuccess, f.ctrl.State().Outcome)
}

func ids(articles []api.Article) []int {
	out := make([]int, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ID)
	}
	return out
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		creds       api.Credentials
		wantToken   bool
		wantMessage string
		wantOutcome Outcome
		wantRoute   Route
	}{
		{
			name:        "valid credentials",
			creds:       api.Credentials{Username: "foo", Password: fakeapi.DefaultPassword},
			wantToken:   true,
			wantMessage: "Welcome back, foo!",
			wantOutcome: OutcomeSuccess,
			wantRoute:   RouteArticles,
		},
		{
			name:        "wrong password",
			creds:       api.Credentials{Username: "foo", Password: "wrong"},
			wantMessage: MsgLoginFailed,
			wantOutcome: OutcomeFailed,
			wantRoute:   RouteLogin,
		},
		{
			name:        "username too short",
			creds:       api.Credentials{Username: "fo", Password: fakeapi.DefaultPassword},
			wantMessage: MsgLoginFailed,
			wantOutcome: OutcomeFailed,
			wantRoute:   RouteLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.ctrl.Login(context.Background(), tt.creds)

			token, ok := f.token(t)
			assert.Equal(t, tt.wantToken, ok)
			if tt.wantToken {
				assert.NotEmpty(t, token)
				f.nav.AssertCalled(t, "Navigate", RouteArticles)
			} else {
				f.nav.AssertNotCalled(t, "Navigate", mock.Anything)
			}

			st := f.ctrl.State()
			assert.Equal(t, tt.wantMessage, st.Message)
			assert.Equal(t, tt.wantOutcome, st.Outcome)
			assert.Equal(t, tt.wantRoute, st.Route)
			assert.False(t, st.Busy)
		})
	}
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "previous"))

	f.ctrl.Login(context.Background(), api.Credentials{Username: "foo", Password: "wrong"})

	token, ok := f.token(t)
	assert.True(t, ok)
	assert.Equal(t, "previous", token)
	assert.Equal(t, MsgLoginFailed, f.ctrl.Message())
}

func TestLogin_SoftFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing token", http.StatusOK, `{"message":"Welcome back"}`},
		{"malformed json", http.StatusOK, `{"message":`},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			f := newFixtureWithURL(t, srv.URL, nil)

			f.ctrl.Login(context.Background(), api.Credentials{Username: "foo", Password: "bar"})

			_, ok := f.token(t)
			assert.False(t, ok)
			assert.Equal(t, MsgLoginFailed, f.ctrl.Message())
			assert.Equal(t, OutcomeFailed, f.ctrl.State().Outcome)
			assert.False(t, f.ctrl.Busy())
		})
	}
}

func TestLogin_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	f := newFixtureWithURL(t, url, nil)

	f.ctrl.Login(context.Background(), api.Credentials{Username: "foo", Password: "bar"})

	assert.Equal(t, MsgLoginFailed, f.ctrl.Message())
	assert.False(t, f.ctrl.Busy())
}

func TestLogout(t *testing.T) {
	t.Run("with token", func(t *testing.T) {
		f := newFixture(t)
		f.loginAndList(t)
		f.ctrl.SelectArticle(1)

		f.ctrl.Logout(context.Background())

		_, ok := f.token(t)
		assert.False(t, ok)
		st := f.ctrl.State()
		assert.Equal(t, MsgGoodbye, st.Message)
		assert.Equal(t, RouteLogin, st.Route)
		assert.Empty(t, st.Articles)
		assert.Nil(t, st.SelectedID)
		f.nav.AssertCalled(t, "Navigate", RouteLogin)
	})

	t.Run("without token", func(t *testing.T) {
		f := newFixture(t)

		f.ctrl.Logout(context.Background())
		f.ctrl.Logout(context.Background())

		_, ok := f.token(t)
		assert.False(t, ok)
		assert.Equal(t, MsgGoodbye, f.ctrl.Message())
		f.nav.AssertNumberOfCalls(t, "Navigate", 2)
	})
}

func TestGetArticles(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	st := f.ctrl.State()
	assert.Equal(t, []int{1, 2, 3}, ids(st.Articles))
	assert.Len(t, st.Articles, len(f.backend.ArticleIDs()))
	assert.Equal(t, "Here are your articles, foo!", st.Message)
	assert.False(t, st.Busy)
}

func TestGetArticles_UnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "expired-or-forged"))

	f.ctrl.GetArticles(context.Background())

	_, ok := f.token(t)
	assert.False(t, ok)
	st := f.ctrl.State()
	assert.Empty(t, st.Message, "a rejected token is not reported as a fetch failure")
	assert.Equal(t, OutcomeUnauthorized, st.Outcome)
	assert.Equal(t, RouteLogin, st.Route)
	assert.False(t, st.Busy)
	f.nav.AssertCalled(t, "Navigate", RouteLogin)
}

func TestGetArticles_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"forbidden", http.StatusForbidden, `{}`},
		{"malformed body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			f := newFixtureWithURL(t, srv.URL, nil)
			require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

			f.ctrl.GetArticles(context.Background())

			st := f.ctrl.State()
			assert.Equal(t, MsgFetchFailed, st.Message)
			assert.Equal(t, OutcomeFailed, st.Outcome)
			_, ok := f.token(t)
			assert.True(t, ok, "only a 401 invalidates the session")
		})
	}
}

func TestPostArticle(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)
	before := len(f.ctrl.Articles())

	f.ctrl.PostArticle(context.Background(), api.ArticleInput{Title: "T", Text: "X", Topic: "Node"})

	st := f.ctrl.State()
	require.Len(t, st.Articles, before+1)
	last := st.Articles[len(st.Articles)-1]
	assert.Equal(t, 4, last.ID, "server-assigned id is trusted")
	assert.Equal(t, api.Article{ID: 4, Title: "T", Text: "X", Topic: "Node"}, last)
	assert.Equal(t, "Well done, foo. Great article!", st.Message)
	assert.Equal(t, []int{1, 2, 3, 4}, f.backend.ArticleIDs())
}

func TestPostArticle_Rejected(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	f.ctrl.PostArticle(context.Background(), api.ArticleInput{Title: "T", Text: "X", Topic: "Go"})

	st := f.ctrl.State()
	assert.Len(t, st.Articles, 3)
	assert.Equal(t, MsgPostFailed, st.Message)
	assert.Equal(t, OutcomeFailed, st.Outcome)
}

func TestUpdateArticle(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)
	f.ctrl.SelectArticle(1)
	before := f.ctrl.Articles()

	f.ctrl.UpdateArticle(context.Background(), UpdateRequest{
		ArticleID: 1,
		Article:   api.ArticleInput{Title: "New title", Text: "New text", Topic: "React"},
	})

	st := f.ctrl.State()
	assert.Equal(t, "Nice update, foo!", st.Message)
	assert.Equal(t, []int{1, 2, 3}, ids(st.Articles), "order and identity unchanged")
	assert.Equal(t, api.Article{ID: 1, Title: "New title", Text: "New text", Topic: "React"}, st.Articles[0])
	assert.Equal(t, before[1:], st.Articles[1:])
	assert.Nil(t, st.SelectedID, "selection is released after a successful update")
}

func TestUpdateArticle_Failure(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)
	before := f.ctrl.Articles()

	f.ctrl.UpdateArticle(context.Background(), UpdateRequest{
		ArticleID: 99,
		Article:   api.ArticleInput{Title: "a", Text: "b", Topic: "Node"},
	})

	assert.Equal(t, MsgUpdateFailed, f.ctrl.Message())
	assert.Equal(t, before, f.ctrl.Articles())
}

func TestDeleteArticle(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	f.ctrl.DeleteArticle(context.Background(), 3)

	st := f.ctrl.State()
	assert.Equal(t, []int{1, 2}, ids(st.Articles))
	assert.Equal(t, "Article 3 was deleted, foo!", st.Message)
}

func TestDeleteArticle_NotInLocalCollection(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Login(context.Background(), api.Credentials{Username: "foo", Password: fakeapi.DefaultPassword})
	// the collection was never fetched, so article 2 only exists on the server

	f.ctrl.DeleteArticle(context.Background(), 2)

	st := f.ctrl.State()
	assert.Empty(t, st.Articles)
	assert.Equal(t, "Article 2 was deleted, foo!", st.Message)
	assert.Equal(t, OutcomeSuccess, st.Outcome)
}

func TestDeleteArticle_Failure(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	f.ctrl.DeleteArticle(context.Background(), 42)

	assert.Equal(t, MsgDeleteFailed, f.ctrl.Message())
	assert.Len(t, f.ctrl.Articles(), 3)
}

func TestMutations_UnauthorizedClearsSession(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *Controller)
	}{
		{"post", func(c *Controller) {
			c.PostArticle(context.Background(), api.ArticleInput{Title: "T", Text: "X", Topic: "Node"})
		}},
		{"update", func(c *Controller) {
			c.UpdateArticle(context.Background(), UpdateRequest{ArticleID: 1, Article: api.ArticleInput{Title: "T", Text: "X", Topic: "Node"}})
		}},
		{"delete", func(c *Controller) {
			c.DeleteArticle(context.Background(), 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "bogus"))

			tt.op(f.ctrl)

			_, ok := f.token(t)
			assert.False(t, ok)
			st := f.ctrl.State()
			assert.Equal(t, OutcomeUnauthorized, st.Outcome)
			assert.Empty(t, st.Message)
			assert.Equal(t, RouteLogin, st.Route)
			assert.Equal(t, []int{1, 2, 3}, f.backend.ArticleIDs())
		})
	}
}

func TestSelectArticle(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	f.ctrl.SelectArticle(2)
	st := f.ctrl.State()
	require.NotNil(t, st.SelectedID)
	assert.Equal(t, 2, *st.SelectedID)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "Hooks", st.Selected.Title)

	f.ctrl.SelectArticle(77)
	st = f.ctrl.State()
	require.NotNil(t, st.SelectedID)
	assert.Equal(t, 77, *st.SelectedID)
	assert.Nil(t, st.Selected)

	f.ctrl.ClearSelection()
	assert.Nil(t, f.ctrl.State().SelectedID)
}

func TestState_IsACopy(t *testing.T) {
	f := newFixture(t)
	f.loginAndList(t)

	st := f.ctrl.State()
	st.Articles[0].Title = "mutated by a view"

	assert.Equal(t, "Closures", f.ctrl.Articles()[0].Title)
}

// gatedServer answers each request only once its gate is released.
type gatedServer struct {
	started  chan int
	gates    []chan struct{}
	statuses []int
	bodies   []string
	n        atomic.Int32
}

// gated is one canned response.
type gated struct {
	status int
	body   string
}

func newGatedServer(t *testing.T, bodies ...string) (*gatedServer, *httptest.Server) {
	t.Helper()
	responses := make([]gated, 0, len(bodies))
	for _, b := range bodies {
		responses = append(responses, gated{http.StatusOK, b})
	}
	return newGatedServerWith(t, responses...)
}

func newGatedServerWith(t *testing.T, responses ...gated) (*gatedServer, *httptest.Server) {
	t.Helper()
	g := &gatedServer{started: make(chan int, len(responses))}
	for _, r := range responses {
		g.gates = append(g.gates, make(chan struct{}))
		g.statuses = append(g.statuses, r.status)
		g.bodies = append(g.bodies, r.body)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(g.n.Add(1)) - 1
		g.started <- i
		<-g.gates[i]
		w.WriteHeader(g.statuses[i])
		w.Write([]byte(g.bodies[i]))
	}))
	t.Cleanup(func() {
		for _, gate := range g.gates {
			select {
			case <-gate:
			default:
				close(gate)
			}
		}
		srv.Close()
	})
	return g, srv
}

func waitStarted(t *testing.T, g *gatedServer) int {
	t.Helper()
	select {
	case i := <-g.started:
		return i
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the server")
		return -1
	}
}

func TestBusy_DuringPendingRequest(t *testing.T) {
	tests := []struct {
		name        string
		response    gated
		wantMessage string
		wantOutcome Outcome
	}{
		{"success", gated{http.StatusOK, `{"message":"ok","articles":[]}`}, "ok", OutcomeSuccess},
		{"server error", gated{http.StatusInternalServerError, `{"message":"boom"}`}, MsgFetchFailed, OutcomeFailed},
		{"rejected token", gated{http.StatusUnauthorized, `{"message":"no"}`}, "", OutcomeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, srv := newGatedServerWith(t, tt.response)
			f := newFixtureWithURL(t, srv.URL, nil)
			require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

			assert.False(t, f.ctrl.Busy(), "idle before invocation")

			done := make(chan struct{})
			go func() {
				f.ctrl.GetArticles(context.Background())
				close(done)
			}()

			waitStarted(t, g)
			assert.True(t, f.ctrl.Busy(), "busy while the request is pending")
			assert.Empty(t, f.ctrl.Message(), "message cleared when the operation starts")

			close(g.gates[0])
			<-done
			st := f.ctrl.State()
			assert.False(t, st.Busy, "idle after completion")
			assert.Equal(t, tt.wantMessage, st.Message)
			assert.Equal(t, tt.wantOutcome, st.Outcome)
		})
	}
}

func TestBusy_OverlappingOperations(t *testing.T) {
	g, srv := newGatedServer(t, `{"message":"first"}`, `{"message":"second"}`)
	f := newFixtureWithURL(t, srv.URL, nil)

	done := make(chan struct{}, 2)
	go func() {
		f.ctrl.DeleteArticle(context.Background(), 1)
		done <- struct{}{}
	}()
	first := waitStarted(t, g)

	go func() {
		f.ctrl.DeleteArticle(context.Background(), 2)
		done <- struct{}{}
	}()
	second := waitStarted(t, g)

	close(g.gates[first])
	<-done
	assert.True(t, f.ctrl.Busy(), "the second operation is still pending")

	close(g.gates[second])
	<-done
	assert.False(t, f.ctrl.Busy())
}

func TestGetArticles_StaleCompletionDiscarded(t *testing.T) {
	g, srv := newGatedServer(t,
		`{"message":"old","articles":[{"article_id":1,"title":"a","text":"a","topic":"Node"}]}`,
		`{"message":"new","articles":[{"article_id":2,"title":"b","text":"b","topic":"React"},{"article_id":3,"title":"c","text":"c","topic":"Node"}]}`,
	)
	f := newFixtureWithURL(t, srv.URL, nil)

	done := make(chan struct{})
	go func() {
		f.ctrl.GetArticles(context.Background())
		close(done)
	}()
	first := waitStarted(t, g)

	go func() {
		second := <-g.started
		close(g.gates[second])
	}()
	f.ctrl.GetArticles(context.Background())
	require.Equal(t, []int{2, 3}, ids(f.ctrl.Articles()))

	close(g.gates[first])
	<-done

	st := f.ctrl.State()
	assert.Equal(t, []int{2, 3}, ids(st.Articles), "older list must not overwrite the newer one")
	assert.Equal(t, "new", st.Message)
	assert.False(t, st.Busy)
}

func TestGetArticles_CompletionAfterSessionEnds(t *testing.T) {
	const list = `{"message":"Here are your articles, foo!","articles":[{"article_id":1,"title":"a","text":"a","topic":"Node"}]}`

	t.Run("logout", func(t *testing.T) {
		g, srv := newGatedServer(t, list)
		f := newFixtureWithURL(t, srv.URL, nil)
		require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

		done := make(chan struct{})
		go func() {
			f.ctrl.GetArticles(context.Background())
			close(done)
		}()
		waitStarted(t, g)

		f.ctrl.Logout(context.Background())
		close(g.gates[0])
		<-done

		st := f.ctrl.State()
		assert.Empty(t, st.Articles, "nothing of the previous user is shown")
		assert.Equal(t, MsgGoodbye, st.Message)
		assert.Equal(t, OutcomeSuccess, st.Outcome)
		assert.Equal(t, RouteLogin, st.Route)
		assert.False(t, st.Busy)
	})

	t.Run("token rejected by another call", func(t *testing.T) {
		g, srv := newGatedServerWith(t,
			gated{http.StatusOK, list},
			gated{http.StatusUnauthorized, `{"message":"Token required"}`},
		)
		f := newFixtureWithURL(t, srv.URL, nil)
		require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

		done := make(chan struct{})
		go func() {
			f.ctrl.GetArticles(context.Background())
			close(done)
		}()
		first := waitStarted(t, g)

		go func() {
			second := <-g.started
			close(g.gates[second])
		}()
		f.ctrl.DeleteArticle(context.Background(), 1)
		require.Equal(t, OutcomeUnauthorized, f.ctrl.State().Outcome)

		close(g.gates[first])
		<-done

		st := f.ctrl.State()
		assert.Empty(t, st.Articles)
		assert.Empty(t, st.Message)
		assert.Equal(t, OutcomeUnauthorized, st.Outcome)
		assert.Equal(t, RouteLogin, st.Route)
	})
}

func TestMutations_CompletionAfterLogout(t *testing.T) {
	tests := []struct {
		name     string
		response gated
		op       func(c *Controller)
	}{
		{"post accepted", gated{http.StatusCreated, `{"message":"Well done","article":{"article_id":9,"title":"T","text":"X","topic":"Node"}}`}, func(c *Controller) {
			c.PostArticle(context.Background(), api.ArticleInput{Title: "T", Text: "X", Topic: "Node"})
		}},
		{"delete failed", gated{http.StatusInternalServerError, `{}`}, func(c *Controller) {
			c.DeleteArticle(context.Background(), 1)
		}},
		{"update rejected token", gated{http.StatusUnauthorized, `{}`}, func(c *Controller) {
			c.UpdateArticle(context.Background(), UpdateRequest{ArticleID: 1, Article: api.ArticleInput{Title: "T", Text: "X", Topic: "Node"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, srv := newGatedServerWith(t, tt.response)
			f := newFixtureWithURL(t, srv.URL, nil)
			require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

			done := make(chan struct{})
			go func() {
				tt.op(f.ctrl)
				close(done)
			}()
			waitStarted(t, g)

			f.ctrl.Logout(context.Background())
			close(g.gates[0])
			<-done

			st := f.ctrl.State()
			assert.Empty(t, st.Articles)
			assert.Equal(t, MsgGoodbye, st.Message)
			assert.Equal(t, OutcomeSuccess, st.Outcome)
			assert.Equal(t, RouteLogin, st.Route)
			assert.False(t, st.Busy)
		})
	}
}

func TestPostArticle_ResponseWithoutArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Well done, foo. Great article!"}`))
	}))
	defer srv.Close()
	f := newFixtureWithURL(t, srv.URL, nil)
	require.NoError(t, f.store.Set(context.Background(), credstore.TokenKey, "tok"))

	f.ctrl.PostArticle(context.Background(), api.ArticleInput{Title: "T", Text: "X", Topic: "Node"})

	st := f.ctrl.State()
	assert.Empty(t, st.Articles, "no placeholder article is appended")
	assert.Equal(t, MsgPostFailed, st.Message)
	assert.Equal(t, OutcomeFailed, st.Outcome)
	assert.False(t, st.Busy)
}

type failingStore struct {
	credstore.Store
	err error
}

func (s failingStore) Get(context.Context, string) (string, bool, error) { return "", false, s.err }
func (s failingStore) Set(context.Context, string, string) error         { return s.err }
func (s failingStore) Remove(context.Context, string) error              { return s.err }

func TestStoreErrors(t *testing.T) {
	backend := fakeapi.New(fakeapi.Config{})
	srv := httptest.NewServer(backend)
	defer srv.Close()

	ctrl := New(api.New(srv.URL+"/api"), failingStore{err: errors.New("disk full")})
	ctx := context.Background()

	ctrl.Login(ctx, api.Credentials{Username: "foo", Password: fakeapi.DefaultPassword})
	assert.Equal(t, MsgLoginFailed, ctrl.Message())
	assert.Equal(t, RouteLogin, ctrl.State().Route)

	ctrl.GetArticles(ctx)
	assert.Equal(t, MsgFetchFailed, ctrl.Message())

	ctrl.Logout(ctx)
	assert.Equal(t, MsgGoodbye, ctrl.Message())
	assert.False(t, ctrl.Authenticated(ctx))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "none", OutcomeNone.String())
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unauthorized", OutcomeUnauthorized.String())
}
