package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, s *Server, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec, out := doJSON(t, s, http.MethodPost, "/api/login", "", `{"username":"foo","password":"Password1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	return out["token"].(string)
}

func TestLogin(t *testing.T) {
	s := New(Config{})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"username":"foo","password":"Password1234"}`, http.StatusOK},
		{"wrong password", `{"username":"foo","password":"nope"}`, http.StatusUnauthorized},
		{"short username", `{"username":"fo","password":"Password1234"}`, http.StatusUnauthorized},
		{"malformed", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := doJSON(t, s, http.MethodPost, "/api/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotEmpty(t, out["message"])
			if tt.wantCode == http.StatusOK {
				assert.NotEmpty(t, out["token"])
			} else {
				assert.Nil(t, out["token"])
			}
		})
	}
}

func TestArticlesRequireToken(t *testing.T) {
	s := New(Config{})

	rec, out := doJSON(t, s, http.MethodGet, "/api/articles", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Ouch: token required", out["message"])

	rec, _ = doJSON(t, s, http.MethodGet, "/api/articles", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := New(Config{Secret: "different"})
	foreign, err := other.IssueToken("foo")
	require.NoError(t, err)
	rec, _ = doJSON(t, s, http.MethodGet, "/api/articles", foreign, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	s := New(Config{TokenTTL: -time.Minute})
	token, err := s.IssueToken("foo")
	require.NoError(t, err)

	rec, _ := doJSON(t, s, http.MethodGet, "/api/articles", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCRUD(t *testing.T) {
	s := New(Config{})
	token := login(t, s)

	rec, out := doJSON(t, s, http.MethodGet, "/api/articles", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["articles"], 3)

	rec, out = doJSON(t, s, http.MethodPost, "/api/articles", token, `{"title":"T","text":"X","topic":"Node"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := out["article"].(map[string]any)
	assert.Equal(t, float64(4), created["article_id"])
	assert.Equal(t, []int{1, 2, 3, 4}, s.ArticleIDs())

	rec, _ = doJSON(t, s, http.MethodPut, "/api/articles/2", token, `{"title":"New","text":"Body","topic":"React"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = doJSON(t, s, http.MethodDelete, "/api/articles/3", token, `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out["message"], "Article 3 was deleted")
	assert.Equal(t, []int{1, 2, 4}, s.ArticleIDs())

	rec, _ = doJSON(t, s, http.MethodDelete, "/api/articles/3", token, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, s, http.MethodPut, "/api/articles/abc", token, `{"title":"a","text":"b","topic":"Node"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.Reset()
	assert.Equal(t, []int{1, 2, 3}, s.ArticleIDs())
}

func TestValidation(t *testing.T) {
	s := New(Config{})
	token := login(t, s)

	tests := []struct {
		name string
		body string
	}{
		{"blank title", `{"title":"  ","text":"X","topic":"Node"}`},
		{"missing text", `{"title":"T","topic":"Node"}`},
		{"unknown topic", `{"title":"T","text":"X","topic":"Go"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := doJSON(t, s, http.MethodPost, "/api/articles", token, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, out["message"])
		})
	}
	assert.Equal(t, []int{1, 2, 3}, s.ArticleIDs())
}
