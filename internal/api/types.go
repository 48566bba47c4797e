package api

// Article is a server-side article as returned by the articles endpoints.
type Article struct {
	ID    int    `json:"article_id" yaml:"article_id"`
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
	Topic string `json:"topic" yaml:"topic"`
}

// ArticleInput is the request body for creating or updating an article.
type ArticleInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ListResponse is the body of a successful GET /articles.
type ListResponse struct {
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// CreateResponse is the body of a successful POST /articles.
type CreateResponse struct {
	Message string  `json:"message"`
	Article Article `json:"article"`
}

// MessageResponse is the body of update and delete responses, and of most
// error responses.
type MessageResponse struct {
	Message string `json:"message"`
}
