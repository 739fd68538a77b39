package moltbook

// Author is the post author as the feed and search endpoints render it.
type Author struct {
	Username string `json:"username"`
}

// Post is a content item as observed from the API. The agent never mutates
// its copy; it only issues commands referencing the ID.
type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Author  Author `json:"author"`
	Submolt string `json:"submolt"`
}

// Profile is the authenticated agent's own account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type postList struct {
	Posts []Post `json:"posts"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type createPostRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Submolt string `json:"submolt"`
}
