package models

import "time"

// Metrics holds the public engagement counters of a post at fetch time.
type Metrics struct {
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
	Shares  int `json:"shares"`
	Quotes  int `json:"quotes"`
}

// Total returns the combined engagement used for ranking example posts.
func (m Metrics) Total() int {
	return m.Likes + m.Replies + m.Shares + m.Quotes
}

// Post is a single social-media mention as fetched from a source.
// Immutable once fetched; later pipeline stages annotate copies, never
// mutate the original.
type Post struct {
	ID              string    `json:"id"`
	AuthorHandle    string    `json:"author_handle"`
	AuthorFollowers int       `json:"author_followers"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"created_at"`
	Metrics         Metrics   `json:"metrics"`
	ParentID        string    `json:"parent_id,omitempty"`
	URL             string    `json:"url,omitempty"`
	Source          string    `json:"source,omitempty"`
}

// ClassifiedPost is a Post plus the analysis fields produced by the
// classifier, with the token usage of the call that produced them.
type ClassifiedPost struct {
	Post           Post           `json:"post"`
	Classification Classification `json:"classification"`
	Tokens         TokenUsage     `json:"tokens"`
	FromCache      bool           `json:"from_cache,omitempty"`
}

// TokenUsage records the upstream token counts attributed to one post.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}
