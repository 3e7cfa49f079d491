package github

import "time"

// IssueComment represents a comment on a pull request thread
type IssueComment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult represents one pull request returned by an issue search
type SearchResult struct {
	Number        int    `json:"number"`
	RepositoryURL string `json:"repository_url"`
}

// PullRequest represents the merge-relevant details of a pull request
type PullRequest struct {
	Number    int    `json:"number"`
	State     string `json:"state"`
	Mergeable bool   `json:"mergeable"`
}
