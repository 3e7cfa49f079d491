package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client defines the interface for all repository host operations
type Client interface {
	// GetIssueComment fetches a single comment by id
	GetIssueComment(ctx context.Context, owner, repo string, commentID int64) (*IssueComment, error)

	// ListIssueComments fetches all comments on a PR thread, oldest first
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*IssueComment, error)

	// CreateIssueComment posts a comment on a PR thread
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error

	// DeleteIssueComment deletes a comment by id
	DeleteIssueComment(ctx context.Context, owner, repo string, commentID int64) error

	// AddLabel attaches a label to a PR
	AddLabel(ctx context.Context, owner, repo string, number int, label string) error

	// RemoveLabel detaches a label from a PR
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error

	// GetPermissionLevel returns the collaborator permission level
	// (admin/write/read/none) of a user on a repository
	GetPermissionLevel(ctx context.Context, owner, repo, username string) (string, error)

	// SearchOpenPRsWithLabel finds all open pull requests carrying a label,
	// across every repository the token can see
	SearchOpenPRsWithLabel(ctx context.Context, label string) ([]*SearchResult, error)

	// GetPullRequest fetches merge-relevant PR details
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)

	// MergePullRequest merges a PR with the squash strategy
	MergePullRequest(ctx context.Context, owner, repo string, number int) error
}

// ClientImpl is the concrete implementation using go-github
type ClientImpl struct {
	client *github.Client
}

// NewClient creates a new GitHub API client
func NewClient(token, ghHost string) (Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token is required")
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	// Create GitHub client (enterprise or default)
	var ghClient *github.Client
	var err error

	if ghHost != "" {
		baseURL := "https://" + ghHost
		uploadURL := "https://" + ghHost

		ghClient, err = github.NewClient(tc).WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub Enterprise client for %s: %w", ghHost, err)
		}
	} else {
		ghClient = github.NewClient(tc)
	}

	return &ClientImpl{client: ghClient}, nil
}

// GetIssueComment fetches a single comment by id
func (c *ClientImpl) GetIssueComment(ctx context.Context, owner, repo string, commentID int64) (*IssueComment, error) {
	comment, _, err := c.client.Issues.GetComment(ctx, owner, repo, commentID)
	if err != nil {
		return nil, err
	}

	return &IssueComment{
		ID:        comment.GetID(),
		Author:    comment.GetUser().GetLogin(),
		Body:      comment.GetBody(),
		CreatedAt: comment.GetCreatedAt().Time,
	}, nil
}

// ListIssueComments fetches all comments on a PR thread, oldest first
func (c *ClientImpl) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var allComments []*IssueComment
	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}

		for _, comment := range comments {
			allComments = append(allComments, &IssueComment{
				ID:        comment.GetID(),
				Author:    comment.GetUser().GetLogin(),
				Body:      comment.GetBody(),
				CreatedAt: comment.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// CreateIssueComment posts a comment on a PR thread
func (c *ClientImpl) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{
		Body: github.String(body),
	}

	_, _, err := c.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	return err
}

// DeleteIssueComment deletes a comment by id
func (c *ClientImpl) DeleteIssueComment(ctx context.Context, owner, repo string, commentID int64) error {
	_, err := c.client.Issues.DeleteComment(ctx, owner, repo, commentID)
	return err
}

// AddLabel attaches a label to a PR
func (c *ClientImpl) AddLabel(ctx context.Context, owner, repo string, number int, label string) error {
	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, owner, repo, number, []string{label})
	return err
}

// RemoveLabel detaches a label from a PR
func (c *ClientImpl) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	_, err := c.client.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)
	return err
}

// GetPermissionLevel returns the collaborator permission level of a user
func (c *ClientImpl) GetPermissionLevel(ctx context.Context, owner, repo, username string) (string, error) {
	perm, _, err := c.client.Repositories.GetPermissionLevel(ctx, owner, repo, username)
	if err != nil {
		return "", err
	}
	return perm.GetPermission(), nil
}

// SearchOpenPRsWithLabel finds all open pull requests carrying a label
func (c *ClientImpl) SearchOpenPRsWithLabel(ctx context.Context, label string) ([]*SearchResult, error) {
	query := fmt.Sprintf("is:pr is:open label:%s", label)
	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var results []*SearchResult
	for {
		found, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, err
		}

		for _, issue := range found.Issues {
			results = append(results, &SearchResult{
				Number:        issue.GetNumber(),
				RepositoryURL: issue.GetRepositoryURL(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return results, nil
}

// GetPullRequest fetches merge-relevant PR details
func (c *ClientImpl) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	return &PullRequest{
		Number:    pr.GetNumber(),
		State:     pr.GetState(),
		Mergeable: pr.GetMergeable(),
	}, nil
}

// MergePullRequest merges a PR with the squash strategy
func (c *ClientImpl) MergePullRequest(ctx context.Context, owner, repo string, number int) error {
	opts := &github.PullRequestOptions{
		MergeMethod: "squash",
	}

	_, _, err := c.client.PullRequests.Merge(ctx, owner, repo, number, "", opts)
	return err
}
