// Package githubtest provides an in-memory fake of the host client for
// package tests.
package githubtest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"

	"github.com/markshust/pr-merge-scheduler/internal/github"
)

// FakeClient is a stateful in-memory github.Client. Zero value is not
// usable; construct with NewFakeClient.
type FakeClient struct {
	Comments    map[string][]*github.IssueComment
	Labels      map[string][]string
	Permissions map[string]string
	PRs         map[string]*github.PullRequest

	// Merged records the keys of successfully merged PRs in order.
	Merged []string

	// Error injection per operation. A nil map entry means success.
	ListCommentsErr map[string]error
	MergeErr        map[string]error
	GetPRErr        map[string]error
	SearchErr       error
	PermissionErr   error
	CreateErr       error

	// SearchResults overrides label-derived search results when set,
	// allowing malformed repository references in tests.
	SearchResults []*github.SearchResult

	nextCommentID int64
}

// NewFakeClient creates an empty fake host
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Comments:        make(map[string][]*github.IssueComment),
		Labels:          make(map[string][]string),
		Permissions:     make(map[string]string),
		PRs:             make(map[string]*github.PullRequest),
		ListCommentsErr: make(map[string]error),
		MergeErr:        make(map[string]error),
		GetPRErr:        make(map[string]error),
	}
}

// Key builds the map key identifying a PR
func Key(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

// NotFoundErr builds a go-github 404 error response
func NotFoundErr() error {
	return &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  "Not Found",
	}
}

// NotMergeableErr builds a go-github 405 error response
func NotMergeableErr() error {
	return &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusMethodNotAllowed},
		Message:  "Pull Request is not mergeable",
	}
}

func (f *FakeClient) GetIssueComment(_ context.Context, _, _ string, commentID int64) (*github.IssueComment, error) {
	for _, comments := range f.Comments {
		for _, c := range comments {
			if c.ID == commentID {
				return c, nil
			}
		}
	}
	return nil, NotFoundErr()
}

func (f *FakeClient) ListIssueComments(_ context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	key := Key(owner, repo, number)
	if err := f.ListCommentsErr[key]; err != nil {
		return nil, err
	}
	out := append([]*github.IssueComment(nil), f.Comments[key]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeClient) CreateIssueComment(_ context.Context, owner, repo string, number int, body string) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	key := Key(owner, repo, number)
	f.nextCommentID++
	f.Comments[key] = append(f.Comments[key], &github.IssueComment{
		ID:        f.nextCommentID,
		Author:    "scheduler[bot]",
		Body:      body,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *FakeClient) DeleteIssueComment(_ context.Context, _, _ string, commentID int64) error {
	for key, comments := range f.Comments {
		for i, c := range comments {
			if c.ID == commentID {
				f.Comments[key] = append(comments[:i:i], comments[i+1:]...)
				return nil
			}
		}
	}
	return NotFoundErr()
}

// AddComment seeds a comment with an explicit author and returns its id
func (f *FakeClient) AddComment(owner, repo string, number int, author, body string) int64 {
	key := Key(owner, repo, number)
	f.nextCommentID++
	f.Comments[key] = append(f.Comments[key], &github.IssueComment{
		ID:        f.nextCommentID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now(),
	})
	return f.nextCommentID
}

func (f *FakeClient) AddLabel(_ context.Context, owner, repo string, number int, label string) error {
	key := Key(owner, repo, number)
	for _, l := range f.Labels[key] {
		if l == label {
			return nil
		}
	}
	f.Labels[key] = append(f.Labels[key], label)
	return nil
}

func (f *FakeClient) RemoveLabel(_ context.Context, owner, repo string, number int, label string) error {
	key := Key(owner, repo, number)
	for i, l := range f.Labels[key] {
		if l == label {
			f.Labels[key] = append(f.Labels[key][:i:i], f.Labels[key][i+1:]...)
			return nil
		}
	}
	return NotFoundErr()
}

func (f *FakeClient) GetPermissionLevel(_ context.Context, _, _, username string) (string, error) {
	if f.PermissionErr != nil {
		return "", f.PermissionErr
	}
	level, ok := f.Permissions[username]
	if !ok {
		return "none", nil
	}
	return level, nil
}

func (f *FakeClient) SearchOpenPRsWithLabel(_ context.Context, label string) ([]*github.SearchResult, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if f.SearchResults != nil {
		return f.SearchResults, nil
	}

	var keys []string
	for key, labels := range f.Labels {
		for _, l := range labels {
			if l == label {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)

	var results []*github.SearchResult
	for _, key := range keys {
		owner, repo, number := splitKey(key)
		if pr, ok := f.PRs[key]; ok && pr.State != "open" {
			continue
		}
		results = append(results, &github.SearchResult{
			Number:        number,
			RepositoryURL: fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo),
		})
	}
	return results, nil
}

func (f *FakeClient) GetPullRequest(_ context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	key := Key(owner, repo, number)
	if err := f.GetPRErr[key]; err != nil {
		return nil, err
	}
	pr, ok := f.PRs[key]
	if !ok {
		return nil, NotFoundErr()
	}
	return pr, nil
}

func (f *FakeClient) MergePullRequest(_ context.Context, owner, repo string, number int) error {
	key := Key(owner, repo, number)
	if err := f.MergeErr[key]; err != nil {
		return err
	}
	pr, ok := f.PRs[key]
	if !ok {
		return NotFoundErr()
	}
	pr.State = "closed"
	f.Merged = append(f.Merged, key)
	return nil
}

// splitKey reverses Key: "owner/repo#number".
func splitKey(key string) (owner, repo string, number int) {
	owner, rest, _ := strings.Cut(key, "/")
	repo, num, _ := strings.Cut(rest, "#")
	number, _ = strconv.Atoi(num)
	return owner, repo, number
}
