package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// IsNotFound reports whether an error is a GitHub API 404 response
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsNotMergeable reports whether an error is the 405 response GitHub
// returns when a merge is rejected (conflicts or branch protection)
func IsNotMergeable(err error) bool {
	return statusCode(err) == http.StatusMethodNotAllowed
}

// ErrorMessage extracts the host-reported message from a GitHub API
// error, falling back to the Go error text
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Message != "" {
		return errResp.Message
	}

	return err.Error()
}

func statusCode(err error) int {
	if err == nil {
		return 0
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}

	return 0
}
