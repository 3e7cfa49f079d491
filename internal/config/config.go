package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration parsed from action inputs and environment
type Config struct {
	// GitHub API token for authentication
	GitHubToken string

	// Repository in format "owner/repo"
	Repository string

	// Pull request number (comment mode)
	PRNumber int

	// Comment id that triggered the event (comment mode)
	CommentID int64

	// Comment body text (comment mode)
	CommentBody string

	// Cron schedule for daemon mode (e.g. "*/5 * * * *")
	CronSchedule string

	// GitHub Enterprise Server hostname, empty for github.com
	GHHost string

	// Enable debug logging
	Debug bool
}

// FromEnv parses configuration from environment variables. Flags may
// override individual fields afterwards; validation happens per mode.
func FromEnv() *Config {
	cfg := &Config{
		GitHubToken:  os.Getenv("INPUT_GITHUB-TOKEN"),
		Repository:   os.Getenv("GITHUB_REPOSITORY"),
		CommentBody:  os.Getenv("INPUT_COMMENT-BODY"),
		CronSchedule: os.Getenv("INPUT_CRON-SCHEDULE"),
		GHHost:       os.Getenv("INPUT_GH-HOST"),
	}

	if prNumStr := os.Getenv("INPUT_PR-NUMBER"); prNumStr != "" {
		if prNum, err := strconv.Atoi(prNumStr); err == nil {
			cfg.PRNumber = prNum
		}
	}

	if idStr := os.Getenv("INPUT_COMMENT-ID"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.CommentID = id
		}
	}

	cfg.Debug = strings.EqualFold(os.Getenv("INPUT_DEBUG"), "true")

	return cfg
}

// ValidateComment checks the fields required by comment mode
func (c *Config) ValidateComment() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.Repository == "" {
		return errors.New("repository is required (GITHUB_REPOSITORY)\n" +
			"  → Action: This is automatically set by GitHub Actions\n" +
			"  → Outside Actions, pass --repository owner/repo")
	}
	if !strings.Contains(c.Repository, "/") {
		return fmt.Errorf("repository must be in format owner/repo, got: %s", c.Repository)
	}
	if c.PRNumber <= 0 {
		return errors.New("PR number must be positive (INPUT_PR-NUMBER)\n" +
			"  → Action: Set 'pr-number' input in your workflow file\n" +
			"  → Example: pr-number: ${{ github.event.issue.number }}")
	}
	if c.CommentID <= 0 {
		return errors.New("comment id must be positive (INPUT_COMMENT-ID)\n" +
			"  → Action: Set 'comment-id' input in your workflow file\n" +
			"  → Example: comment-id: ${{ github.event.comment.id }}")
	}
	if c.CommentBody == "" {
		return errors.New("comment body is required (INPUT_COMMENT-BODY)\n" +
			"  → Action: Set 'comment-body' input in your workflow file\n" +
			"  → Example: comment-body: ${{ github.event.comment.body }}")
	}
	return nil
}

// ValidateSweep checks the fields required by sweep and daemon mode
func (c *Config) ValidateSweep() error {
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.GitHubToken == "" {
		return errors.New("GitHub token is required (INPUT_GITHUB-TOKEN)\n" +
			"  → Action: Set 'github-token' input in your workflow file\n" +
			"  → Example: github-token: ${{ secrets.GITHUB_TOKEN }}")
	}
	return nil
}

// Owner returns the repository owner from Repository field
func (c *Config) Owner() string {
	parts := strings.Split(c.Repository, "/")
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

// Repo returns the repository name from Repository field
func (c *Config) Repo() string {
	parts := strings.Split(c.Repository, "/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
