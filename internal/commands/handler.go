// Package commands interprets schedule and cancel commands issued as
// PR comments: it authorizes the author, validates the requested time,
// and drives the schedule store. Every failure becomes a posted
// comment; nothing is surfaced to the invoker except failures of the
// reporting channel itself.
package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/markshust/pr-merge-scheduler/internal/github"
	"github.com/markshust/pr-merge-scheduler/internal/schedule"
	"github.com/markshust/pr-merge-scheduler/internal/timeparse"
)

// User-facing messages posted to the PR thread.
const (
	msgPermissionDenied = "❌ Only users with write permission can schedule PR merges."
	msgCancelled        = "🚫 Scheduled merge has been cancelled."
	msgUsage            = "❌ Invalid command. Use: `@merge-at YYYY-MM-DD HH:mm [Timezone]` or `@merge-at cancel`"
	msgGenericError     = "❌ An error occurred while processing your command. Please try again."
)

const displayLayout = "2006-01-02 15:04"

// Handler processes one comment event on one pull request
type Handler struct {
	client github.Client
	store  *schedule.Store
	log    zerolog.Logger

	owner     string
	repo      string
	number    int
	commentID int64

	now func() time.Time
}

// NewHandler creates a handler bound to a single PR and triggering comment
func NewHandler(client github.Client, store *schedule.Store, log zerolog.Logger, owner, repo string, number int, commentID int64) *Handler {
	return &Handler{
		client:    client,
		store:     store,
		log:       log.With().Str("component", "commands").Logger(),
		owner:     owner,
		repo:      repo,
		number:    number,
		commentID: commentID,
		now:       time.Now,
	}
}

// HandleComment interprets the triggering comment. The returned error
// is non-nil only when posting the outcome comment itself fails.
func (h *Handler) HandleComment(ctx context.Context, commentBody string) error {
	comment, err := h.client.GetIssueComment(ctx, h.owner, h.repo, h.commentID)
	if err != nil {
		h.log.Error().Err(err).Int64("comment_id", h.commentID).Msg("failed to resolve comment author")
		return h.post(ctx, msgGenericError)
	}

	level, err := h.client.GetPermissionLevel(ctx, h.owner, h.repo, comment.Author)
	if err != nil || (level != "admin" && level != "write") {
		if err != nil {
			h.log.Error().Err(err).Str("user", comment.Author).Msg("permission lookup failed")
		} else {
			h.log.Info().Str("user", comment.Author).Str("level", level).Msg("permission denied")
		}
		return h.post(ctx, msgPermissionDenied)
	}

	cmd, ok := DetectCommand(commentBody)
	if !ok {
		return h.post(ctx, msgUsage)
	}

	if cmd.Cancel {
		if err := h.store.Remove(ctx, h.owner, h.repo, h.number); err != nil {
			h.log.Error().Err(err).Msg("failed to clear schedule on cancel")
			return h.post(ctx, msgGenericError)
		}
		h.log.Info().Str("user", comment.Author).Msg("schedule cancelled")
		return h.post(ctx, msgCancelled)
	}

	instant, err := timeparse.Parse(cmd.DateTime, cmd.Timezone, h.now())
	if err != nil {
		return h.post(ctx, "❌ "+err.Error())
	}

	// Remove-then-store keeps at most one schedule per PR. Both halves
	// are persistence, so their failures are reported verbatim.
	if err := h.store.Remove(ctx, h.owner, h.repo, h.number); err != nil {
		h.log.Error().Err(err).Msg("failed to clear prior schedule")
		return h.post(ctx, "❌ "+err.Error())
	}

	localDisplay := instant.Format(displayLayout)
	utcDisplay := instant.UTC().Format(displayLayout)

	if err := h.store.Store(ctx, h.owner, h.repo, h.number, instant, localDisplay, utcDisplay, cmd.Timezone); err != nil {
		h.log.Error().Err(err).Msg("failed to persist schedule")
		return h.post(ctx, "❌ "+err.Error())
	}

	h.log.Info().
		Str("user", comment.Author).
		Time("schedule_at", instant.UTC()).
		Str("timezone", cmd.Timezone).
		Msg("merge scheduled")

	return nil
}

func (h *Handler) post(ctx context.Context, body string) error {
	return h.client.CreateIssueComment(ctx, h.owner, h.repo, h.number, body)
}
