// Package sweep discovers due scheduled merges and executes them. One
// sweep is a single sequential pass; a failing PR never blocks the
// rest, and failed items stay scheduled for the next sweep.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/markshust/pr-merge-scheduler/internal/github"
	"github.com/markshust/pr-merge-scheduler/internal/schedule"
)

// Messages posted to the PR thread on merge outcomes.
const (
	msgMerged           = "✅ Successfully merged as scheduled!"
	msgNotFound         = "❌ Failed to merge PR: PR not found or you may not have permission to merge."
	msgNotMergeable     = "❌ Failed to merge PR: PR is not mergeable. There might be conflicts."
	msgBranchProtection = "❌ Failed to merge PR: PR is no longer mergeable. Please check branch protection rules."
)

// Sweeper executes one discovery-and-merge pass
type Sweeper struct {
	client github.Client
	store  *schedule.Store
	log    zerolog.Logger

	now func() time.Time
}

// NewSweeper creates a sweeper over the given host client and store
func NewSweeper(client github.Client, store *schedule.Store, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		client: client,
		store:  store,
		log:    log.With().Str("component", "sweep").Logger(),
		now:    time.Now,
	}
}

// Sweep lists all scheduled merges and attempts every one whose
// instant has passed. Only a failure to enumerate the schedules at all
// is returned; per-PR failures are logged and isolated.
func (s *Sweeper) Sweep(ctx context.Context) error {
	scheduled, err := s.store.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("sweep aborted: %w", err)
	}

	now := s.now()
	var merged, failed, pending int

	for _, item := range scheduled {
		log := s.log.With().
			Str("repo", item.Owner+"/"+item.Repo).
			Int("pr", item.Number).
			Time("schedule_at", item.ScheduleInstant).
			Logger()

		if item.ScheduleInstant.After(now) {
			pending++
			log.Debug().Msg("schedule not yet due")
			continue
		}

		if err := s.attemptMerge(ctx, item); err != nil {
			failed++
			log.Error().Err(err).Msg("merge attempt failed; will retry next sweep")
			continue
		}

		merged++
		log.Info().Msg("merged as scheduled")
	}

	s.log.Info().
		Int("scheduled", len(scheduled)).
		Int("merged", merged).
		Int("failed", failed).
		Int("pending", pending).
		Msg("sweep complete")

	return nil
}

// attemptMerge drives one PR through the merge state machine:
// fetch mergeability, merge with the squash strategy, then clear all
// schedule state. Every terminal failure is reported to the PR thread
// and leaves the schedule in place.
func (s *Sweeper) attemptMerge(ctx context.Context, item schedule.ScheduledMerge) error {
	pr, err := s.client.GetPullRequest(ctx, item.Owner, item.Repo, item.Number)
	if err != nil {
		if github.IsNotFound(err) {
			s.report(ctx, item, msgNotFound)
			return fmt.Errorf("pull request not found: %w", err)
		}
		return fmt.Errorf("failed to fetch pull request: %w", err)
	}

	if !pr.Mergeable {
		s.report(ctx, item, msgNotMergeable)
		return fmt.Errorf("pull request is not mergeable")
	}

	if err := s.client.MergePullRequest(ctx, item.Owner, item.Repo, item.Number); err != nil {
		s.report(ctx, item, classifyMergeError(err))
		return fmt.Errorf("merge rejected: %w", err)
	}

	s.report(ctx, item, msgMerged)

	if err := s.store.Remove(ctx, item.Owner, item.Repo, item.Number); err != nil {
		// The merge itself succeeded; the leftover label clears itself
		// from discovery once the PR is no longer open.
		s.log.Warn().Err(err).
			Str("repo", item.Owner+"/"+item.Repo).
			Int("pr", item.Number).
			Msg("failed to clear schedule state after merge")
	}

	return nil
}

// classifyMergeError maps a host merge rejection to its user-facing message
func classifyMergeError(err error) string {
	switch {
	case github.IsNotMergeable(err):
		return msgBranchProtection
	case github.IsNotFound(err):
		return msgNotFound
	default:
		return "❌ " + github.ErrorMessage(err)
	}
}

func (s *Sweeper) report(ctx context.Context, item schedule.ScheduledMerge, body string) {
	if err := s.client.CreateIssueComment(ctx, item.Owner, item.Repo, item.Number, body); err != nil {
		s.log.Warn().Err(err).
			Str("repo", item.Owner+"/"+item.Repo).
			Int("pr", item.Number).
			Msg("failed to post outcome comment")
	}
}
