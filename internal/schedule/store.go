// Package schedule persists merge schedules as repository metadata: a
// fixed label plus a marker comment carrying a hidden JSON payload.
// The repository host is the system of record; nothing is stored
// locally.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/markshust/pr-merge-scheduler/internal/github"
)

// Label is the fixed label marking a PR as having a scheduled merge.
// It doubles as the discovery filter for the sweep.
const Label = "merge-scheduled"

// CommandMarker is the literal that opens every schedule command.
const CommandMarker = "@merge-at"

// Marker comment payload framing. Existing repositories already carry
// comments in this exact shape, so it must not change.
const (
	markerPrefix = "<!-- MERGE_SCHEDULE_INFO "
	markerSuffix = " -->"
	payloadType  = "merge-schedule-info"
)

var (
	errNoMarker      = errors.New("no schedule marker comment found")
	errBadPayload    = errors.New("schedule marker payload is not valid JSON")
	errBadScheduleAt = errors.New("schedule marker date does not parse")
)

type markerPayload struct {
	Type         string `json:"type"`
	ScheduleDate string `json:"scheduleDate"`
}

// ScheduledMerge is one discovered schedule
type ScheduledMerge struct {
	Owner           string
	Repo            string
	Number          int
	ScheduleInstant time.Time
}

// Store reads and writes schedule state through the repository host
type Store struct {
	client github.Client
	log    zerolog.Logger
}

// NewStore creates a schedule store backed by the given host client
func NewStore(client github.Client, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		log:    log.With().Str("component", "schedule").Logger(),
	}
}

// Store attaches the schedule label and posts the marker comment. The
// caller is responsible for removing any prior schedule first so that
// at most one marker comment and label exist per PR.
func (s *Store) Store(ctx context.Context, owner, repo string, number int, instant time.Time, localDisplay, utcDisplay, timezone string) error {
	if err := s.client.AddLabel(ctx, owner, repo, number, Label); err != nil {
		return fmt.Errorf("failed to add schedule label: %w", err)
	}

	if err := s.client.CreateIssueComment(ctx, owner, repo, number, MarkerComment(instant, localDisplay, utcDisplay, timezone)); err != nil {
		return fmt.Errorf("failed to post schedule comment: %w", err)
	}

	return nil
}

// Remove clears all schedule state from a PR: the label ("label not
// found" counts as success) and every marker comment. Safe to call
// when no schedule exists.
func (s *Store) Remove(ctx context.Context, owner, repo string, number int) error {
	if err := s.client.RemoveLabel(ctx, owner, repo, number, Label); err != nil && !github.IsNotFound(err) {
		return fmt.Errorf("failed to remove schedule label: %w", err)
	}

	comments, err := s.client.ListIssueComments(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}

	for _, comment := range comments {
		if !strings.Contains(comment.Body, markerPrefix) {
			continue
		}
		if err := s.client.DeleteIssueComment(ctx, owner, repo, comment.ID); err != nil {
			return fmt.Errorf("failed to delete schedule comment %d: %w", comment.ID, err)
		}
	}

	return nil
}

// ListScheduled discovers every open PR carrying the schedule label and
// decodes its marker comment. PRs with missing or malformed state are
// logged and skipped; one bad PR never aborts discovery of the rest.
// Only a failure of the search itself is returned as an error.
func (s *Store) ListScheduled(ctx context.Context) ([]ScheduledMerge, error) {
	results, err := s.client.SearchOpenPRsWithLabel(ctx, Label)
	if err != nil {
		return nil, fmt.Errorf("failed to search scheduled PRs: %w", err)
	}

	var scheduled []ScheduledMerge
	for _, result := range results {
		owner, repo, ok := splitRepositoryURL(result.RepositoryURL)
		if !ok {
			s.log.Warn().
				Str("repository_url", result.RepositoryURL).
				Int("pr", result.Number).
				Msg("skipping PR with malformed repository reference")
			continue
		}

		comments, err := s.client.ListIssueComments(ctx, owner, repo, result.Number)
		if err != nil {
			s.log.Warn().Err(err).
				Str("repo", owner+"/"+repo).
				Int("pr", result.Number).
				Msg("skipping PR: comment listing failed")
			continue
		}

		instant, err := markerInstant(comments)
		if err != nil {
			s.log.Warn().Err(err).
				Str("repo", owner+"/"+repo).
				Int("pr", result.Number).
				Msg("skipping PR without a decodable schedule marker")
			continue
		}

		scheduled = append(scheduled, ScheduledMerge{
			Owner:           owner,
			Repo:            repo,
			Number:          result.Number,
			ScheduleInstant: instant,
		})
	}

	return scheduled, nil
}

// LatestCommand returns the most recent comment containing the schedule
// command marker, or nil if none exists.
func (s *Store) LatestCommand(ctx context.Context, owner, repo string, number int) (*github.IssueComment, error) {
	comments, err := s.client.ListIssueComments(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	for i := len(comments) - 1; i >= 0; i-- {
		if strings.Contains(comments[i].Body, CommandMarker) {
			return comments[i], nil
		}
	}

	return nil, nil
}

// MarkerComment renders the full schedule comment body: the hidden
// machine-readable marker line followed by the human-readable schedule
// and cancellation instructions.
func MarkerComment(instant time.Time, localDisplay, utcDisplay, timezone string) string {
	payload, _ := json.Marshal(markerPayload{
		Type:         payloadType,
		ScheduleDate: instant.UTC().Format(time.RFC3339),
	})

	var b strings.Builder
	b.WriteString(markerPrefix)
	b.Write(payload)
	b.WriteString(markerSuffix)
	b.WriteString("\n")
	fmt.Fprintf(&b, "⏰ Merge scheduled for **%s (%s)**\n", localDisplay, timezone)
	fmt.Fprintf(&b, "🌐 %s UTC\n", utcDisplay)
	b.WriteString("\nTo cancel, comment `")
	b.WriteString(CommandMarker)
	b.WriteString(" cancel`.")
	return b.String()
}

// markerInstant locates the marker comment among the given comments and
// decodes its embedded schedule instant.
func markerInstant(comments []*github.IssueComment) (time.Time, error) {
	for _, comment := range comments {
		start := strings.Index(comment.Body, markerPrefix)
		if start < 0 {
			continue
		}

		rest := comment.Body[start+len(markerPrefix):]
		end := strings.Index(rest, markerSuffix)
		if end < 0 {
			return time.Time{}, errBadPayload
		}

		var payload markerPayload
		if err := json.Unmarshal([]byte(rest[:end]), &payload); err != nil || payload.Type != payloadType {
			return time.Time{}, errBadPayload
		}

		instant, err := time.Parse(time.RFC3339, payload.ScheduleDate)
		if err != nil {
			return time.Time{}, errBadScheduleAt
		}

		return instant, nil
	}

	return time.Time{}, errNoMarker
}

// splitRepositoryURL extracts owner and repo from an API repository URL
// such as "https://api.github.com/repos/octocat/hello".
func splitRepositoryURL(url string) (owner, repo string, ok bool) {
	const anchor = "/repos/"

	idx := strings.Index(url, anchor)
	if idx < 0 {
		return "", "", false
	}

	parts := strings.Split(url[idx+len(anchor):], "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	return parts[0], parts[1], true
}
