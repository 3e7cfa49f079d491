package schedule_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markshust/pr-merge-scheduler/internal/github"
	"github.com/markshust/pr-merge-scheduler/internal/github/githubtest"
	"github.com/markshust/pr-merge-scheduler/internal/schedule"
)

var instant = time.Date(2024, 1, 2, 19, 30, 0, 0, time.UTC)

func newStore(fake *githubtest.FakeClient) *schedule.Store {
	return schedule.NewStore(fake, zerolog.Nop())
}

func TestMarkerComment_Shape(t *testing.T) {
	body := schedule.MarkerComment(instant, "2024-01-02 14:30", "2024-01-02 19:30", "America/New_York")

	lines := strings.SplitN(body, "\n", 2)
	assert.Equal(t,
		`<!-- MERGE_SCHEDULE_INFO {"type":"merge-schedule-info","scheduleDate":"2024-01-02T19:30:00Z"} -->`,
		lines[0])
	assert.Contains(t, body, "2024-01-02 14:30")
	assert.Contains(t, body, "America/New_York")
	assert.Contains(t, body, "2024-01-02 19:30 UTC")
	assert.Contains(t, body, "`@merge-at cancel`")
}

func TestStore_AttachesLabelAndMarker(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)

	err := store.Store(context.Background(), "octo", "repo", 7, instant, "2024-01-02 19:30", "2024-01-02 19:30", "UTC")
	require.NoError(t, err)

	key := githubtest.Key("octo", "repo", 7)
	assert.Equal(t, []string{schedule.Label}, fake.Labels[key])
	require.Len(t, fake.Comments[key], 1)
	assert.Contains(t, fake.Comments[key][0].Body, "MERGE_SCHEDULE_INFO")
}

func TestRemove_Idempotent(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "octo", "repo", 7, instant, "x", "y", "UTC"))

	// First removal clears everything; second finds nothing and still
	// succeeds.
	require.NoError(t, store.Remove(ctx, "octo", "repo", 7))
	require.NoError(t, store.Remove(ctx, "octo", "repo", 7))

	key := githubtest.Key("octo", "repo", 7)
	assert.Empty(t, fake.Labels[key])
	assert.Empty(t, fake.Comments[key])
}

func TestRemove_DeletesOnlyMarkerComments(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)
	ctx := context.Background()

	fake.AddComment("octo", "repo", 7, "alice", "just a regular comment")
	require.NoError(t, store.Store(ctx, "octo", "repo", 7, instant, "x", "y", "UTC"))

	require.NoError(t, store.Remove(ctx, "octo", "repo", 7))

	key := githubtest.Key("octo", "repo", 7)
	require.Len(t, fake.Comments[key], 1)
	assert.Equal(t, "just a regular comment", fake.Comments[key][0].Body)
}

func TestListScheduled_RoundTrip(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)
	ctx := context.Background()

	fake.PRs[githubtest.Key("octo", "repo", 7)] = &github.PullRequest{Number: 7, State: "open", Mergeable: true}
	require.NoError(t, store.Store(ctx, "octo", "repo", 7, instant, "x", "y", "UTC"))

	scheduled, err := store.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	assert.Equal(t, "octo", scheduled[0].Owner)
	assert.Equal(t, "repo", scheduled[0].Repo)
	assert.Equal(t, 7, scheduled[0].Number)
	assert.True(t, scheduled[0].ScheduleInstant.Equal(instant))
}

func TestListScheduled_SkipsMalformedEntries(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)
	ctx := context.Background()

	// Good PR with a valid marker.
	require.NoError(t, store.Store(ctx, "octo", "good", 1, instant, "x", "y", "UTC"))

	// Labeled PR with no marker comment at all.
	fake.Labels[githubtest.Key("octo", "nomarker", 2)] = []string{schedule.Label}

	// Labeled PR whose marker payload is not valid JSON.
	fake.Labels[githubtest.Key("octo", "badjson", 3)] = []string{schedule.Label}
	fake.AddComment("octo", "badjson", 3, "bot", "<!-- MERGE_SCHEDULE_INFO {not json} -->")

	// Labeled PR whose embedded date does not parse.
	fake.Labels[githubtest.Key("octo", "baddate", 4)] = []string{schedule.Label}
	fake.AddComment("octo", "baddate", 4, "bot",
		`<!-- MERGE_SCHEDULE_INFO {"type":"merge-schedule-info","scheduleDate":"not-a-date"} -->`)

	// Labeled PR whose comment listing fails.
	fake.Labels[githubtest.Key("octo", "listfail", 5)] = []string{schedule.Label}
	fake.ListCommentsErr[githubtest.Key("octo", "listfail", 5)] = githubtest.NotFoundErr()

	scheduled, err := store.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "good", scheduled[0].Repo)
}

func TestListScheduled_SkipsMalformedRepositoryReference(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)

	fake.SearchResults = []*github.SearchResult{
		{Number: 1, RepositoryURL: "https://api.github.com/not-a-repo-url"},
		{Number: 2, RepositoryURL: ""},
	}

	scheduled, err := store.ListScheduled(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestListScheduled_SearchFailureIsFatal(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)

	fake.SearchErr = githubtest.NotFoundErr()

	_, err := store.ListScheduled(context.Background())
	assert.Error(t, err)
}

func TestLatestCommand(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)
	ctx := context.Background()

	fake.AddComment("octo", "repo", 7, "alice", "@merge-at 2024-01-02 14:30")
	fake.AddComment("octo", "repo", 7, "bob", "unrelated chatter")
	fake.AddComment("octo", "repo", 7, "alice", "@merge-at 2024-01-03 09:00 UTC")

	latest, err := store.LatestCommand(ctx, "octo", "repo", 7)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Contains(t, latest.Body, "2024-01-03 09:00")
}

func TestLatestCommand_NoneFound(t *testing.T) {
	fake := githubtest.NewFakeClient()
	store := newStore(fake)

	fake.AddComment("octo", "repo", 7, "bob", "no commands here")

	latest, err := store.LatestCommand(context.Background(), "octo", "repo", 7)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
