package commands

import (
	"regexp"
	"strings"

	"github.com/markshust/pr-merge-scheduler/internal/schedule"
)

// schedulePattern matches the schedule command: the @merge-at marker,
// a YYYY-MM-DD date, an H:MM or HH:MM time with optional (possibly
// space-separated, case-insensitive) AM/PM, and an optional trailing
// IANA timezone token.
var schedulePattern = regexp.MustCompile(
	`(?i)@merge-at\s+(\d{4}-\d{2}-\d{2}\s+\d{1,2}:\d{2}(?:\s?[AP]M)?)(?:\s+([A-Za-z][A-Za-z0-9_/]*))?`)

// Command is a schedule or cancel request detected in a comment body
type Command struct {
	// Cancel is true for "@merge-at cancel"
	Cancel bool

	// DateTime is the raw date+time expression (empty for cancel)
	DateTime string

	// Timezone is the IANA timezone token, defaulting to UTC
	Timezone string
}

// DetectCommand detects a schedule or cancel command in a comment body.
// Returns (nil, false) when the body holds no recognizable command.
func DetectCommand(commentBody string) (*Command, bool) {
	if strings.Contains(commentBody, schedule.CommandMarker+" cancel") {
		return &Command{Cancel: true}, true
	}

	matches := schedulePattern.FindStringSubmatch(commentBody)
	if matches == nil {
		return nil, false
	}

	timezone := matches[2]
	if timezone == "" {
		timezone = "UTC"
	}

	return &Command{
		DateTime: matches[1],
		Timezone: timezone,
	}, true
}
