// Package timeparse validates free-text schedule expressions of the
// form "YYYY-MM-DD HH:mm[AM|PM]" interpreted in an IANA timezone.
package timeparse

import (
	"strings"
	"time"
)

// Window is the furthest ahead a merge may be scheduled.
const Window = 30 * 24 * time.Hour

// Parse failure reasons, surfaced verbatim to the user.
const (
	ReasonMissingDateTime = "Date and time must be provided"
	ReasonBadTime         = "Invalid time format"
	ReasonBadDate         = "Invalid date format"
	ReasonNotFuture       = "Scheduled time must be in the future"
	ReasonBeyondWindow    = "Cannot schedule more than 30 days in advance"
)

// ParseError describes why a schedule expression was rejected
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "Invalid date/time format: " + e.Reason
}

// Parse interprets text as a calendar date plus wall-clock time in the
// given IANA timezone and returns the resulting instant, expressed in
// that timezone's location. The instant must lie strictly after now
// and no more than 30 days ahead.
//
// Lexical checks run before range checks, so a malformed date or time
// never produces a future/window error.
func Parse(text, timezone string, now time.Time) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return time.Time{}, &ParseError{Reason: ReasonMissingDateTime}
	}

	dateToken := fields[0]

	// The time may arrive split before its AM/PM marker ("2:30 PM");
	// rejoin before matching.
	timeToken := strings.ToUpper(strings.Join(fields[1:], ""))

	hour, minute, ok := scanTime(timeToken)
	if !ok {
		return time.Time{}, &ParseError{Reason: ReasonBadTime}
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, &ParseError{Reason: ReasonBadDate}
	}

	day, err := time.ParseInLocation("2006-01-02", dateToken, loc)
	if err != nil {
		return time.Time{}, &ParseError{Reason: ReasonBadDate}
	}

	instant := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

	if !instant.After(now) {
		return time.Time{}, &ParseError{Reason: ReasonNotFuture}
	}
	if instant.After(now.Add(Window)) {
		return time.Time{}, &ParseError{Reason: ReasonBeyondWindow}
	}

	return instant, nil
}

// scanTime validates a normalized (whitespace-stripped, upper-cased)
// time token of shape H:MM or HH:MM with an optional AM/PM suffix and
// returns the 24-hour clock components.
func scanTime(token string) (hour, minute int, ok bool) {
	meridiem := ""
	if strings.HasSuffix(token, "AM") || strings.HasSuffix(token, "PM") {
		meridiem = token[len(token)-2:]
		token = token[:len(token)-2]
	}

	// One or two hour digits.
	i := 0
	for i < len(token) && isDigit(token[i]) {
		i++
	}
	if i < 1 || i > 2 {
		return 0, 0, false
	}
	hour = atoi(token[:i])

	// Exactly ":MM" remains.
	rest := token[i:]
	if len(rest) != 3 || rest[0] != ':' || !isDigit(rest[1]) || !isDigit(rest[2]) {
		return 0, 0, false
	}
	minute = atoi(rest[1:])

	if minute > 59 {
		return 0, 0, false
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if meridiem == "AM" {
			if hour == 12 {
				hour = 0
			}
		} else if hour != 12 {
			hour += 12
		}
	} else if hour > 23 {
		return 0, 0, false
	}

	return hour, minute, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// atoi converts an all-digit string already bounds-checked by the caller
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
