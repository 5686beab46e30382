package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// CleanText normalises to NFC, collapses whitespace runs to single spaces and
// removes the space the feed leaves before commas.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(strings.ReplaceAll(s, " ,", ","))
}

// DaysOld parses a feed date (month first, e.g. 03/14/2024) as midnight in
// now's location and returns whole days elapsed until now. Days are counted on
// wall-clock time so DST shifts do not change the result.
func DaysOld(date string, now time.Time) (time.Time, int, error) {
	if date == "" {
		return time.Time{}, 0, fmt.Errorf("empty date")
	}
	loc := now.Location()
	t, err := dateparse.ParseIn(date, loc)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	added := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	wallAdded := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	wallNow := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	return added, int(wallNow.Sub(wallAdded) / (24 * time.Hour)), nil
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON integer, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		// Non-numeric tap labels sort first.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}
