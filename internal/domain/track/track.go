// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"
)

// Track represents a single playable item from the Jamendo catalog.
// Contains only information retrieved from the API; immutable once fetched.
type Track struct {
	ID          string        // Jamendo track ID
	Name        string        // Track name
	Artist      string        // Artist name
	Album       string        // Album name
	Audio       string        // Audio stream URL
	ImageURL    string        // Cover art URL
	Duration    time.Duration // Duration as reported by the API
	ReleaseDate string        // Release date in YYYY-MM-DD form
}

// FormatDuration renders a second count as m:ss for display.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormattedDuration returns the track duration as m:ss.
func (t *Track) FormattedDuration() string {
	return FormatDuration(t.Duration.Seconds())
}

// FormattedReleaseDate returns the release date in "Jan 2, 2006" form.
// Returns an empty string when the date is absent or unparsable.
func (t *Track) FormattedReleaseDate() string {
	if t.ReleaseDate == "" {
		return ""
	}
	d, err := time.Parse("2006-01-02", t.ReleaseDate)
	if err != nil {
		return ""
	}
	return d.Format("Jan 2, 2006")
}
