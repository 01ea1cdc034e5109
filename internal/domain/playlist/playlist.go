// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/jambox/internal/domain/track"

// Playlist represents an ordered track list. Insertion order is playback
// order. A playlist may be empty.
type Playlist struct {
	Tracks []track.Track
}

// New creates a playlist from an ordered track slice.
func New(tracks []track.Track) Playlist {
	return Playlist{Tracks: tracks}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.Tracks)
}

// IsEmpty returns true when the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return len(p.Tracks) == 0
}

// IndexOf returns the position of the track with the given ID, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ByID returns the track with the given ID.
func (p *Playlist) ByID(id string) (track.Track, bool) {
	i := p.IndexOf(id)
	if i < 0 {
		return track.Track{}, false
	}
	return p.Tracks[i], true
}

// First returns the first track of the playlist.
func (p *Playlist) First() (track.Track, bool) {
	if len(p.Tracks) == 0 {
		return track.Track{}, false
	}
	return p.Tracks[0], true
}

// Next returns the successor of the track with the given ID, wrapping to
// the first track past the end. An unknown ID yields the first track.
func (p *Playlist) Next(id string) (track.Track, bool) {
	if len(p.Tracks) == 0 {
		return track.Track{}, false
	}
	i := p.IndexOf(id) + 1
	if i >= len(p.Tracks) {
		i = 0
	}
	return p.Tracks[i], true
}

// Previous returns the predecessor of the track with the given ID, wrapping
// to the last track before the start. An unknown ID yields the last track.
func (p *Playlist) Previous(id string) (track.Track, bool) {
	if len(p.Tracks) == 0 {
		return track.Track{}, false
	}
	i := p.IndexOf(id) - 1
	if i < 0 {
		i = len(p.Tracks) - 1
	}
	return p.Tracks[i], true
}

// TrackIDs returns all track IDs in playlist order.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, t := range p.Tracks {
		total += int64(t.Duration.Seconds())
	}
	return total
}
