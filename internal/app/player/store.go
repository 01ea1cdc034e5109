package player

import (
	"context"
	"strconv"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jambox/internal/domain/playlist"
	"github.com/osa030/jambox/internal/domain/track"
	"github.com/osa030/jambox/internal/infra/storage"
)

// DefaultVolume is the volume used when nothing has been persisted yet.
const DefaultVolume = 40

// Catalog retrieves the track list. Implemented by the Jamendo client.
type Catalog interface {
	FetchCatalog(ctx context.Context) playlist.Playlist
}

// Store owns the canonical playback state and mirrors a subset of it
// (track id, position, volume, status) to durable storage on every
// mutation. All mutations go through its methods; the controller and UI
// only read.
type Store struct {
	mu sync.RWMutex

	playlist  playlist.Playlist
	currentID string  // empty means "no current track"
	time      float64 // seconds into the current track
	volume    int     // 0-100
	status    Status

	catalog Catalog
	storage storage.Store
}

// NewStore creates a Store with the documented defaults: empty playlist,
// no current track, time 0, volume 40, status paused.
func NewStore(catalog Catalog, st storage.Store) *Store {
	return &Store{
		volume:  DefaultVolume,
		status:  StatusPaused,
		catalog: catalog,
		storage: st,
	}
}

// FetchPlaylist replaces the playlist wholesale with a fresh catalog fetch.
// The current track reference is not revalidated here; Restore and the
// controller re-resolve against the new playlist.
func (s *Store) FetchPlaylist(ctx context.Context) {
	pl := s.catalog.FetchCatalog(ctx)

	s.mu.Lock()
	s.playlist = pl
	s.mu.Unlock()

	zlog.Debug().Msgf("player: playlist replaced: tracks=%d", pl.Len())
}

// Restore loads persisted state from durable storage. A persisted track id
// that no longer resolves against the playlist is discarded. Malformed
// numeric values are ignored and leave the defaults in place. A persisted
// "play" status restores as paused: playback never resumes by itself.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.storage.Get(storage.KeyTrackID); ok && id != "" {
		if _, found := s.playlist.ByID(id); found {
			s.currentID = id
		} else {
			zlog.Debug().Msgf("player: persisted track %s not in playlist, discarding", id)
		}
	}

	if v, ok := s.storage.Get(storage.KeyTime); ok {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t >= 0 {
			s.time = t
		} else {
			zlog.Warn().Msgf("player: ignoring malformed persisted time %q", v)
		}
	}

	if v, ok := s.storage.Get(storage.KeyVolume); ok {
		if vol, err := strconv.Atoi(v); err == nil {
			s.volume = clampVolume(vol)
		} else {
			zlog.Warn().Msgf("player: ignoring malformed persisted volume %q", v)
		}
	}

	if v, ok := s.storage.Get(storage.KeyState); ok {
		if st, valid := ParseStatus(v); valid && st != StatusPlaying {
			s.status = st
		}
	}
}

// SetCurrentTrack selects a track, marks playback as started, and resets
// the position to the start of the track in both state and storage.
func (s *Store) SetCurrentTrack(t track.Track) {
	s.mu.Lock()
	s.currentID = t.ID
	s.status = StatusPlaying
	s.time = 0
	s.mu.Unlock()

	s.persist(storage.KeyTrackID, t.ID)
	s.persist(storage.KeyTime, "0")
	s.persist(storage.KeyState, StatusPlaying.String())
}

// Pause marks playback paused. Position and volume are left untouched.
func (s *Store) Pause() {
	s.mu.Lock()
	s.status = StatusPaused
	s.mu.Unlock()

	s.persist(storage.KeyState, StatusPaused.String())
}

// Stop marks playback stopped and resets the position to the track start.
func (s *Store) Stop() {
	s.mu.Lock()
	s.status = StatusStopped
	s.time = 0
	s.mu.Unlock()

	s.persist(storage.KeyState, StatusStopped.String())
	s.persist(storage.KeyTime, "0")
}

// SetVolume sets the playback volume, clamped to [0,100]. Applying the
// volume to the device is the controller's job; the store never touches
// the device.
func (s *Store) SetVolume(v int) {
	v = clampVolume(v)

	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()

	s.persist(storage.KeyVolume, strconv.Itoa(v))
}

// SetCurrentTime records the elapsed position in the current track. Called
// once per device progress tick, so the write path stays cheap: one field
// update and one best-effort storage write.
func (s *Store) SetCurrentTime(t float64) {
	if t < 0 {
		t = 0
	}

	s.mu.Lock()
	s.time = t
	s.mu.Unlock()

	s.persist(storage.KeyTime, strconv.FormatFloat(t, 'f', -1, 64))
}

// Playlist returns the current playlist.
func (s *Store) Playlist() playlist.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playlist
}

// CurrentTrack returns the current track resolved against the playlist.
func (s *Store) CurrentTrack() (track.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentID == "" {
		return track.Track{}, false
	}
	return s.playlist.ByID(s.currentID)
}

// CurrentTime returns the elapsed seconds in the current track.
func (s *Store) CurrentTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// Volume returns the playback volume in [0,100].
func (s *Store) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// Status returns the current playback status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// persist writes one key best-effort. A storage failure never aborts the
// playback transition that triggered it.
func (s *Store) persist(key, value string) {
	if err := s.storage.Set(key, value); err != nil {
		zlog.Warn().Msgf("player: failed to persist %s: %v", key, err)
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
