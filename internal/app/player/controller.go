package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jambox/internal/domain/track"
)

// Errors
var (
	ErrNoTrack       = errors.New("no track selected")
	ErrEmptyPlaylist = errors.New("playlist is empty")
)

// Controller binds a Device to the Store and drives the
// stopped/paused/playing state machine. One controller per device.
type Controller struct {
	store  *Store
	device Device

	mu       sync.Mutex
	duration string // human-readable duration of the loaded track
	subs     []Subscription
}

// NewController creates a controller over the given store and device.
func NewController(store *Store, device Device) *Controller {
	return &Controller{store: store, device: device}
}

// Initialize restores persisted state and primes the device (source,
// volume, position) without starting playback. Device callbacks stay
// registered until Close.
func (c *Controller) Initialize() {
	c.store.Restore()

	if t, ok := c.effectiveTrack(); ok {
		c.device.SetSource(t.Audio)
		c.device.SetVolume(fraction(c.store.Volume()))
		c.device.SetPosition(c.store.CurrentTime())
	}

	progress := c.device.OnProgress(c.store.SetCurrentTime)
	loaded := c.device.OnTrackLoaded(func(durationSeconds float64) {
		c.mu.Lock()
		c.duration = track.FormatDuration(durationSeconds)
		c.mu.Unlock()
	})

	c.mu.Lock()
	c.subs = append(c.subs, progress, loaded)
	c.mu.Unlock()
}

// Play starts playback of the effective track. The device is primed with
// the persisted position before the store resets it, so the first play of
// a session resumes where the last one left off while every later track
// start begins at zero.
func (c *Controller) Play(ctx context.Context) error {
	t, ok := c.effectiveTrack()
	if !ok {
		return ErrEmptyPlaylist
	}

	c.device.SetSource(t.Audio)
	c.device.SetPosition(c.store.CurrentTime())
	c.device.SetVolume(fraction(c.store.Volume()))

	err := c.device.Start(ctx)
	c.store.SetCurrentTrack(t)
	if err != nil {
		c.rejectStart(err)
	}
	return nil
}

// Pause halts the device and marks the store paused. The device position
// is left where it is.
func (c *Controller) Pause() {
	c.device.Stop()
	c.store.Pause()
}

// Stop ends playback and rewinds to the track start. Without an active
// track there is nothing to stop.
func (c *Controller) Stop() error {
	if _, ok := c.effectiveTrack(); !ok {
		return ErrNoTrack
	}

	c.device.Stop()
	c.device.SetPosition(0)
	c.store.Stop()
	return nil
}

// Next advances to the successor track, wrapping past the end. Playback
// starts when it was already running or autoplay is set.
func (c *Controller) Next(ctx context.Context, autoplay bool) error {
	return c.step(ctx, false, autoplay)
}

// Previous steps back to the predecessor track, wrapping before the
// start. Playback starts only when it was already running.
func (c *Controller) Previous(ctx context.Context) error {
	return c.step(ctx, true, false)
}

func (c *Controller) step(ctx context.Context, back, autoplay bool) error {
	t, ok := c.effectiveTrack()
	if !ok {
		return ErrEmptyPlaylist
	}

	pl := c.store.Playlist()
	var target track.Track
	if back {
		target, _ = pl.Previous(t.ID)
	} else {
		target, _ = pl.Next(t.ID)
	}

	wasPlaying := c.store.Status() == StatusPlaying
	c.store.SetCurrentTrack(target)

	c.device.SetSource(target.Audio)
	c.device.SetPosition(0)

	if wasPlaying || autoplay {
		if err := c.device.Start(ctx); err != nil {
			c.rejectStart(err)
		}
	}
	return nil
}

// SetVolume updates the stored volume and, scaled to [0,1], the device.
func (c *Controller) SetVolume(v int) {
	c.store.SetVolume(v)
	c.device.SetVolume(fraction(c.store.Volume()))
}

// Volume returns the stored volume in [0,100].
func (c *Controller) Volume() int {
	return c.store.Volume()
}

// Duration returns the duration of the loaded track as m:ss. Empty until
// the device has reported metadata.
func (c *Controller) Duration() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Close unsubscribes device callbacks and halts the device.
func (c *Controller) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	c.device.Stop()
}

// effectiveTrack is the current track, falling back to the first playlist
// entry when nothing is selected.
func (c *Controller) effectiveTrack() (track.Track, bool) {
	if t, ok := c.store.CurrentTrack(); ok {
		return t, true
	}
	pl := c.store.Playlist()
	return pl.First()
}

// rejectStart handles a device refusing to start playback. The store is
// rolled back to paused so status matches device reality instead of
// reporting a playback that never began.
func (c *Controller) rejectStart(err error) {
	zlog.Warn().Msgf("player: device rejected playback start: %v", err)
	c.store.Pause()
}

// fraction converts a [0,100] volume to the device's [0,1] range.
func fraction(volume int) float64 {
	return float64(volume) / 100
}
