// Package device provides a speaker-backed playback device using beep.
package device

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jambox/internal/app/player"
)

// The speaker runs at a fixed rate; streams with a different rate are
// resampled on the fly.
const speakerSampleRate = beep.SampleRate(44100)

// Speaker plays remote MP3 streams through the system audio output. It
// implements player.Device: SetSource only records the URL, the stream is
// fetched and decoded on the first Start.
type Speaker struct {
	mu sync.Mutex

	httpClient *http.Client

	source   string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	fraction float64
	pending  float64 // seek requested before a stream is loaded

	progressFns map[int]func(float64)
	loadedFns   map[int]func(float64)
	nextSubID   int

	tick      time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewSpeaker initializes the system speaker. tick controls the progress
// callback cadence.
func NewSpeaker(tick time.Duration) (*Speaker, error) {
	if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(100*time.Millisecond)); err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}

	s := &Speaker{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		fraction:    1,
		progressFns: make(map[int]func(float64)),
		loadedFns:   make(map[int]func(float64)),
		tick:        tick,
		done:        make(chan struct{}),
	}
	go s.tickLoop()

	return s, nil
}

// SetSource points the speaker at a new stream URL. Re-setting the loaded
// URL keeps the current stream and position.
func (s *Speaker) SetSource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if url == s.source && s.streamer != nil {
		return
	}
	s.unloadLocked()
	s.source = url
}

// SetVolume applies a [0,1] fraction to the output.
func (s *Speaker) SetVolume(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fraction = fraction
	if s.volume != nil {
		speaker.Lock()
		applyFraction(s.volume, fraction)
		speaker.Unlock()
	}
}

// SetPosition seeks to an absolute position in seconds. Before a stream is
// loaded the position is remembered and applied on load.
func (s *Speaker) SetPosition(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		s.pending = seconds
		return
	}

	n := s.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	speaker.Lock()
	if n > s.streamer.Len() {
		n = s.streamer.Len()
	}
	if err := s.streamer.Seek(n); err != nil {
		zlog.Warn().Msgf("device: seek failed: %v", err)
	}
	speaker.Unlock()
}

// Position returns the elapsed seconds of the loaded stream.
func (s *Speaker) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return s.pending
	}

	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos).Seconds()
}

// Start fetches and decodes the source if needed and unpauses output.
func (s *Speaker) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == "" {
		return errors.New("no source set")
	}

	if s.streamer == nil {
		if err := s.loadLocked(ctx); err != nil {
			return err
		}
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop pauses output. The loaded stream and its position stay in place.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// OnProgress registers fn to receive the elapsed seconds on every tick
// while output runs.
func (s *Speaker) OnProgress(fn func(float64)) player.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.progressFns[id] = fn

	return &subscription{cancel: func() {
		s.mu.Lock()
		delete(s.progressFns, id)
		s.mu.Unlock()
	}}
}

// OnTrackLoaded registers fn to receive the stream duration in seconds
// once a source has been decoded.
func (s *Speaker) OnTrackLoaded(fn func(float64)) player.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.loadedFns[id] = fn

	return &subscription{cancel: func() {
		s.mu.Lock()
		delete(s.loadedFns, id)
		s.mu.Unlock()
	}}
}

// Close stops the tick loop and releases the loaded stream.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.unloadLocked()
		s.mu.Unlock()
	})
	return nil
}

// loadLocked fetches and decodes the source. The whole track is buffered
// in memory so the decoder can seek. Must be called with s.mu held.
func (s *Speaker) loadLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.source, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to fetch stream")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("stream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read stream")
	}

	streamer, format, err := mp3.Decode(nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		return errors.Wrap(err, "failed to decode stream")
	}

	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, speakerSampleRate, streamer),
		Paused:   true,
	}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}
	applyFraction(s.volume, s.fraction)

	if s.pending > 0 {
		n := format.SampleRate.N(time.Duration(s.pending * float64(time.Second)))
		if n < streamer.Len() {
			if err := streamer.Seek(n); err != nil {
				zlog.Warn().Msgf("device: initial seek failed: %v", err)
			}
		}
		s.pending = 0
	}

	speaker.Play(s.volume)
	zlog.Debug().Msgf("device: loaded stream: url=%s rate=%d samples=%d",
		s.source, format.SampleRate, streamer.Len())

	duration := format.SampleRate.D(streamer.Len()).Seconds()
	for _, fn := range s.loadedFns {
		fn(duration)
	}
	return nil
}

// unloadLocked drops the loaded stream. Must be called with s.mu held.
func (s *Speaker) unloadLocked() {
	if s.streamer == nil {
		return
	}
	speaker.Clear()
	if err := s.streamer.Close(); err != nil {
		zlog.Warn().Msgf("device: failed to close stream: %v", err)
	}
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
}

func (s *Speaker) tickLoop() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.streamer == nil || s.ctrl == nil {
				s.mu.Unlock()
				continue
			}
			speaker.Lock()
			paused := s.ctrl.Paused
			pos := s.streamer.Position()
			speaker.Unlock()
			if paused {
				s.mu.Unlock()
				continue
			}
			seconds := s.format.SampleRate.D(pos).Seconds()
			fns := make([]func(float64), 0, len(s.progressFns))
			for _, fn := range s.progressFns {
				fns = append(fns, fn)
			}
			s.mu.Unlock()

			for _, fn := range fns {
				fn(seconds)
			}
		}
	}
}

// applyFraction maps a linear fraction onto the exponential volume effect.
func applyFraction(vol *effects.Volume, fraction float64) {
	if fraction <= 0 {
		vol.Silent = true
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(fraction)
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
