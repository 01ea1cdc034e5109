package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/jambox/internal/infra/storage"
)

// fakeDevice records controller interactions and lets tests fire the
// device-driven callbacks by hand.
type fakeDevice struct {
	source   string
	fraction float64
	position float64
	started  bool
	startErr error

	progress []func(float64)
	loaded   []func(float64)
	unsubs   int
}

func (d *fakeDevice) SetSource(url string)        { d.source = url }
func (d *fakeDevice) SetVolume(fraction float64)  { d.fraction = fraction }
func (d *fakeDevice) SetPosition(seconds float64) { d.position = seconds }
func (d *fakeDevice) Position() float64           { return d.position }

func (d *fakeDevice) Start(ctx context.Context) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}

func (d *fakeDevice) Stop() { d.started = false }

func (d *fakeDevice) OnProgress(fn func(float64)) Subscription {
	d.progress = append(d.progress, fn)
	return &fakeSub{device: d}
}

func (d *fakeDevice) OnTrackLoaded(fn func(float64)) Subscription {
	d.loaded = append(d.loaded, fn)
	return &fakeSub{device: d}
}

func (d *fakeDevice) Close() error { return nil }

// fireProgress simulates the device position advancing during playback.
func (d *fakeDevice) fireProgress(seconds float64) {
	d.position = seconds
	for _, fn := range d.progress {
		fn(seconds)
	}
}

func (d *fakeDevice) fireLoaded(duration float64) {
	for _, fn := range d.loaded {
		fn(duration)
	}
}

type fakeSub struct {
	device *fakeDevice
}

func (s *fakeSub) Unsubscribe() { s.device.unsubs++ }

func newTestController(t *testing.T, st storage.Store, ids ...string) (*Controller, *Store, *fakeDevice) {
	t.Helper()
	store := newTestStore(t, st, ids...)
	device := &fakeDevice{}
	return NewController(store, device), store, device
}

func TestController_InitializePrimesWithoutStarting(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTrackID, "b"))
	require.NoError(t, st.Set(storage.KeyTime, "30"))
	require.NoError(t, st.Set(storage.KeyVolume, "60"))

	ctrl, _, device := newTestController(t, st, "a", "b")
	ctrl.Initialize()

	assert.Equal(t, "https://stream.example/b", device.source)
	assert.InDelta(t, 0.6, device.fraction, 1e-9)
	assert.Equal(t, float64(30), device.position)
	assert.False(t, device.started)
}

func TestController_InitializeEmptyPlaylist(t *testing.T) {
	ctrl, _, device := newTestController(t, storage.NewMemoryStore())
	ctrl.Initialize()

	assert.Empty(t, device.source)
	assert.False(t, device.started)
	// Callbacks still registered for when a playlist shows up.
	assert.Len(t, device.progress, 1)
	assert.Len(t, device.loaded, 1)
}

func TestController_ProgressTickForwardsTime(t *testing.T) {
	st := storage.NewMemoryStore()
	ctrl, store, device := newTestController(t, st, "a")
	ctrl.Initialize()

	device.fireProgress(17.5)

	assert.Equal(t, 17.5, store.CurrentTime())
	v, _ := st.Get(storage.KeyTime)
	assert.Equal(t, "17.5", v)
}

func TestController_TrackLoadedSetsDuration(t *testing.T) {
	ctrl, _, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()

	assert.Empty(t, ctrl.Duration())
	device.fireLoaded(187)
	assert.Equal(t, "3:07", ctrl.Duration())
}

func TestController_PlayResumesPersistedTimeOnce(t *testing.T) {
	// First play of a session resumes the persisted position; the store
	// then resets to 0 so later track starts begin at the top.
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTrackID, "a"))
	require.NoError(t, st.Set(storage.KeyTime, "55"))

	ctrl, store, device := newTestController(t, st, "a", "b")
	ctrl.Initialize()

	require.NoError(t, ctrl.Play(context.Background()))

	assert.Equal(t, float64(55), device.position)
	assert.True(t, device.started)
	assert.Equal(t, StatusPlaying, store.Status())
	assert.Equal(t, float64(0), store.CurrentTime())

	v, _ := st.Get(storage.KeyTime)
	assert.Equal(t, "0", v)
}

func TestController_PlayFallsBackToFirstTrack(t *testing.T) {
	ctrl, store, device := newTestController(t, storage.NewMemoryStore(), "a", "b")
	ctrl.Initialize()

	require.NoError(t, ctrl.Play(context.Background()))

	current, ok := store.CurrentTrack()
	assert.True(t, ok)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, "https://stream.example/a", device.source)
}

func TestController_PlayEmptyPlaylist(t *testing.T) {
	ctrl, _, device := newTestController(t, storage.NewMemoryStore())
	ctrl.Initialize()

	err := ctrl.Play(context.Background())
	assert.ErrorIs(t, err, ErrEmptyPlaylist)
	assert.False(t, device.started)
}

func TestController_PlayRejectedRollsBackStatus(t *testing.T) {
	ctrl, store, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()
	device.startErr = assert.AnError

	require.NoError(t, ctrl.Play(context.Background()))

	// Track selection sticks, but status reflects the silent device.
	current, ok := store.CurrentTrack()
	assert.True(t, ok)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, StatusPaused, store.Status())
	assert.False(t, device.started)
}

func TestController_PauseKeepsPosition(t *testing.T) {
	ctrl, store, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()

	require.NoError(t, ctrl.Play(context.Background()))
	device.fireProgress(20)
	ctrl.Pause()

	assert.False(t, device.started)
	assert.Equal(t, StatusPaused, store.Status())
	assert.Equal(t, float64(20), store.CurrentTime())
	assert.Equal(t, float64(20), device.position)
}

func TestController_StopRewindsDevice(t *testing.T) {
	ctrl, store, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()

	require.NoError(t, ctrl.Play(context.Background()))
	device.fireProgress(20)
	require.NoError(t, ctrl.Stop())

	assert.False(t, device.started)
	assert.Equal(t, float64(0), device.position)
	assert.Equal(t, StatusStopped, store.Status())
	assert.Equal(t, float64(0), store.CurrentTime())
}

func TestController_StopWithoutTrack(t *testing.T) {
	ctrl, _, _ := newTestController(t, storage.NewMemoryStore())
	ctrl.Initialize()

	assert.ErrorIs(t, ctrl.Stop(), ErrNoTrack)
}

func TestController_NextAdvancesAndWraps(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTrackID, "b"))

	ctrl, store, device := newTestController(t, st, "a", "b", "c")
	ctrl.Initialize()

	require.NoError(t, ctrl.Next(context.Background(), false))
	current, _ := store.CurrentTrack()
	assert.Equal(t, "c", current.ID)
	assert.Equal(t, "https://stream.example/c", device.source)
	assert.Equal(t, float64(0), device.position)

	require.NoError(t, ctrl.Next(context.Background(), false))
	current, _ = store.CurrentTrack()
	assert.Equal(t, "a", current.ID)
}

func TestController_NextStartsOnlyWhenPlayingOrAutoplay(t *testing.T) {
	tests := []struct {
		name        string
		playFirst   bool
		autoplay    bool
		wantStarted bool
	}{
		{
			name:        "paused without autoplay stays silent",
			playFirst:   false,
			autoplay:    false,
			wantStarted: false,
		},
		{
			name:        "paused with autoplay starts",
			playFirst:   false,
			autoplay:    true,
			wantStarted: true,
		},
		{
			name:        "already playing keeps playing",
			playFirst:   true,
			autoplay:    false,
			wantStarted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _, device := newTestController(t, storage.NewMemoryStore(), "a", "b")
			ctrl.Initialize()

			if tt.playFirst {
				require.NoError(t, ctrl.Play(context.Background()))
			} else {
				device.started = false
			}

			require.NoError(t, ctrl.Next(context.Background(), tt.autoplay))
			assert.Equal(t, tt.wantStarted, device.started)
		})
	}
}

func TestController_PreviousStepsBackAndWraps(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTrackID, "b"))

	ctrl, store, _ := newTestController(t, st, "a", "b", "c")
	ctrl.Initialize()

	require.NoError(t, ctrl.Previous(context.Background()))
	current, _ := store.CurrentTrack()
	assert.Equal(t, "a", current.ID)

	require.NoError(t, ctrl.Previous(context.Background()))
	current, _ = store.CurrentTrack()
	assert.Equal(t, "c", current.ID)
}

func TestController_NextFullCycleReturnsToOrigin(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTrackID, "b"))

	ctrl, store, _ := newTestController(t, st, "a", "b", "c", "d")
	ctrl.Initialize()

	pl := store.Playlist()
	for i := 0; i < pl.Len(); i++ {
		require.NoError(t, ctrl.Next(context.Background(), false))
	}

	current, _ := store.CurrentTrack()
	assert.Equal(t, "b", current.ID)
}

func TestController_VolumeTwoWayBinding(t *testing.T) {
	ctrl, store, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()

	ctrl.SetVolume(37)
	assert.Equal(t, 37, ctrl.Volume())
	assert.Equal(t, 37, store.Volume())
	assert.InDelta(t, 0.37, device.fraction, 1e-9)

	// Out-of-range input reaches the device clamped.
	ctrl.SetVolume(150)
	assert.Equal(t, 100, ctrl.Volume())
	assert.InDelta(t, 1.0, device.fraction, 1e-9)
}

func TestController_CloseUnsubscribes(t *testing.T) {
	ctrl, _, device := newTestController(t, storage.NewMemoryStore(), "a")
	ctrl.Initialize()

	require.NoError(t, ctrl.Play(context.Background()))
	ctrl.Close()

	assert.Equal(t, 2, device.unsubs)
	assert.False(t, device.started)

	// Idempotent
	ctrl.Close()
	assert.Equal(t, 2, device.unsubs)
}
