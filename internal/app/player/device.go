package player

import "context"

// Device is the audio playback collaborator the controller drives, standing
// in for the host media element. Volume is a fraction in [0,1]; positions
// are seconds.
type Device interface {
	// SetSource points the device at a new audio stream URL, replacing any
	// loaded stream.
	SetSource(url string)

	// SetVolume applies a volume fraction in [0,1].
	SetVolume(fraction float64)

	// SetPosition seeks to an absolute position in seconds.
	SetPosition(seconds float64)

	// Position returns the current position in seconds.
	Position() float64

	// Start begins playback of the loaded source. The host may reject the
	// start (missing output device, policy); the error reports the
	// rejection.
	Start(ctx context.Context) error

	// Stop halts output without unloading the source or moving the
	// position.
	Stop()

	// OnProgress registers a callback fired on each progress tick with the
	// elapsed seconds while playback runs.
	OnProgress(fn func(seconds float64)) Subscription

	// OnTrackLoaded registers a callback fired once stream metadata is
	// available, with the total duration in seconds.
	OnTrackLoaded(fn func(durationSeconds float64)) Subscription

	// Close releases the device.
	Close() error
}

// Subscription is a registered device callback. Unsubscribe removes the
// callback; calling it more than once is safe.
type Subscription interface {
	Unsubscribe()
}
