package manager

import (
	"github.com/korangar/audio/mixer"
	"github.com/korangar/audio/spatial"
	"github.com/korangar/audio/track"
	"github.com/korangar/audio/tween"
)

// Capacities bounds how many of each resource type an AudioManager can
// hold at once.
type Capacities struct {
	// SubTrackCapacity is the maximum number of top-level mixer sub-tracks
	// that can exist at a time.
	SubTrackCapacity int
}

// DefaultCapacities returns the engine's default resource limits.
func DefaultCapacities() Capacities {
	return Capacities{SubTrackCapacity: 64}
}

// AudioManagerSettings configures an AudioManager before it is created.
type AudioManagerSettings struct {
	Capacities Capacities

	// MainTrackBuilder configures the mixer's main (master) track.
	MainTrackBuilder track.MainTrackBuilder

	// InternalBufferSize determines how often modulators (volume fades,
	// tweened positions, tweened spatialization strength) are updated, in
	// samples. A host audio callback asking for more frames than this in
	// one call is served by several independent mixer callbacks; see
	// Renderer.Process.
	InternalBufferSize int
}

// DefaultAudioManagerSettings returns the engine's default settings: 64
// top-level sub-tracks, the main track's own defaults, and a 256-sample
// internal buffer.
func DefaultAudioManagerSettings() AudioManagerSettings {
	return AudioManagerSettings{
		Capacities:         DefaultCapacities(),
		MainTrackBuilder:   track.NewMainTrackBuilder(),
		InternalBufferSize: 256,
	}
}

// AudioManager is the entry point gameplay code uses to play audio. It
// builds the mixer graph, starts the backing Backend's driver callback,
// and exposes the handles that add tracks and move the listener. Stopping
// the manager's Backend (via Close) halts audio output.
type AudioManager struct {
	backend            Backend
	mixerController    *mixer.Controller
	mainTrackHandle    *track.MainTrackHandle
	internalBufferSize int
}

// New creates an AudioManager backed by backend. backend must not have had
// Start called on it yet; New calls it once the mixer graph is built.
func New(backend Backend, settings AudioManagerSettings) (*AudioManager, error) {
	m, controller, mainTrackHandle := mixer.New(settings.Capacities.SubTrackCapacity, settings.InternalBufferSize, settings.MainTrackBuilder)
	renderer := newRenderer(m, backend.SampleRate(), settings.InternalBufferSize)

	if err := backend.Start(renderer); err != nil {
		return nil, err
	}

	return &AudioManager{
		backend:            backend,
		mixerController:    controller,
		mainTrackHandle:    mainTrackHandle,
		internalBufferSize: settings.InternalBufferSize,
	}, nil
}

// AddSubTrack creates a top-level mixer sub-track.
func (a *AudioManager) AddSubTrack(b track.TrackBuilder) (*track.TrackHandle, error) {
	return a.mixerController.AddSubTrack(b)
}

// AddSpatialSubTrack creates a top-level spatial mixer sub-track at
// position.
func (a *AudioManager) AddSpatialSubTrack(position tween.Vec3, b track.SpatialTrackBuilder) (*track.SpatialTrackHandle, error) {
	return a.mixerController.AddSpatialSubTrack(position, b)
}

// Listener returns the handle for updating the spatial listener's
// position and orientation.
func (a *AudioManager) Listener() spatial.ListenerHandle {
	return a.mixerController.Listener()
}

// MainTrack returns a handle to the mixer's main (master) track.
func (a *AudioManager) MainTrack() *track.MainTrackHandle {
	return a.mainTrackHandle
}

// Close stops the backing Backend and releases its audio stream.
func (a *AudioManager) Close() error {
	return a.backend.Stop()
}
