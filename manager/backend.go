// Package manager implements the non-realtime façade gameplay code talks
// to: it owns the mixer graph, wires it to a driver Backend, and exposes
// the handles that add tracks and move the listener.
package manager

// Backend connects a Renderer to a host audio driver. A concrete Backend
// (such as backend/portaudio.Backend) opens its output stream when Start is
// called and then drives renderer.Process on its own audio thread for the
// lifetime of the stream.
type Backend interface {
	// SampleRate returns the sample rate the backend's output stream was
	// opened at.
	SampleRate() int

	// Start begins feeding renderer from the backend's audio callback.
	// It must not block past getting the stream running.
	Start(renderer *Renderer) error

	// Stop halts the backend's audio callback and releases its stream.
	// Safe to call even if Start was never called.
	Stop() error
}
