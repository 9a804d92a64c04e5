package spatial

import "github.com/korangar/audio/tween"

// Settings configures how a spatial track attenuates with distance from the
// listener.
type Settings struct {
	MinDistance            float32
	MaxDistance            float32
	LinearAttenuation      bool
	SpatializationStrength float32 // clamped to [0, 1] at set-time
}

// Attenuation computes the gain a spatial track's output is multiplied by,
// given the listener and emitter positions and the track's Settings.
func Attenuation(listener, emitter tween.Vec3, settings Settings) float32 {
	d := listener.Distance(emitter)
	dClamped := clamp(d, settings.MinDistance, settings.MaxDistance)

	span := settings.MaxDistance - settings.MinDistance
	var t float32
	if span > 0 {
		t = (dClamped - settings.MinDistance) / span
	}

	gainDist := float32(1)
	if settings.LinearAttenuation {
		gainDist = 1 - t
	}

	return lerp(1, gainDist, settings.SpatializationStrength)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, amount float32) float32 {
	return a + (b-a)*amount
}
