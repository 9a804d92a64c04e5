package tween

import "math"

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X, Y, Z float32
}

// Origin is the zero vector.
var Origin = Vec3{}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Distance returns the Euclidean distance between a and b.
func (a Vec3) Distance(b Vec3) float32 {
	d := a.Sub(b)
	return float32(math.Sqrt(float64(d.X*d.X + d.Y*d.Y + d.Z*d.Z)))
}

// LerpVec3 linearly interpolates between a and b.
func LerpVec3(a, b Vec3, amount float64) Vec3 {
	t := float32(amount)
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}
