package tween

// LerpFloat32 linearly interpolates between two plain float32 values, for
// Parameters over scalars that aren't Decibels (spatialization strength,
// for instance).
func LerpFloat32(a, b float32, amount float64) float32 {
	return a + (b-a)*float32(amount)
}
