package pose

import "math"

// Angle returns the unsigned angle in degrees at vertex b formed by the rays
// b→a and b→c, folded into [0,180]. The result is finite for any finite
// input, but coincident points produce a geometrically meaningless value;
// callers gate on keypoint visibility before relying on it.
func Angle(a, b, c Keypoint) float64 {
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// Midpoint returns the point halfway between two keypoints. Visibility of the
// result is the lesser of the two inputs so a midpoint is never more trusted
// than its least-visible endpoint.
func Midpoint(a, b Keypoint) Keypoint {
	return Keypoint{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}
