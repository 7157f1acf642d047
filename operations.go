package icosdf

// Rounded Boolean operators on distance values. k is the blend radius and must be positive.
// For |a-b| >= k they reduce to the exact min/max, within k they blend with a
// quadratic polynomial.

func smoothUnion(a, b, k float32) float32 {
	h := clampf(0.5+0.5*(b-a)/k, 0, 1)
	return mixf(b, a, h) - k*h*(1-h)
}

func smoothIntersect(a, b, k float32) float32 {
	h := clampf(0.5-0.5*(b-a)/k, 0, 1)
	return mixf(b, a, h) + k*h*(1-h)
}

// smoothDiff returns a with b subtracted.
func smoothDiff(a, b, k float32) float32 {
	h := clampf(0.5-0.5*(b+a)/k, 0, 1)
	return mixf(a, -b, h) + k*h*(1-h)
}
