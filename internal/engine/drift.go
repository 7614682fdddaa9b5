// Numeric drift helpers — pure functions of (value, noise, scale, rate),
// deterministic given the RNG stream that produced the noise.
package engine

// MeanRevert moves a modifier toward 0.5 at the drift rate and adds the
// scaled noise sample. Callers clamp the result.
func MeanRevert(value, noise, scale, rate float64) float64 {
	return value + (0.5-value)*rate + noise*scale
}

// CoupleToward moves an aggregate toward a target at the coupling rate
// and adds the scaled noise sample. Callers clamp the result.
func CoupleToward(value, target, noise, scale, rate float64) float64 {
	return value + (target-value)*rate + noise*scale
}
