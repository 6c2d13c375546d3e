package dxl

import "math"

// Register resolutions for X-series servos.
const (
	TicksPerRevolution = 4096
	CenterPosition     = 2048

	// VelocityUnit is one Goal/Present_Velocity step in rpm.
	VelocityUnit = 0.229

	// CurrentUnit is one Goal/Present_Current step in amperes.
	CurrentUnit = 0.00269
)

// PositionToRadians converts position ticks to radians about the center tick.
// Multi-turn values convert linearly.
func PositionToRadians(ticks int32) float64 {
	offset := float64(ticks) - CenterPosition
	return offset * (2.0 * math.Pi / TicksPerRevolution)
}

// RadiansToPosition converts radians to the nearest position tick,
// saturating at the 4-byte register range.
func RadiansToPosition(rad float64) int32 {
	offset := rad * (TicksPerRevolution / (2.0 * math.Pi))
	return saturate(math.Round(offset)+CenterPosition, math.MinInt32, math.MaxInt32)
}

// VelocityToRadians converts velocity units to rad/s.
func VelocityToRadians(v int32) float64 {
	return float64(v) * VelocityUnit * 2.0 * math.Pi / 60.0
}

// RadiansToVelocity converts rad/s to the nearest velocity unit, saturating
// at the 4-byte register range.
func RadiansToVelocity(radps float64) int32 {
	return saturate(math.Round(radps*60.0/(2.0*math.Pi*VelocityUnit)), math.MinInt32, math.MaxInt32)
}

// CurrentToAmperes converts current units to amperes.
func CurrentToAmperes(c int32) float64 {
	return float64(c) * CurrentUnit
}

// AmperesToCurrent converts amperes to the nearest current unit, saturating
// at the 2-byte register range. Callers also bound it by Current_Limit.
func AmperesToCurrent(a float64) int32 {
	return saturate(math.Round(a/CurrentUnit), math.MinInt16, math.MaxInt16)
}

// ClampCurrent bounds c to [-limit, limit]. A non-positive limit leaves c as is.
func ClampCurrent(c, limit int32) int32 {
	if limit <= 0 {
		return c
	}
	return min(max(c, -limit), limit)
}

// saturate converts v to int32 within [lo, hi]. NaN maps to zero.
func saturate(v, lo, hi float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v <= lo:
		return int32(lo)
	case v >= hi:
		return int32(hi)
	}
	return int32(v)
}
