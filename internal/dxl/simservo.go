package dxl

import "math"

// accel returns the angular acceleration for state (pos, vel) under the
// servo's present mode and goals.
func (s *simServo) accel(pos, vel float64) float64 {
	if s.regs[ItemTorqueEnable] == 0 {
		return -simDamping * vel / simInertia
	}

	velLimit := VelocityToRadians(s.regs[ItemVelocityLimit])
	maxAccel := CurrentToAmperes(s.regs[ItemCurrentLimit]) * simTorquePerA / simInertia

	var a float64
	switch s.regs[ItemOperatingMode] {
	case OpModeCurrent:
		goal := CurrentToAmperes(s.regs[ItemGoalCurrent])
		a = (goal*simTorquePerA - simDamping*vel) / simInertia
	case OpModeVelocity:
		target := clamp(VelocityToRadians(s.regs[ItemGoalVelocity]), velLimit)
		a = (target - vel) / simVelTau
	case OpModePosition, OpModeExtendedPosition, OpModeCurrentBasedPosition:
		goal := PositionToRadians(s.regs[ItemGoalPosition])
		limit := velLimit
		if pv := s.regs[ItemProfileVelocity]; pv > 0 {
			limit = math.Min(limit, VelocityToRadians(pv))
		}
		kp := float64(s.regs[ItemPositionPGain]) / 100.0
		target := clamp(kp*(goal-pos), limit)
		a = (target - vel) / simVelTau
		if s.regs[ItemOperatingMode] == OpModeCurrentBasedPosition {
			maxAccel = math.Min(maxAccel, CurrentToAmperes(abs32(s.regs[ItemGoalCurrent]))*simTorquePerA/simInertia)
		}
	default:
		a = -simDamping * vel / simInertia
	}
	return clamp(a, maxAccel)
}

// step integrates the servo over h seconds with a classic RK4 step.
func (s *simServo) step(h float64) {
	p, v := s.pos, s.vel

	k1p, k1v := v, s.accel(p, v)
	k2p, k2v := v+0.5*h*k1v, s.accel(p+0.5*h*k1p, v+0.5*h*k1v)
	k3p, k3v := v+0.5*h*k2v, s.accel(p+0.5*h*k2p, v+0.5*h*k2v)
	k4p, k4v := v+h*k3v, s.accel(p+h*k3p, v+h*k3v)

	s.pos = p + h/6.0*(k1p+2*k2p+2*k3p+k4p)
	s.vel = v + h/6.0*(k1v+2*k2v+2*k3v+k4v)
	s.cur = (simInertia*s.accel(s.pos, s.vel) + simDamping*s.vel) / simTorquePerA
	if s.regs[ItemTorqueEnable] == 0 {
		s.cur = 0
	}
}

// publish mirrors the physical state into the Present_* registers.
func (s *simServo) publish() {
	s.regs[ItemPresentPosition] = RadiansToPosition(s.pos)
	s.regs[ItemPresentVelocity] = RadiansToVelocity(s.vel)
	s.regs[ItemPresentCurrent] = AmperesToCurrent(s.cur)
	if math.Abs(s.vel) > simStillVel {
		s.regs[ItemMoving] = 1
	} else {
		s.regs[ItemMoving] = 0
	}
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
