package dxl

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Physical parameters of a simulated servo.
const (
	simInertia     = 0.002 // kg*m^2 at the horn
	simTorquePerA  = 1.5   // N*m/A
	simDamping     = 0.05  // N*m*s/rad, torque-off viscous friction
	simVelTau      = 0.02  // s, velocity loop time constant
	simSubstep     = time.Millisecond
	simStillVel    = 0.01 // rad/s below which a servo counts as stopped
	simDefaultTemp = 35
	simDefaultVin  = 120
)

// Transfer records one accepted write on the simulated bus.
type Transfer struct {
	ID    uint8
	Item  string
	Value int32
}

type simServo struct {
	model   uint16
	plugged bool
	regs    map[string]int32
	pos     float64 // rad, multi-turn
	vel     float64 // rad/s
	cur     float64 // A
}

// SimBus simulates a bus of X-series servos. It is safe for concurrent use.
type SimBus struct {
	mu        sync.Mutex
	servos    map[uint8]*simServo
	failures  map[uint8]error
	transfers []Transfer
	reboots   map[uint8]int
}

func NewSimBus() *SimBus {
	return &SimBus{
		servos:   make(map[uint8]*simServo),
		failures: make(map[uint8]error),
		reboots:  make(map[uint8]int),
	}
}

// AddServo plugs a servo with factory defaults onto the bus.
func (b *SimBus) AddServo(id uint8, model uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &simServo{model: model, plugged: true}
	s.regs = map[string]int32{
		ItemModelNumber:         int32(model),
		ItemOperatingMode:       OpModePosition,
		ItemCurrentLimit:        1193,
		ItemVelocityLimit:       265,
		ItemPositionPGain:       800,
		ItemVelocityPGain:       100,
		ItemVelocityIGain:       1920,
		ItemGoalPosition:        CenterPosition,
		ItemPresentPosition:     CenterPosition,
		ItemPresentInputVoltage: simDefaultVin,
		ItemPresentTemperature:  simDefaultTemp,
	}
	b.servos[id] = s
}

// IDs returns the ids of all servos on the bus, plugged or not.
func (b *SimBus) IDs() []uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]uint8, 0, len(b.servos))
	for id := range b.servos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Unplug makes the servo stop answering until Plug is called.
func (b *SimBus) Unplug(id uint8) { b.setPlugged(id, false) }

func (b *SimBus) Plug(id uint8) { b.setPlugged(id, true) }

func (b *SimBus) setPlugged(id uint8, plugged bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.servos[id]; ok {
		s.plugged = plugged
	}
}

// FailNext makes the next bus call addressed to id fail with err.
func (b *SimBus) FailNext(id uint8, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[id] = err
}

// SetPosition teleports a servo to rad with zero velocity.
func (b *SimBus) SetPosition(id uint8, rad float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.servos[id]; ok {
		s.pos, s.vel = rad, 0
		s.publish()
	}
}

// Register returns a raw register value without going through the bus.
func (b *SimBus) Register(id uint8, item string) (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.servos[id]
	if !ok {
		return 0, false
	}
	v, ok := s.regs[item]
	return v, ok
}

// Transfers returns the accepted writes since the last ResetTransfers.
func (b *SimBus) Transfers() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Transfer, len(b.transfers))
	copy(out, b.transfers)
	return out
}

func (b *SimBus) ResetTransfers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transfers = nil
}

// Reboots returns how many times the servo was rebooted.
func (b *SimBus) Reboots(id uint8) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reboots[id]
}

// servo returns a responsive servo, consuming any injected failure.
func (b *SimBus) servo(id uint8) (*simServo, error) {
	if err, ok := b.failures[id]; ok {
		delete(b.failures, id)
		return nil, err
	}
	s, ok := b.servos[id]
	if !ok || !s.plugged {
		return nil, fmt.Errorf("%w: id %d", ErrNoResponse, id)
	}
	return s, nil
}

func (b *SimBus) Ping(id uint8) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.servo(id)
	if err != nil {
		return 0, err
	}
	return s.model, nil
}

func (b *SimBus) ItemWrite(id uint8, item string, value int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.servo(id)
	if err != nil {
		return err
	}
	it, err := LookupItem(item)
	if err != nil {
		return err
	}
	if it.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, item)
	}
	if it.EEPROM() && s.regs[ItemTorqueEnable] != 0 {
		return fmt.Errorf("%w: %s while torque enabled", ErrAccess, item)
	}
	s.regs[item] = value
	b.transfers = append(b.transfers, Transfer{ID: id, Item: item, Value: value})
	return nil
}

func (b *SimBus) ItemRead(id uint8, item string) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.servo(id)
	if err != nil {
		return 0, err
	}
	if _, err := LookupItem(item); err != nil {
		return 0, err
	}
	return s.regs[item], nil
}

// Reboot clears the RAM area and keeps EEPROM settings.
func (b *SimBus) Reboot(id uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.servo(id)
	if err != nil {
		return err
	}
	for _, it := range xTable {
		if !it.EEPROM() && !it.ReadOnly {
			s.regs[it.Name] = 0
		}
	}
	s.vel, s.cur = 0, 0
	s.pos = wrapTurn(s.pos)
	s.regs[ItemGoalPosition] = RadiansToPosition(s.pos)
	s.publish()
	b.reboots[id]++
	return nil
}

// ClearMultiTurn folds the present position into a single turn. The servo
// must be at rest.
func (b *SimBus) ClearMultiTurn(id uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.servo(id)
	if err != nil {
		return err
	}
	if math.Abs(s.vel) > simStillVel {
		return fmt.Errorf("%w: clear multi-turn while moving", ErrAccess)
	}
	s.pos = wrapTurn(s.pos)
	s.publish()
	return nil
}

// Step advances every plugged servo by dt.
func (b *SimBus) Step(dt time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.servos {
		if !s.plugged {
			continue
		}
		for left := dt; left > 0; left -= simSubstep {
			h := simSubstep
			if left < h {
				h = left
			}
			s.step(h.Seconds())
		}
		s.publish()
	}
}

func wrapTurn(rad float64) float64 {
	r := math.Mod(rad+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
