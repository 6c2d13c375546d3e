package dxl

import "fmt"

// Control table item names for X-series servos (protocol 2.0).
const (
	ItemModelNumber         = "Model_Number"
	ItemOperatingMode       = "Operating_Mode"
	ItemHomingOffset        = "Homing_Offset"
	ItemCurrentLimit        = "Current_Limit"
	ItemVelocityLimit       = "Velocity_Limit"
	ItemTorqueEnable        = "Torque_Enable"
	ItemLED                 = "LED"
	ItemHardwareErrorStatus = "Hardware_Error_Status"
	ItemVelocityIGain       = "Velocity_I_Gain"
	ItemVelocityPGain       = "Velocity_P_Gain"
	ItemPositionDGain       = "Position_D_Gain"
	ItemPositionIGain       = "Position_I_Gain"
	ItemPositionPGain       = "Position_P_Gain"
	ItemGoalPWM             = "Goal_PWM"
	ItemGoalCurrent         = "Goal_Current"
	ItemGoalVelocity        = "Goal_Velocity"
	ItemProfileAcceleration = "Profile_Acceleration"
	ItemProfileVelocity     = "Profile_Velocity"
	ItemGoalPosition        = "Goal_Position"
	ItemMoving              = "Moving"
	ItemPresentPWM          = "Present_PWM"
	ItemPresentCurrent      = "Present_Current"
	ItemPresentVelocity     = "Present_Velocity"
	ItemPresentPosition     = "Present_Position"
	ItemPresentInputVoltage = "Present_Input_Voltage"
	ItemPresentTemperature  = "Present_Temperature"
)

// Operating_Mode register values.
const (
	OpModeCurrent              int32 = 0
	OpModeVelocity             int32 = 1
	OpModePosition             int32 = 3
	OpModeExtendedPosition     int32 = 4
	OpModeCurrentBasedPosition int32 = 5
	OpModePWM                  int32 = 16
)

// Model numbers of common X-series servos.
const (
	ModelXM430W350 uint16 = 1020
	ModelXM540W270 uint16 = 1120
	ModelXL430W250 uint16 = 1060
)

var modelNames = map[string]uint16{
	"XM430-W350": ModelXM430W350,
	"XM540-W270": ModelXM540W270,
	"XL430-W250": ModelXL430W250,
}

// LookupModel resolves a model name such as "XM430-W350" to its model number.
func LookupModel(name string) (uint16, bool) {
	m, ok := modelNames[name]
	return m, ok
}

// eepromEnd is the first RAM address; items below it are locked while torque is on.
const eepromEnd = 64

// Item describes one entry of the control table.
type Item struct {
	Name     string
	Address  uint16
	Size     int
	ReadOnly bool
}

// EEPROM reports whether the item lives in the EEPROM area.
func (i Item) EEPROM() bool { return i.Address < eepromEnd }

var xTable = []Item{
	{Name: ItemModelNumber, Address: 0, Size: 2, ReadOnly: true},
	{Name: ItemOperatingMode, Address: 11, Size: 1},
	{Name: ItemHomingOffset, Address: 20, Size: 4},
	{Name: ItemCurrentLimit, Address: 38, Size: 2},
	{Name: ItemVelocityLimit, Address: 44, Size: 4},
	{Name: ItemTorqueEnable, Address: 64, Size: 1},
	{Name: ItemLED, Address: 65, Size: 1},
	{Name: ItemHardwareErrorStatus, Address: 70, Size: 1, ReadOnly: true},
	{Name: ItemVelocityIGain, Address: 76, Size: 2},
	{Name: ItemVelocityPGain, Address: 78, Size: 2},
	{Name: ItemPositionDGain, Address: 80, Size: 2},
	{Name: ItemPositionIGain, Address: 82, Size: 2},
	{Name: ItemPositionPGain, Address: 84, Size: 2},
	{Name: ItemGoalPWM, Address: 100, Size: 2},
	{Name: ItemGoalCurrent, Address: 102, Size: 2},
	{Name: ItemGoalVelocity, Address: 104, Size: 4},
	{Name: ItemProfileAcceleration, Address: 108, Size: 4},
	{Name: ItemProfileVelocity, Address: 112, Size: 4},
	{Name: ItemGoalPosition, Address: 116, Size: 4},
	{Name: ItemMoving, Address: 122, Size: 1, ReadOnly: true},
	{Name: ItemPresentPWM, Address: 124, Size: 2, ReadOnly: true},
	{Name: ItemPresentCurrent, Address: 126, Size: 2, ReadOnly: true},
	{Name: ItemPresentVelocity, Address: 128, Size: 4, ReadOnly: true},
	{Name: ItemPresentPosition, Address: 132, Size: 4, ReadOnly: true},
	{Name: ItemPresentInputVoltage, Address: 144, Size: 2, ReadOnly: true},
	{Name: ItemPresentTemperature, Address: 146, Size: 1, ReadOnly: true},
}

var xIndex = func() map[string]Item {
	idx := make(map[string]Item, len(xTable))
	for _, it := range xTable {
		idx[it.Name] = it
	}
	return idx
}()

// LookupItem finds a control table item by name.
func LookupItem(name string) (Item, error) {
	it, ok := xIndex[name]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	return it, nil
}

// Items returns the control table in address order.
func Items() []Item {
	out := make([]Item, len(xTable))
	copy(out, xTable)
	return out
}
