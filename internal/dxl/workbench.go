package dxl

// Workbench is the bus-level access an actuator needs to its servo.
// Implementations must bound every call; none of them may block indefinitely.
type Workbench interface {
	// Ping resolves id to a live servo and returns its model number.
	Ping(id uint8) (uint16, error)
	ItemWrite(id uint8, item string, value int32) error
	ItemRead(id uint8, item string) (int32, error)
	Reboot(id uint8) error
	ClearMultiTurn(id uint8) error
}

// TorqueOn enables torque on the servo.
func TorqueOn(wb Workbench, id uint8) error {
	return wb.ItemWrite(id, ItemTorqueEnable, 1)
}

// TorqueOff disables torque on the servo.
func TorqueOff(wb Workbench, id uint8) error {
	return wb.ItemWrite(id, ItemTorqueEnable, 0)
}
