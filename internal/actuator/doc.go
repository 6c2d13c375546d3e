// Package actuator drives one Dynamixel servo through exactly one operating
// mode at a time.
//
// An [Actuator] owns the register set ([Data]) shared with the framework and a
// [ModeRegistry] mapping controller names to [OperatingMode] instances. Mode
// switches follow a two-phase protocol:
//
//	if err := act.PrepareSwitch(starting, stopping); err != nil {
//	    // infeasible: nothing changed, abort the whole transaction
//	}
//	act.DoSwitch(starting, stopping)
//
// Each control tick the caller runs Read then Write, which delegate to the
// active mode or do nothing while no mode is active.
//
// # Thread Safety
//
// Actuator does not lock. Callers must serialize PrepareSwitch, DoSwitch,
// Read, Write and Close, e.g. by switching only between ticks of the loop
// that calls Read and Write.
package actuator
