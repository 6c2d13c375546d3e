// Package hwif provides the handle registry shared by actuators and controllers.
//
// Actuators expose their registers through typed handles:
//
//   - [ActuatorStateHandle]: read-only position, velocity and effort
//   - [ActuatorHandle]: state plus one writable command
//   - [Int32StateHandle]: read-only named integer state
//   - [Int32Handle]: writable named integer command
//
// Handles are registered under an interface [Kind] through a [Registrar].
// [RobotHW] is the in-process registrar; it registers a batch atomically so a
// failed actuator initialization never leaves stray handles behind.
//
// # Thread Safety
//
// Handles wrap raw pointers into an actuator's register set. Reading or
// writing through a handle must be serialized with the control loop.
package hwif
