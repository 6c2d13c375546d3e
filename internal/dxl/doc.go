// Package dxl talks to Dynamixel X-series servos through a [Workbench].
//
// A Workbench addresses servos by id and control-table items by name
// ("Goal_Position", "Torque_Enable", ...). The package ships the X-series
// control table, unit conversions between register units and SI units, and
// [SimBus], an in-process bus of simulated servos used for dry runs and tests.
//
// The serial wire protocol itself is not implemented here.
package dxl
