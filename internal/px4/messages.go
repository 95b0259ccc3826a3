// Package px4 holds the fixed-shape records exchanged with the flight
// controller, mirroring the uORB message definitions the autopilot consumes.
package px4

// Command codes carried in VehicleCommand. These match the MAVLink MAV_CMD
// numbering the autopilot uses internally.
const (
	CmdDoSetMode          uint16 = 176
	CmdComponentArmDisarm uint16 = 400
)

// DO_SET_MODE parameters selecting the offboard flight mode.
const (
	ModeFlagCustomEnabled  float32 = 1
	CustomMainModeOffboard float32 = 6
)

// COMPONENT_ARM_DISARM param1 values.
const (
	ParamArm    float32 = 1.0
	ParamDisarm float32 = 0.0
)

// Takeoff pose streamed until an external target arrives. Position is in the
// vehicle's local NED frame; yaw is in radians, range [-PI:PI].
const (
	TakeoffX   float32 = 0
	TakeoffY   float32 = 0
	TakeoffZ   float32 = -1
	TakeoffYaw float32 = -3.14
)

// OffboardControlMode declares which setpoint axes the external computer is
// actively commanding. The autopilot rejects offboard mode unless this is
// streamed alongside the setpoints.
type OffboardControlMode struct {
	Timestamp    uint64
	Position     bool
	Velocity     bool
	Acceleration bool
	Attitude     bool
	BodyRate     bool
}

// TrajectorySetpoint is a position target in the local NED frame.
type TrajectorySetpoint struct {
	Timestamp uint64
	X         float32
	Y         float32
	Z         float32
	Yaw       float32
}

// VehicleCommand is a one-shot command to the autopilot.
type VehicleCommand struct {
	Timestamp       uint64
	Command         uint16
	Param1          float32
	Param2          float32
	TargetSystem    uint8
	TargetComponent uint8
	SourceSystem    uint8
	SourceComponent uint8
	FromExternal    bool
}

// Timesync carries the autopilot's monotonic clock, in microseconds. Every
// outbound message is stamped with the most recent value so the autopilot can
// align timing.
type Timesync struct {
	Timestamp uint64
}

// Point is a position in the sender's frame of reference.
type Point struct {
	X float64
	Y float64
	Z float64
}

// Quaternion is an orientation in w, x, y, z order.
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

// Pose is an externally supplied target, position in ENU. The orientation is
// carried for logging but does not drive the commanded yaw.
type Pose struct {
	Position    Point
	Orientation Quaternion
}
