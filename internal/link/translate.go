package link

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"offboardctl/internal/px4"
)

// typeMaskFor builds the SET_POSITION_TARGET_LOCAL_NED type mask matching a
// control-mode declaration. Axes the commander is not actively commanding are
// marked ignore. Yaw is commanded together with position, so only the yaw
// rate follows the body-rate flag.
func typeMaskFor(m px4.OffboardControlMode) common.POSITION_TARGET_TYPEMASK {
	var mask common.POSITION_TARGET_TYPEMASK
	if !m.Position {
		mask |= common.POSITION_TARGET_TYPEMASK_X_IGNORE |
			common.POSITION_TARGET_TYPEMASK_Y_IGNORE |
			common.POSITION_TARGET_TYPEMASK_Z_IGNORE
	}
	if !m.Velocity {
		mask |= common.POSITION_TARGET_TYPEMASK_VX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VZ_IGNORE
	}
	if !m.Acceleration {
		mask |= common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AZ_IGNORE
	}
	if !m.BodyRate {
		mask |= common.POSITION_TARGET_TYPEMASK_YAW_RATE_IGNORE
	}
	return mask
}

func toPositionTarget(sp px4.TrajectorySetpoint, mask common.POSITION_TARGET_TYPEMASK) *common.MessageSetPositionTargetLocalNed {
	return &common.MessageSetPositionTargetLocalNed{
		TimeBootMs:      uint32(sp.Timestamp / 1000), // us -> ms
		TargetSystem:    1,
		TargetComponent: 1,
		CoordinateFrame: common.MAV_FRAME_LOCAL_NED,
		TypeMask:        mask,
		X:               sp.X,
		Y:               sp.Y,
		Z:               sp.Z,
		Yaw:             sp.Yaw,
	}
}

func toCommandLong(cmd px4.VehicleCommand) *common.MessageCommandLong {
	return &common.MessageCommandLong{
		TargetSystem:    cmd.TargetSystem,
		TargetComponent: cmd.TargetComponent,
		Command:         common.MAV_CMD(cmd.Command),
		Confirmation:    0,
		Param1:          cmd.Param1,
		Param2:          cmd.Param2,
	}
}

// timesyncFrom converts the autopilot's nanosecond clock to the microsecond
// timestamp outbound messages carry.
func timesyncFrom(msg *common.MessageTimesync) px4.Timesync {
	ns := msg.Ts1
	if ns < 0 {
		ns = 0
	}
	return px4.Timesync{Timestamp: uint64(ns) / 1000}
}
