// Package commander keeps a flight controller in offboard position-control
// mode: it streams a control-mode / trajectory-setpoint pair at a fixed
// cadence, performs a one-shot mode switch and arm after a warm-up period,
// and relays externally supplied target poses into the setpoint stream.
package commander

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"offboardctl/internal/frames"
	"offboardctl/internal/px4"
)

// Publisher is the outbound half of the message bus. The link package
// implements it over MAVLink; tests substitute a recording fake.
type Publisher interface {
	PublishOffboardControlMode(px4.OffboardControlMode) error
	PublishTrajectorySetpoint(px4.TrajectorySetpoint) error
	PublishVehicleCommand(px4.VehicleCommand) error
}

// Phase is the commander's position in the offboard engagement sequence.
type Phase int

const (
	// PhaseWarmup streams setpoints so the autopilot will accept the mode
	// switch, but has not yet requested offboard mode.
	PhaseWarmup Phase = iota
	// PhaseEngage is the one-shot mode switch and arm. Entered only from
	// PhaseWarmup, so the commands fire exactly once.
	PhaseEngage
	// PhaseSteady streams setpoints with the vehicle armed and in offboard
	// mode.
	PhaseSteady
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseEngage:
		return "engage"
	case PhaseSteady:
		return "steady"
	}
	return "unknown"
}

// state is the mutable bundle shared between the tick loop and the inbound
// handlers. Guarded by Commander.mu.
type state struct {
	phase  Phase
	ticks  int
	target px4.TrajectorySetpoint
}

// Config configures a Commander. Zero values fall back to the defaults the
// autopilot bench setup expects.
type Config struct {
	// Period is the setpoint cadence. Defaults to 33ms.
	Period time.Duration
	// WarmupTicks is how many setpoints are streamed before the mode switch.
	// Defaults to 10.
	WarmupTicks int
	// Takeoff overrides the initial target setpoint. Timestamp is ignored.
	Takeoff *px4.TrajectorySetpoint
}

const (
	defaultPeriod      = 33 * time.Millisecond
	defaultWarmupTicks = 10
)

// Commander sequences the offboard engagement. Handlers may be invoked from
// different goroutines (timer loop, link event loop, HTTP handlers), so the
// state bundle is mutex-guarded and the synced timestamp is an atomic cell.
type Commander struct {
	pub Publisher
	log zerolog.Logger

	period      time.Duration
	warmupTicks int

	// timestamp is the autopilot-synced clock in microseconds, written by
	// HandleTimesync and read by every outbound message constructor.
	timestamp atomic.Uint64

	mu sync.Mutex
	st state

	metrics *metrics
}

// New builds a Commander publishing through pub.
func New(cfg Config, pub Publisher, log zerolog.Logger) (*Commander, error) {
	if cfg.Period <= 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.WarmupTicks <= 0 {
		cfg.WarmupTicks = defaultWarmupTicks
	}

	target := px4.TrajectorySetpoint{
		X:   px4.TakeoffX,
		Y:   px4.TakeoffY,
		Z:   px4.TakeoffZ,
		Yaw: px4.TakeoffYaw,
	}
	if cfg.Takeoff != nil {
		target = *cfg.Takeoff
		target.Timestamp = 0
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	c := &Commander{
		pub:         pub,
		log:         log,
		period:      cfg.Period,
		warmupTicks: cfg.WarmupTicks,
		st:          state{phase: PhaseWarmup, target: target},
		metrics:     m,
	}

	c.log.Info().
		Float32("x", target.X).
		Float32("y", target.Y).
		Float32("z", target.Z).
		Float32("yaw", target.Yaw).
		Msg("defined initial trajectory setpoint")

	return c, nil
}

// HandleTimesync stores the autopilot clock value. Last write wins; no skew
// validation.
func (c *Commander) HandleTimesync(ts px4.Timesync) {
	c.timestamp.Store(ts.Timestamp)
}

// UpdateTargetPose replaces the target setpoint wholesale. Position x and y
// are taken as-is, z is negated to convert the ENU input into the autopilot's
// NED frame. Yaw stays pinned to the takeoff constant; the input orientation
// is logged and discarded. The new target is picked up on the next tick, no
// immediate republish.
func (c *Commander) UpdateTargetPose(pose px4.Pose) {
	sp := px4.TrajectorySetpoint{
		Timestamp: c.timestamp.Load(),
		X:         float32(pose.Position.X),
		Y:         float32(pose.Position.Y),
		Z:         -float32(pose.Position.Z), // ENU to NED
		Yaw:       px4.TakeoffYaw,            // [-PI:PI]
	}

	c.mu.Lock()
	c.st.target = sp
	c.mu.Unlock()

	o := pose.Orientation
	_, _, yaw := frames.QuaternionToEuler(o.W, o.X, o.Y, o.Z)
	c.log.Info().
		Float32("x", sp.X).
		Float32("y", sp.Y).
		Float32("z", sp.Z).
		Float64("discardedYawDeg", frames.RadiansToDegrees(yaw)).
		Msg("updated next target trajectory setpoint")

	c.metrics.poseUpdates.Add(context.Background(), 1)
}

// Tick runs one cadence cycle: the one-shot engage when the warm-up is
// complete, then the control-mode / trajectory-setpoint pair, then the
// bounded counter increment.
func (c *Commander) Tick() {
	c.mu.Lock()
	if c.st.phase == PhaseWarmup && c.st.ticks >= c.warmupTicks {
		c.st.phase = PhaseEngage
	}
	engage := c.st.phase == PhaseEngage
	target := c.st.target
	if c.st.ticks < c.warmupTicks+1 {
		c.st.ticks++
	}
	c.mu.Unlock()

	now := c.timestamp.Load()

	if engage {
		c.publishVehicleCommand(px4.CmdDoSetMode, px4.ModeFlagCustomEnabled, px4.CustomMainModeOffboard)
		c.Arm()

		c.mu.Lock()
		c.st.phase = PhaseSteady
		c.mu.Unlock()
		c.log.Info().Msg("offboard mode requested")
	}

	// The control-mode message needs to be paired with a trajectory setpoint.
	c.publishOffboardControlMode(now)

	target.Timestamp = now
	if err := c.pub.PublishTrajectorySetpoint(target); err != nil {
		c.log.Error().Err(err).Msg("publish trajectory setpoint")
	} else {
		c.metrics.setpoints.Add(context.Background(), 1)
	}

	c.metrics.ticks.Add(context.Background(), 1)
}

// Run drives Tick on the configured period until ctx is done.
func (c *Commander) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	c.log.Info().Dur("period", c.period).Msg("offboard cadence started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("offboard cadence stopped")
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Arm sends a command to arm the vehicle.
func (c *Commander) Arm() {
	c.publishVehicleCommand(px4.CmdComponentArmDisarm, px4.ParamArm, 0)
	c.log.Info().Msg("arm command sent")
}

// Disarm sends a command to disarm the vehicle.
func (c *Commander) Disarm() {
	c.publishVehicleCommand(px4.CmdComponentArmDisarm, px4.ParamDisarm, 0)
	c.log.Info().Msg("disarm command sent")
}

// Snapshot reports the current sequencing state.
type Snapshot struct {
	Phase     Phase
	Ticks     int
	Timestamp uint64
	Target    px4.TrajectorySetpoint
}

func (c *Commander) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:     c.st.phase,
		Ticks:     c.st.ticks,
		Timestamp: c.timestamp.Load(),
		Target:    c.st.target,
	}
}

// Only position control is active; all other axes are handled by the
// autopilot.
func (c *Commander) publishOffboardControlMode(now uint64) {
	msg := px4.OffboardControlMode{
		Timestamp: now,
		Position:  true,
	}
	if err := c.pub.PublishOffboardControlMode(msg); err != nil {
		c.log.Error().Err(err).Msg("publish offboard control mode")
	}
}

func (c *Commander) publishVehicleCommand(command uint16, param1, param2 float32) {
	cmd := px4.VehicleCommand{
		Timestamp:       c.timestamp.Load(),
		Command:         command,
		Param1:          param1,
		Param2:          param2,
		TargetSystem:    1,
		TargetComponent: 1,
		SourceSystem:    1,
		SourceComponent: 1,
		FromExternal:    true,
	}
	if err := c.pub.PublishVehicleCommand(cmd); err != nil {
		c.log.Error().Err(err).Uint16("command", command).Msg("publish vehicle command")
		return
	}
	c.metrics.commands.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("command", int(command))))
}
