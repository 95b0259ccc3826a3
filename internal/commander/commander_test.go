package commander

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offboardctl/internal/px4"
)

// fakeBus records every publish so tests can assert on sequencing.
type fakeBus struct {
	mu        sync.Mutex
	modes     []px4.OffboardControlMode
	setpoints []px4.TrajectorySetpoint
	commands  []px4.VehicleCommand
	err       error
}

func (f *fakeBus) PublishOffboardControlMode(m px4.OffboardControlMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, m)
	return f.err
}

func (f *fakeBus) PublishTrajectorySetpoint(sp px4.TrajectorySetpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setpoints = append(f.setpoints, sp)
	return f.err
}

func (f *fakeBus) PublishVehicleCommand(cmd px4.VehicleCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.err
}

func newTestCommander(t *testing.T, bus *fakeBus) *Commander {
	t.Helper()
	c, err := New(Config{}, bus, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestWarmupEmitsNoCommands(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	for i := 0; i < 10; i++ {
		c.Tick()
	}

	assert.Empty(t, bus.commands, "no mode change or arm during warm-up")
	assert.Len(t, bus.modes, 10, "one control-mode message per tick")
	assert.Len(t, bus.setpoints, 10, "one trajectory setpoint per tick")
	assert.Equal(t, PhaseWarmup, c.Snapshot().Phase)
}

func TestEngageFiresExactlyOnce(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	for i := 0; i < 30; i++ {
		c.Tick()
	}

	require.Len(t, bus.commands, 2, "exactly one mode change and one arm")

	setMode := bus.commands[0]
	assert.Equal(t, px4.CmdDoSetMode, setMode.Command)
	assert.Equal(t, px4.ModeFlagCustomEnabled, setMode.Param1)
	assert.Equal(t, px4.CustomMainModeOffboard, setMode.Param2)

	arm := bus.commands[1]
	assert.Equal(t, px4.CmdComponentArmDisarm, arm.Command)
	assert.Equal(t, px4.ParamArm, arm.Param1)

	assert.Equal(t, PhaseSteady, c.Snapshot().Phase)
}

func TestEngageHappensOnEleventhTick(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	for i := 0; i < 10; i++ {
		c.Tick()
		assert.Empty(t, bus.commands, "tick %d is still warm-up", i)
	}

	c.Tick()
	assert.Len(t, bus.commands, 2, "engage on the tick after warm-up")
}

func TestEveryTickPublishesStampedPair(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	c.HandleTimesync(px4.Timesync{Timestamp: 123456})
	c.Tick()

	require.Len(t, bus.modes, 1)
	mode := bus.modes[0]
	assert.True(t, mode.Position)
	assert.False(t, mode.Velocity)
	assert.False(t, mode.Acceleration)
	assert.False(t, mode.Attitude)
	assert.False(t, mode.BodyRate)
	assert.Equal(t, uint64(123456), mode.Timestamp)

	require.Len(t, bus.setpoints, 1)
	assert.Equal(t, uint64(123456), bus.setpoints[0].Timestamp)

	// A later timesync restamps the next pair.
	c.HandleTimesync(px4.Timesync{Timestamp: 999999})
	c.Tick()
	assert.Equal(t, uint64(999999), bus.modes[1].Timestamp)
	assert.Equal(t, uint64(999999), bus.setpoints[1].Timestamp)
}

func TestDefaultTakeoffSetpoint(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	c.Tick()

	require.Len(t, bus.setpoints, 1)
	sp := bus.setpoints[0]
	assert.Equal(t, float32(0), sp.X)
	assert.Equal(t, float32(0), sp.Y)
	assert.Equal(t, float32(-1), sp.Z)
	assert.Equal(t, float32(-3.14), sp.Yaw)
}

func TestUpdateTargetPoseFlipsZAndPinsYaw(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	c.UpdateTargetPose(px4.Pose{
		Position: px4.Point{X: 1, Y: 2, Z: 3},
		// Orientation must not influence the commanded yaw.
		Orientation: px4.Quaternion{W: 0.7071, Z: 0.7071},
	})
	c.Tick()

	require.Len(t, bus.setpoints, 1)
	sp := bus.setpoints[0]
	assert.Equal(t, float32(1), sp.X)
	assert.Equal(t, float32(2), sp.Y)
	assert.Equal(t, float32(-3), sp.Z)
	assert.Equal(t, float32(-3.14), sp.Yaw)
}

func TestPoseUpdateDoesNotPublishImmediately(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	c.UpdateTargetPose(px4.Pose{Position: px4.Point{X: 5}})

	assert.Empty(t, bus.setpoints, "change is picked up by the next tick only")
}

func TestTickCounterBounded(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	prev := 0
	for i := 0; i < 40; i++ {
		c.Tick()
		ticks := c.Snapshot().Ticks
		assert.GreaterOrEqual(t, ticks, prev, "counter is non-decreasing")
		assert.LessOrEqual(t, ticks-prev, 1, "counter increments by at most 1")
		prev = ticks
	}
	assert.Equal(t, 11, prev, "counter caps at warm-up plus one")
}

func TestArmDisarmParams(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)
	c.HandleTimesync(px4.Timesync{Timestamp: 42})

	c.Arm()
	c.Disarm()

	require.Len(t, bus.commands, 2)
	for _, cmd := range bus.commands {
		assert.Equal(t, px4.CmdComponentArmDisarm, cmd.Command)
		assert.Equal(t, uint64(42), cmd.Timestamp)
		assert.Equal(t, uint8(1), cmd.TargetSystem)
		assert.Equal(t, uint8(1), cmd.TargetComponent)
		assert.Equal(t, uint8(1), cmd.SourceSystem)
		assert.Equal(t, uint8(1), cmd.SourceComponent)
		assert.True(t, cmd.FromExternal)
	}
	assert.Equal(t, px4.ParamArm, bus.commands[0].Param1)
	assert.Equal(t, px4.ParamDisarm, bus.commands[1].Param1)
}

func TestTimesyncLastWriteWins(t *testing.T) {
	bus := &fakeBus{}
	c := newTestCommander(t, bus)

	c.HandleTimesync(px4.Timesync{Timestamp: 100})
	c.HandleTimesync(px4.Timesync{Timestamp: 50})

	c.Tick()
	assert.Equal(t, uint64(50), bus.modes[0].Timestamp, "no skew validation, last write wins")
}

func TestConfigurableWarmup(t *testing.T) {
	bus := &fakeBus{}
	c, err := New(Config{WarmupTicks: 3}, bus, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c.Tick()
	}
	assert.Empty(t, bus.commands)

	c.Tick()
	assert.Len(t, bus.commands, 2)
	assert.Equal(t, 4, c.Snapshot().Ticks)
}
