// Package link adapts the commander's message channels onto a MAVLink node.
package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/rs/zerolog"

	"offboardctl/internal/px4"
)

// TimesyncHandler receives autopilot clock updates read off the link.
type TimesyncHandler interface {
	HandleTimesync(px4.Timesync)
}

// Config configures the MAVLink endpoint.
type Config struct {
	Address  string
	SystemID int
}

// Link implements commander.Publisher over a gomavlib node. On the wire the
// control-mode declaration travels inside the setpoint type mask, so
// PublishOffboardControlMode only shapes subsequent setpoints.
type Link struct {
	node *gomavlib.Node
	log  zerolog.Logger

	mu   sync.Mutex
	mask common.POSITION_TARGET_TYPEMASK
}

// Dial creates a node which communicates with a UDP endpoint in client mode
// and wraps it in a Link.
func Dial(cfg Config, log zerolog.Logger) (*Link, error) {
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints: []gomavlib.EndpointConf{
			gomavlib.EndpointUDPServer{Address: cfg.Address},
		},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2, // change to V1 if you're unable to communicate with the target
		OutSystemID: byte(cfg.SystemID),
	})
	if err != nil {
		return nil, fmt.Errorf("mavlink node: %w", err)
	}

	return New(node, log), nil
}

// New wraps an existing node.
func New(node *gomavlib.Node, log zerolog.Logger) *Link {
	return &Link{
		node: node,
		log:  log,
		mask: typeMaskFor(px4.OffboardControlMode{Position: true}),
	}
}

func (l *Link) Close() {
	l.node.Close()
}

// Run dispatches inbound frames until ctx is done. Timesync messages feed the
// handler; command acks are logged and not correlated.
func (l *Link) Run(ctx context.Context, handler TimesyncHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.node.Events():
			if !ok {
				return
			}
			frame, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			switch msg := frame.Frame.GetMessage().(type) {
			case *common.MessageTimesync:
				handler.HandleTimesync(timesyncFrom(msg))
			case *common.MessageCommandAck:
				l.log.Debug().
					Str("command", msg.Command.String()).
					Str("result", msg.Result.String()).
					Msg("command ack")
			}
		}
	}
}

func (l *Link) PublishOffboardControlMode(m px4.OffboardControlMode) error {
	l.mu.Lock()
	l.mask = typeMaskFor(m)
	l.mu.Unlock()
	return nil
}

func (l *Link) PublishTrajectorySetpoint(sp px4.TrajectorySetpoint) error {
	l.mu.Lock()
	mask := l.mask
	l.mu.Unlock()

	return l.node.WriteMessageAll(toPositionTarget(sp, mask))
}

func (l *Link) PublishVehicleCommand(cmd px4.VehicleCommand) error {
	return l.node.WriteMessageAll(toCommandLong(cmd))
}
