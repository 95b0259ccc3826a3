package commander

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "offboardctl/internal/commander"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	ticks       metric.Int64Counter
	setpoints   metric.Int64Counter
	commands    metric.Int64Counter
	poseUpdates metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	var out metrics
	var err error

	out.ticks, err = m.Int64Counter(
		"offboard.ticks",
		metric.WithDescription("Total cadence ticks processed"))
	if err != nil {
		return nil, err
	}

	out.setpoints, err = m.Int64Counter(
		"offboard.setpoints.published",
		metric.WithDescription("Total trajectory setpoints published"))
	if err != nil {
		return nil, err
	}

	out.commands, err = m.Int64Counter(
		"offboard.commands.sent",
		metric.WithDescription("Total vehicle commands sent"))
	if err != nil {
		return nil, err
	}

	out.poseUpdates, err = m.Int64Counter(
		"offboard.pose.updates",
		metric.WithDescription("Total external target pose updates accepted"))
	if err != nil {
		return nil, err
	}

	return &out, nil
}
