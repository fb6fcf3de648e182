package statistics

import (
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

const calibrationSubsystem = "calibration"

var stateValues = map[supervisor.State]float64{
	supervisor.StatePending: 0,
	supervisor.StateRunning: 1,
	supervisor.StateDone:    2,
	supervisor.StateFailed:  3,
}

// CalibrationCollector exports the calibration progress of all configured fans
type CalibrationCollector struct {
	registry *supervisor.Registry

	state    *prometheus.Desc
	stopPwm  *prometheus.Desc
	startPwm *prometheus.Desc
	maxRpm   *prometheus.Desc
	probes   *prometheus.Desc
}

func NewCalibrationCollector(registry *supervisor.Registry) *CalibrationCollector {
	return &CalibrationCollector{
		registry: registry,
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, calibrationSubsystem, "state"),
			"Calibration state of the fan (0=pending, 1=running, 2=done, 3=failed)",
			[]string{"id"}, nil,
		),
		stopPwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, calibrationSubsystem, "stop_pwm"),
			"Highest PWM value at which the fan is stationary",
			[]string{"id"}, nil,
		),
		startPwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, calibrationSubsystem, "start_pwm"),
			"Lowest PWM value at which the fan is spinning",
			[]string{"id"}, nil,
		),
		maxRpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, calibrationSubsystem, "max_rpm"),
			"RPM of the fan at full PWM",
			[]string{"id"}, nil,
		),
		probes: prometheus.NewDesc(prometheus.BuildFQName(namespace, calibrationSubsystem, "probes"),
			"Number of stable speed measurements taken so far",
			[]string{"id"}, nil,
		),
	}
}

func (collector *CalibrationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.state
	ch <- collector.stopPwm
	ch <- collector.startPwm
	ch <- collector.maxRpm
	ch <- collector.probes
}

// Collect implements required collect function for all prometheus collectors
func (collector *CalibrationCollector) Collect(ch chan<- prometheus.Metric) {
	for _, status := range collector.registry.List() {
		fanId := status.Id
		ch <- prometheus.MustNewConstMetric(collector.state, prometheus.GaugeValue, stateValues[status.State], fanId)
		ch <- prometheus.MustNewConstMetric(collector.probes, prometheus.GaugeValue, float64(len(status.Probes)), fanId)
		if status.Result == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.stopPwm, prometheus.GaugeValue, float64(status.Result.StopPwm), fanId)
		ch <- prometheus.MustNewConstMetric(collector.startPwm, prometheus.GaugeValue, float64(status.Result.StartPwm), fanId)
		ch <- prometheus.MustNewConstMetric(collector.maxRpm, prometheus.GaugeValue, float64(status.Result.MaxRpm), fanId)
	}
}
