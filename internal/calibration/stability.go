package calibration

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"time"
)

type SpeedSample struct {
	Timestamp time.Time
	Rpm       int
}

// StabilityDetector applies a pwm value and samples the tachometer
// until the speed has settled.
type StabilityDetector struct {
	fan    fans.Fan
	clock  util.Clock
	params Parameters
	logger ui.FanLogger

	samplePeriod time.Duration
}

func NewStabilityDetector(fan fans.Fan, clock util.Clock, params Parameters) *StabilityDetector {
	return &StabilityDetector{
		fan:          fan,
		clock:        clock,
		params:       params,
		logger:       ui.NewFanLogger(fan.GetId()),
		samplePeriod: params.DefaultSamplePeriod,
	}
}

func (d *StabilityDetector) SamplePeriod() time.Duration {
	return d.samplePeriod
}

func (d *StabilityDetector) SetSamplePeriod(period time.Duration) {
	if period <= 0 {
		return
	}
	d.samplePeriod = period
}

// WaitUntilStable sets the given pwm value and returns the mean speed of the
// sample window once it is stable. When the fan does not settle within the
// stability timeout, the mean of the retained samples is returned.
func (d *StabilityDetector) WaitUntilStable(pwm int) (float64, error) {
	err := d.fan.SetPwm(pwm)
	if err != nil {
		return 0, err
	}

	windowSize := d.params.StabilitySamples
	window := util.CreateRollingWindow(windowSize)
	samples := make([]SpeedSample, 0, windowSize+1)

	deadline := d.clock.Now().Add(d.params.StabilityTimeout)
	for {
		rpm, err := d.fan.GetRpm()
		if err != nil {
			return 0, err
		}
		samples = append(samples, SpeedSample{Timestamp: d.clock.Now(), Rpm: rpm})
		if len(samples) > windowSize {
			samples = samples[1:]
		}
		window.Append(float64(rpm))

		if len(samples) >= windowSize && !isMonotonic(samples) {
			mean := util.GetWindowAvg(window)
			stdDev := util.GetWindowStdDev(window)
			if d.isStable(mean, stdDev) {
				d.logger.Debug("Speed at pwm %d is stable at %.1f rpm (stddev %.2f)", pwm, mean, stdDev)
				return mean, nil
			}
		}

		remaining := deadline.Sub(d.clock.Now())
		if remaining <= 0 {
			break
		}
		d.clock.Sleep(min(d.samplePeriod, remaining))
	}

	mean := sampleMean(samples)
	d.logger.Warning("Waited over %v for a stable speed at pwm %d, using %.1f rpm", d.params.StabilityTimeout, pwm, mean)
	return mean, nil
}

func (d *StabilityDetector) isStable(mean float64, stdDev float64) bool {
	if stdDev < d.params.StabilityMinStdDev {
		return true
	}
	return mean > 0 && stdDev/mean < d.params.StabilityMaxDeviation
}

// isMonotonic reports whether all successive differences share the same strict sign
func isMonotonic(samples []SpeedSample) bool {
	if len(samples) < 2 {
		return false
	}
	sign := samples[1].Rpm - samples[0].Rpm
	if sign == 0 {
		return false
	}
	for i := 1; i < len(samples); i++ {
		diff := samples[i].Rpm - samples[i-1].Rpm
		if diff == 0 || (diff > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func sampleMean(samples []SpeedSample) float64 {
	values := make([]float64, len(samples))
	for i, sample := range samples {
		values[i] = float64(sample.Rpm)
	}
	return util.Avg(values)
}
