package calibration

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"math"
	"time"
)

// PeriodEstimator measures how often the tachometer reading of a fan is refreshed
type PeriodEstimator struct {
	fan    fans.Fan
	clock  util.Clock
	params Parameters
	logger ui.FanLogger
}

func NewPeriodEstimator(fan fans.Fan, clock util.Clock, params Parameters) *PeriodEstimator {
	return &PeriodEstimator{
		fan:    fan,
		clock:  clock,
		params: params,
		logger: ui.NewFanLogger(fan.GetId()),
	}
}

// Estimate sets the given pwm value and polls the tachometer until it has seen
// PeriodChanges distinct changes. The first interval is discarded, since
// observation started somewhere within an update period.
// ok is false if the reading did not change often enough within PeriodTimeout.
func (e *PeriodEstimator) Estimate(pwm int) (period time.Duration, ok bool, err error) {
	err = e.fan.SetPwm(pwm)
	if err != nil {
		return 0, false, err
	}

	lastRpm, err := e.fan.GetRpm()
	if err != nil {
		return 0, false, err
	}

	start := e.clock.Now()
	lastChange := start
	intervals := make([]float64, 0, e.params.PeriodChanges)
	for len(intervals) < e.params.PeriodChanges {
		now := e.clock.Now()
		if now.Sub(start) >= e.params.PeriodTimeout {
			e.logger.Warning("Speed reading did not change %d times within %v, keeping an update period of %v",
				e.params.PeriodChanges, e.params.PeriodTimeout, e.params.DefaultSamplePeriod)
			return 0, false, nil
		}

		rpm, err := e.fan.GetRpm()
		if err != nil {
			return 0, false, err
		}
		if rpm != lastRpm {
			intervals = append(intervals, float64(now.Sub(lastChange)))
			lastChange = now
			lastRpm = rpm
			if len(intervals) >= e.params.PeriodChanges {
				break
			}
		}
		e.clock.Sleep(e.params.PeriodPollInterval)
	}

	period = time.Duration(math.Round(e.params.PeriodSafetyFactor * util.Avg(intervals[1:])))
	return period, true, nil
}
