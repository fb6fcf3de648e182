package calibration

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
)

// CurvePwmSteps returns the pwm values from MaxPwmValue down to MinPwmValue, step apart.
// MinPwmValue is always included.
func CurvePwmSteps(step int) []int {
	step = max(step, 1)
	var result []int
	for pwm := fans.MaxPwmValue; pwm > fans.MinPwmValue; pwm -= step {
		result = append(result, pwm)
	}
	return append(result, fans.MinPwmValue)
}

// MeasureCurve applies each of the given pwm values and records the stable speed of the fan.
// The fan is restored to its previous settings afterwards.
func MeasureCurve(fan fans.Fan, clock util.Clock, params Parameters, pwms []int) ([]Probe, error) {
	logger := ui.NewFanLogger(fan.GetId())
	detector := NewStabilityDetector(fan, clock, params)

	var trace []Probe
	err := withManualControl(fan, logger, func() error {
		for _, pwm := range pwms {
			speed, err := detector.WaitUntilStable(pwm)
			if err != nil {
				return err
			}
			logger.Debug("%d rpm at pwm %d", int(speed), pwm)
			trace = append(trace, Probe{Pwm: pwm, Rpm: speed})
		}
		return nil
	})
	return trace, err
}
