package daemon

import (
	"errors"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"strconv"
	"strings"
)

var ErrNoCalibratedFans = errors.New("no fan could be calibrated")

// FanThresholds are the calibrated pwm limits of a single fan
type FanThresholds struct {
	PwmOutput string
	StartPwm  int
	StopPwm   int
}

// FromReports returns the thresholds of all successfully calibrated fans, in order
func FromReports(reports []supervisor.Report) []FanThresholds {
	var result []FanThresholds
	for _, report := range supervisor.Successful(reports) {
		result = append(result, FanThresholds{
			PwmOutput: report.PwmOutput,
			StartPwm:  report.Result.StartPwm,
			StopPwm:   report.Result.StopPwm,
		})
	}
	return result
}

// Invocation is the command line of the temperature control daemon
type Invocation struct {
	Executable string
	Args       []string
}

func (i Invocation) String() string {
	return strings.Join(append([]string{i.Executable}, i.Args...), " ")
}

// BuildInvocation assembles the daemon command line from the configuration
// and the thresholds of the calibrated fans.
func BuildInvocation(config configuration.Configuration, fans []FanThresholds) (Invocation, error) {
	if len(fans) <= 0 {
		return Invocation{}, ErrNoCalibratedFans
	}
	if len(config.DaemonExecutable) <= 0 {
		return Invocation{}, errors.New("no daemon executable configured")
	}

	pwmOutputs := make([]string, len(fans))
	starts := make([]string, len(fans))
	stops := make([]string, len(fans))
	for i, fan := range fans {
		pwmOutputs[i] = fan.PwmOutput
		starts[i] = strconv.Itoa(fan.StartPwm)
		stops[i] = strconv.Itoa(fan.StopPwm)
	}

	var args []string
	args = append(args, "--drives")
	args = append(args, config.DriveTempFile...)
	args = append(args, "--pwm")
	args = append(args, pwmOutputs...)
	args = append(args, "--pwm-start-value")
	args = append(args, starts...)
	args = append(args, "--pwm-stop-value")
	args = append(args, stops...)
	args = append(args,
		"--min-fan-speed-prct", strconv.Itoa(config.FanMinPct),
		"--min-temp", strconv.Itoa(config.MinTemp),
		"--max-temp", strconv.Itoa(config.MaxTemp),
		"--interval", strconv.Itoa(config.TempUpdateInterval),
		"--restore-fan-settings",
	)

	if config.SpindownTime > 0 {
		args = append(args, "--spin-down-time", strconv.Itoa(config.SpindownTime*60))
	}

	return Invocation{
		Executable: config.DaemonExecutable,
		Args:       args,
	}, nil
}
