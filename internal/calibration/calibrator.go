package calibration

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"math"
)

// Outcome describes how the thresholds of a Result were obtained
type Outcome int

const (
	// OutcomeSearched means the thresholds were measured
	OutcomeSearched Outcome = iota
	// OutcomeCached means the fan matched its cache entry and the cached thresholds were used
	OutcomeCached
	// OutcomeUnresponsive means the fan did not react to pwm changes and the full range is used
	OutcomeUnresponsive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSearched:
		return "searched"
	case OutcomeCached:
		return "cached"
	case OutcomeUnresponsive:
		return "unresponsive"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{OutcomeSearched, OutcomeCached, OutcomeUnresponsive} {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome: %s", text)
}

// Probe is a single stable speed measurement
type Probe struct {
	Pwm int     `json:"pwm"`
	Rpm float64 `json:"rpm"`
}

type Result struct {
	StopPwm  int     `json:"stopPwm"`
	StartPwm int     `json:"startPwm"`
	MaxRpm   int     `json:"maxRpm"`
	Outcome  Outcome `json:"outcome"`
	Trace    []Probe `json:"trace"`
}

// CacheEntry converts the result into a cache entry of the given pwm file
func (r Result) CacheEntry(pwmOutput string) cache.Entry {
	return cache.Entry{
		PwmOutput: pwmOutput,
		MaxRpm:    r.MaxRpm,
		StopPwm:   r.StopPwm,
		StartPwm:  r.StartPwm,
	}
}

// Calibrator determines the stop and start pwm of a single fan
type Calibrator struct {
	fan    fans.Fan
	prior  *cache.Entry
	params Parameters
	logger ui.FanLogger

	stability *StabilityDetector
	period    *PeriodEstimator

	// OnProbe is called after every stable speed measurement
	OnProbe func(probe Probe)

	trace []Probe
}

// NewCalibrator creates a calibrator for the given fan.
// prior is the cache entry of the fan from a previous run, if any.
func NewCalibrator(fan fans.Fan, prior *cache.Entry, params Parameters, clock util.Clock) *Calibrator {
	return &Calibrator{
		fan:       fan,
		prior:     prior,
		params:    params,
		logger:    ui.NewFanLogger(fan.GetId()),
		stability: NewStabilityDetector(fan, clock, params),
		period:    NewPeriodEstimator(fan, clock, params),
	}
}

// Run switches the fan to manual control, searches its thresholds and
// restores the previous pwm and pwm_enable values afterwards.
func (c *Calibrator) Run() (result Result, err error) {
	err = withManualControl(c.fan, c.logger, func() (searchErr error) {
		result, searchErr = c.detectStartStopPwm()
		return searchErr
	})
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("Start and stop pwms found were %d and %d", result.StartPwm, result.StopPwm)
	return result, nil
}

// withManualControl runs action while the fan is in manual pwm mode.
// The previous pwm and pwm_enable values are restored in any case.
func withManualControl(fan fans.Fan, logger ui.FanLogger, action func() error) error {
	settings, err := fans.SaveSettings(fan)
	if err != nil {
		return fmt.Errorf("could not read current settings of %s: %w", fan.GetId(), err)
	}
	defer func() {
		logger.Info("Restoring previous settings: pwm=%d, enable=%d", settings.Pwm, settings.PwmEnabled)
		if err := fans.RestoreSettings(fan, settings); err != nil {
			logger.Error("Could not restore previous settings: %v", err)
		}
	}()

	logger.Info("Setting fan %s to manual", fan.GetPwmOutput())
	err = fans.SetManualPwm(fan)
	if err != nil {
		return err
	}
	return action()
}

func (c *Calibrator) detectStartStopPwm() (Result, error) {
	c.logger.Info("Checking the fan works")
	speedMin, err := c.probe(fans.MinPwmValue)
	if err != nil {
		return Result{}, err
	}

	period, ok, err := c.period.Estimate(fans.MaxPwmValue)
	if err != nil {
		return Result{}, err
	}
	if ok {
		c.stability.SetSamplePeriod(period)
		c.logger.Info("Update period = %v", period)
	}

	speedMax, err := c.probe(fans.MaxPwmValue)
	if err != nil {
		return Result{}, err
	}

	if c.matchesCache(speedMax) {
		c.logger.Info("Max RPM matches the one on cache, assuming same fan and using %d as stop and %d as start PWMs",
			c.prior.StopPwm, c.prior.StartPwm)
		return Result{
			StopPwm:  c.prior.StopPwm,
			StartPwm: c.prior.StartPwm,
			MaxRpm:   c.prior.MaxRpm,
			Outcome:  OutcomeCached,
			Trace:    c.trace,
		}, nil
	}

	if speedMax == 0 || math.Abs(speedMax-speedMin)/speedMax < c.params.MinResponseRatio {
		c.logger.Warning("It seems the fan might not be there, or not be responding to pwm changes. Using the full pwm range.")
		maxRpm := 0
		if c.prior != nil {
			maxRpm = c.prior.MaxRpm
		}
		return Result{
			StopPwm:  fans.MinPwmValue,
			StartPwm: fans.MaxPwmValue,
			MaxRpm:   maxRpm,
			Outcome:  OutcomeUnresponsive,
			Trace:    c.trace,
		}, nil
	}

	rpmThreshold := speedMin + float64(c.params.StoppedRpmMargin)
	c.logger.Info("Beginning start and stop pwm search (min %.0f rpm, max %.0f rpm)", speedMin, speedMax)
	search := NewThresholdSearch(rpmThreshold, c.params, c.probe)
	search.onStep = func(state searchState) {
		c.logger.Debug("Search %s: stop in [%d, %d], start in [%d, %d]",
			state.direction, state.stop.Low, state.stop.High, state.start.Low, state.start.High)
	}
	stopPwm, startPwm, err := search.Run()
	if err != nil {
		return Result{}, err
	}

	return Result{
		StopPwm:  stopPwm,
		StartPwm: startPwm,
		MaxRpm:   int(speedMax),
		Outcome:  OutcomeSearched,
		Trace:    c.trace,
	}, nil
}

func (c *Calibrator) matchesCache(speedMax float64) bool {
	if c.prior == nil || c.prior.MaxRpm <= 0 {
		return false
	}
	return math.Abs(speedMax/float64(c.prior.MaxRpm)-1) < c.params.CacheMatchTolerance
}

func (c *Calibrator) probe(pwm int) (float64, error) {
	speed, err := c.stability.WaitUntilStable(pwm)
	if err != nil {
		return 0, err
	}
	probe := Probe{Pwm: pwm, Rpm: speed}
	c.trace = append(c.trace, probe)
	if c.OnProbe != nil {
		c.OnProbe(probe)
	}
	return speed, nil
}
