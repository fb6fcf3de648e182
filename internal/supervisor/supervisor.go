package supervisor

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"time"
)

// FanFactory creates the fan handle of a configured pwm file
type FanFactory func(pwmOutput string) (fans.Fan, error)

// HwMonFanFactory creates hwmon sysfs fans
func HwMonFanFactory(pwmOutput string) (fans.Fan, error) {
	return fans.NewHwMonFan(pwmOutput)
}

type Config struct {
	// PwmOutputs are the pwm files of all fans, in configured order
	PwmOutputs []string
	// Cache holds the results of a previous run
	Cache      cache.Entries
	Parameters calibration.Parameters
	// Parallel calibrates all fans at the same time
	Parallel   bool
	Clock      util.Clock
	FanFactory FanFactory
}

// Report is the outcome of the calibration of a single fan
type Report struct {
	PwmOutput string
	FanId     string
	Result    calibration.Result
	Err       error

	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Report) Ok() bool {
	return r.Err == nil
}

type Supervisor struct {
	config   Config
	registry *Registry
}

func NewSupervisor(config Config, registry *Registry) *Supervisor {
	if config.Clock == nil {
		config.Clock = util.SystemClock()
	}
	if config.FanFactory == nil {
		config.FanFactory = HwMonFanFactory
	}
	if config.Cache == nil {
		config.Cache = cache.Entries{}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Supervisor{
		config:   config,
		registry: registry,
	}
}

func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Run calibrates all configured fans and waits for all of them to finish.
// Failures are reported per fan and do not affect the other fans.
// The reports are in configured order.
func (s *Supervisor) Run() []Report {
	outputs := s.config.PwmOutputs
	for _, pwmOutput := range outputs {
		s.registry.Register(pwmOutput)
	}

	reports := make([]Report, len(outputs))
	if s.config.Parallel {
		var wg conc.WaitGroup
		for i, pwmOutput := range outputs {
			wg.Go(func() {
				reports[i] = s.calibrate(pwmOutput)
			})
		}
		wg.Wait()
	} else {
		for i, pwmOutput := range outputs {
			reports[i] = s.calibrate(pwmOutput)
		}
	}

	return reports
}

func (s *Supervisor) calibrate(pwmOutput string) Report {
	report := Report{
		PwmOutput: pwmOutput,
		StartedAt: s.config.Clock.Now(),
	}

	var catcher panics.Catcher
	catcher.Try(func() {
		report.FanId, report.Result, report.Err = s.runCalibrator(pwmOutput, report.StartedAt)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		report.Err = fmt.Errorf("calibration of %s panicked: %v", pwmOutput, recovered.Value)
	}
	report.FinishedAt = s.config.Clock.Now()

	if report.Err != nil {
		ui.Error("Calibration of %s failed: %v", pwmOutput, report.Err)
	} else {
		ui.Success("Calibration of %s finished (%s): stop=%d start=%d max_rpm=%d",
			pwmOutput, report.Result.Outcome, report.Result.StopPwm, report.Result.StartPwm, report.Result.MaxRpm)
	}
	s.registry.finish(report)
	return report
}

func (s *Supervisor) runCalibrator(pwmOutput string, startedAt time.Time) (string, calibration.Result, error) {
	fan, err := s.config.FanFactory(pwmOutput)
	if err != nil {
		return "", calibration.Result{}, err
	}
	s.registry.setRunning(pwmOutput, fan.GetId(), startedAt)

	calibrator := calibration.NewCalibrator(fan, s.config.Cache.Get(pwmOutput), s.config.Parameters, s.config.Clock)
	calibrator.OnProbe = func(probe calibration.Probe) {
		s.registry.addProbe(pwmOutput, probe)
	}
	result, err := calibrator.Run()
	return fan.GetId(), result, err
}

// Successful returns the reports of all fans that were calibrated, in order
func Successful(reports []Report) []Report {
	var result []Report
	for _, report := range reports {
		if report.Ok() {
			result = append(result, report)
		}
	}
	return result
}

// UpdatedCache returns the cache content after a run: one entry per configured fan,
// failed fans keep their previous entry
func UpdatedCache(prior cache.Entries, reports []Report) []cache.Entry {
	var entries []cache.Entry
	for _, report := range reports {
		if report.Ok() {
			entries = append(entries, report.Result.CacheEntry(report.PwmOutput))
			continue
		}
		if previous := prior.Get(report.PwmOutput); previous != nil {
			entries = append(entries, *previous)
		}
	}
	return entries
}

// MergedCache returns all stored entries with the ones of successfully
// calibrated fans replaced, sorted by pwm file.
// Fans that are not part of the run keep their entry.
func MergedCache(stored cache.Entries, reports []Report) []cache.Entry {
	merged := make(cache.Entries, len(stored)+len(reports))
	for pwmOutput, entry := range stored {
		merged[pwmOutput] = entry
	}
	for _, report := range Successful(reports) {
		merged[report.PwmOutput] = report.Result.CacheEntry(report.PwmOutput)
	}
	return merged.Sorted()
}
