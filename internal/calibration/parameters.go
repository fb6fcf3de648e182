package calibration

import (
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"time"
)

// Parameters are the constants of a single fan calibration
type Parameters struct {
	// StabilitySamples is the number of consecutive samples a stable speed is derived from
	StabilitySamples    int
	DefaultSamplePeriod time.Duration
	StabilityTimeout    time.Duration
	// StabilityMaxDeviation is the maximum stddev/mean ratio of a stable window
	StabilityMaxDeviation float64
	// StabilityMinStdDev is the absolute stddev below which a window is always stable,
	// which covers speeds close to 0
	StabilityMinStdDev float64

	PeriodPollInterval time.Duration
	PeriodChanges      int
	PeriodSafetyFactor float64
	PeriodTimeout      time.Duration

	PwmTolerance        int
	StoppedRpmMargin    int
	CacheMatchTolerance float64
	MinResponseRatio    float64
	RoundTo             int
}

func DefaultParameters() Parameters {
	return ParametersFromConfig(configuration.DefaultCalibrationConfig())
}

func ParametersFromConfig(config configuration.CalibrationConfig) Parameters {
	return Parameters{
		StabilitySamples:      config.StabilitySamples,
		DefaultSamplePeriod:   config.DefaultSamplePeriod,
		StabilityTimeout:      config.StabilityTimeout,
		StabilityMaxDeviation: config.StabilityMaxDeviation,
		StabilityMinStdDev:    config.StabilityMinStdDev,
		PeriodPollInterval:    config.PeriodPollInterval,
		PeriodChanges:         config.PeriodChanges,
		PeriodSafetyFactor:    config.PeriodSafetyFactor,
		PeriodTimeout:         config.PeriodTimeout,
		PwmTolerance:          config.PwmTolerance,
		StoppedRpmMargin:      config.StoppedRpmMargin,
		CacheMatchTolerance:   config.CacheMatchTolerance,
		MinResponseRatio:      config.MinResponseRatio,
		RoundTo:               config.RoundTo,
	}
}
