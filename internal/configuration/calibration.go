package configuration

import "time"

// CalibrationConfig holds the tuning knobs of the threshold search
type CalibrationConfig struct {
	// StabilitySamples is the size of the sliding window of the stability detector
	StabilitySamples      int           `json:"stabilitySamples" mapstructure:"stability_samples" yaml:"stability_samples"`
	DefaultSamplePeriod   time.Duration `json:"defaultSamplePeriod" mapstructure:"default_sample_period" yaml:"default_sample_period"`
	StabilityTimeout      time.Duration `json:"stabilityTimeout" mapstructure:"stability_timeout" yaml:"stability_timeout"`
	StabilityMaxDeviation float64       `json:"stabilityMaxDeviation" mapstructure:"stability_max_deviation" yaml:"stability_max_deviation"`
	StabilityMinStdDev    float64       `json:"stabilityMinStdDev" mapstructure:"stability_min_std_dev" yaml:"stability_min_std_dev"`

	PeriodPollInterval time.Duration `json:"periodPollInterval" mapstructure:"period_poll_interval" yaml:"period_poll_interval"`
	PeriodChanges      int           `json:"periodChanges" mapstructure:"period_changes" yaml:"period_changes"`
	PeriodSafetyFactor float64       `json:"periodSafetyFactor" mapstructure:"period_safety_factor" yaml:"period_safety_factor"`
	PeriodTimeout      time.Duration `json:"periodTimeout" mapstructure:"period_timeout" yaml:"period_timeout"`

	PwmTolerance        int     `json:"pwmTolerance" mapstructure:"pwm_tolerance" yaml:"pwm_tolerance"`
	StoppedRpmMargin    int     `json:"stoppedRpmMargin" mapstructure:"stopped_rpm_margin" yaml:"stopped_rpm_margin"`
	CacheMatchTolerance float64 `json:"cacheMatchTolerance" mapstructure:"cache_match_tolerance" yaml:"cache_match_tolerance"`
	MinResponseRatio    float64 `json:"minResponseRatio" mapstructure:"min_response_ratio" yaml:"min_response_ratio"`
	RoundTo             int     `json:"roundTo" mapstructure:"round_to" yaml:"round_to"`
}

func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		StabilitySamples:      5,
		DefaultSamplePeriod:   2500 * time.Millisecond,
		StabilityTimeout:      60 * time.Second,
		StabilityMaxDeviation: 0.05,
		StabilityMinStdDev:    10,

		PeriodPollInterval: 100 * time.Millisecond,
		PeriodChanges:      3,
		PeriodSafetyFactor: 1.2,
		PeriodTimeout:      60 * time.Second,

		PwmTolerance:        10,
		StoppedRpmMargin:    10,
		CacheMatchTolerance: 0.025,
		MinResponseRatio:    0.05,
		RoundTo:             10,
	}
}
