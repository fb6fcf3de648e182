package configuration

import (
	"errors"
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"time"
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

// ValidateCalibration only checks the calibration parameters, for commands
// which calibrate fans without handing them over to the daemon
func ValidateCalibration() error {
	return validateCalibration(&CurrentConfig.Calibration)
}

func validateConfig(config *Configuration) error {
	err := validateFans(config)
	if err != nil {
		return err
	}
	err = validateDrives(config)
	if err != nil {
		return err
	}
	err = validateDaemonParameters(config)
	if err != nil {
		return err
	}
	err = validateCalibration(&config.Calibration)
	if err != nil {
		return err
	}
	return validateServers(config)
}

func validateFans(config *Configuration) error {
	if len(config.FanPwmFiles) <= 0 {
		return errors.New("no fans configured, set fan_pwm_file to at least one pwm file")
	}

	return ValidatePwmOutputs(config.FanPwmFiles)
}

// ValidatePwmOutputs rejects empty and duplicate pwm files,
// every fan must be driven by a single worker
func ValidatePwmOutputs(pwmOutputs []string) error {
	for i, pwmFile := range pwmOutputs {
		if len(pwmFile) <= 0 {
			return fmt.Errorf("fan %d: empty pwm file", i+1)
		}
		if util.ContainsString(pwmOutputs[:i], pwmFile) {
			return fmt.Errorf("fan %s: configured more than once", pwmFile)
		}
	}
	return nil
}

func validateDrives(config *Configuration) error {
	if len(config.DriveTempFile) <= 0 {
		return errors.New("no drives configured, set drive_temp_file to at least one drive")
	}
	return nil
}

func validateDaemonParameters(config *Configuration) error {
	if config.FanMinPct < 0 || config.FanMinPct > 100 {
		return fmt.Errorf("fan_min_pct must be in [0, 100], was %d", config.FanMinPct)
	}
	if config.MinTemp >= config.MaxTemp {
		return fmt.Errorf("min_temp (%d) must be lower than max_temp (%d)", config.MinTemp, config.MaxTemp)
	}
	if config.TempUpdateInterval <= 0 {
		return fmt.Errorf("temp_update_interval must be > 0, was %d", config.TempUpdateInterval)
	}
	if config.SpindownTime < 0 {
		return fmt.Errorf("spindown_time must be >= 0, was %d", config.SpindownTime)
	}
	if len(config.DaemonExecutable) <= 0 {
		return errors.New("daemon_executable is missing")
	}
	if len(config.CacheFile) <= 0 {
		ui.Warning("cache_file is empty, calibration results will not be cached")
	}
	return nil
}

func validateCalibration(config *CalibrationConfig) error {
	if config.StabilitySamples < 2 {
		return fmt.Errorf("calibration: stability_samples must be >= 2, was %d", config.StabilitySamples)
	}
	if config.PeriodChanges < 2 {
		return fmt.Errorf("calibration: period_changes must be >= 2, was %d", config.PeriodChanges)
	}
	if config.PwmTolerance < 2 {
		return fmt.Errorf("calibration: pwm_tolerance must be >= 2, was %d", config.PwmTolerance)
	}
	if config.RoundTo < 1 {
		return fmt.Errorf("calibration: round_to must be >= 1, was %d", config.RoundTo)
	}
	if config.StoppedRpmMargin < 0 {
		return fmt.Errorf("calibration: stopped_rpm_margin must be >= 0, was %d", config.StoppedRpmMargin)
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{"default_sample_period", config.DefaultSamplePeriod},
		{"stability_timeout", config.StabilityTimeout},
		{"period_poll_interval", config.PeriodPollInterval},
		{"period_timeout", config.PeriodTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("calibration: %s must be a positive duration", d.key)
		}
	}

	if config.PeriodSafetyFactor < 1 {
		return fmt.Errorf("calibration: period_safety_factor must be >= 1, was %v", config.PeriodSafetyFactor)
	}
	if config.StabilityMaxDeviation <= 0 || config.CacheMatchTolerance <= 0 || config.MinResponseRatio <= 0 {
		return errors.New("calibration: stability_max_deviation, cache_match_tolerance and min_response_ratio must be > 0")
	}
	return nil
}

func validateServers(config *Configuration) error {
	if config.Statistics.Enabled && !isValidPort(config.Statistics.Port) {
		return fmt.Errorf("statistics: invalid port %d", config.Statistics.Port)
	}
	if config.Api.Enabled {
		if !isValidPort(config.Api.Port) {
			return fmt.Errorf("api: invalid port %d", config.Api.Port)
		}
		if config.Statistics.Enabled && config.Statistics.Port == config.Api.Port {
			return fmt.Errorf("api: port %d is already used by statistics", config.Api.Port)
		}
	}
	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
