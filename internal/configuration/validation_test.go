package configuration

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func validConfig() Configuration {
	return Configuration{
		FanPwmFiles:         []string{"/sys/class/hwmon/hwmon2/pwm1"},
		DriveTempFile:       []string{"/dev/sda"},
		FanMinPct:           10,
		MinTemp:             30,
		MaxTemp:             50,
		TempUpdateInterval:  60,
		CacheFile:           "/var/cache/omv-hddfanctrl/fan-cache",
		DaemonExecutable:    "/opt/omv-hddfanctrl/venv/bin/hddfancontrol",
		CalibrateInParallel: true,
		Statistics:          StatisticsConfig{Port: 9000},
		Api:                 ApiConfig{Host: "localhost", Port: 9001},
		Calibration:         DefaultCalibrationConfig(),
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	// GIVEN
	config := validConfig()

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidateConfig_NoFans(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanPwmFiles = []string{}

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "no fans configured, set fan_pwm_file to at least one pwm file")
}

func TestValidateConfig_NoDrives(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.DriveTempFile = nil

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "no drives configured, set drive_temp_file to at least one drive")
}

func TestValidateConfig_DuplicateFan(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanPwmFiles = []string{"/sys/class/hwmon/hwmon2/pwm1", "/sys/class/hwmon/hwmon2/pwm1"}

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "fan /sys/class/hwmon/hwmon2/pwm1: configured more than once")
}

func TestValidateConfig_TemperatureRange(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.MinTemp = 50
	config.MaxTemp = 40

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "min_temp (50) must be lower than max_temp (40)")
}

func TestValidateConfig_FanMinPct(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanMinPct = 120

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "fan_min_pct must be in [0, 100], was 120")
}

func TestValidateConfig_NegativeSpindown(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.SpindownTime = -1

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "spindown_time must be >= 0, was -1")
}

func TestValidateConfig_CalibrationSamples(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Calibration.StabilitySamples = 1

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "calibration: stability_samples must be >= 2, was 1")
}

func TestValidateConfig_CalibrationDuration(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Calibration.PeriodTimeout = 0 * time.Second

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "calibration: period_timeout must be a positive duration")
}

func TestValidateConfig_PortClash(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Statistics = StatisticsConfig{Enabled: true, Port: 9000}
	config.Api = ApiConfig{Enabled: true, Host: "localhost", Port: 9000}

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.EqualError(t, err, "api: port 9000 is already used by statistics")
}

func TestValidateConfig_DisabledServerPortIgnored(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.Api = ApiConfig{Enabled: false, Port: -1}

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidatePwmOutputs(t *testing.T) {
	tests := []struct {
		name        string
		pwmOutputs  []string
		expectedErr string
	}{
		{"distinct", []string{"/sys/class/hwmon/hwmon2/pwm1", "/sys/class/hwmon/hwmon2/pwm2"}, ""},
		{"duplicate", []string{"/sys/class/hwmon/hwmon2/pwm1", "/sys/class/hwmon/hwmon2/pwm1"}, "fan /sys/class/hwmon/hwmon2/pwm1: configured more than once"},
		{"empty", []string{"/sys/class/hwmon/hwmon2/pwm1", ""}, "fan 2: empty pwm file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN
			err := ValidatePwmOutputs(tt.pwmOutputs)

			// THEN
			if tt.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErr)
			}
		})
	}
}
