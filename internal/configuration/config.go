package configuration

import (
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"path/filepath"
	"reflect"
	"strings"
)

const (
	configName = "fanctrl"
	envPrefix  = "HDDFANCTRL"
)

var configFileExtensions = []string{"conf", "yaml", "yml"}

type Configuration struct {
	FanPwmFiles   []string `json:"fanPwmFiles" mapstructure:"fan_pwm_file" yaml:"fan_pwm_file"`
	DriveTempFile []string `json:"driveTempFiles" mapstructure:"drive_temp_file" yaml:"drive_temp_file"`

	FanMinPct          int `json:"fanMinPct" mapstructure:"fan_min_pct" yaml:"fan_min_pct"`
	MinTemp            int `json:"minTemp" mapstructure:"min_temp" yaml:"min_temp"`
	MaxTemp            int `json:"maxTemp" mapstructure:"max_temp" yaml:"max_temp"`
	TempUpdateInterval int `json:"tempUpdateInterval" mapstructure:"temp_update_interval" yaml:"temp_update_interval"`
	// SpindownTime is given in minutes, 0 disables drive spin down
	SpindownTime int `json:"spindownTime" mapstructure:"spindown_time" yaml:"spindown_time"`

	CacheFile         string `json:"cacheFile" mapstructure:"cache_file" yaml:"cache_file"`
	DaemonExecutable  string `json:"daemonExecutable" mapstructure:"daemon_executable" yaml:"daemon_executable"`
	DeveloperModeFile string `json:"developerModeFile" mapstructure:"developer_mode_file" yaml:"developer_mode_file"`

	CalibrateInParallel bool `json:"calibrateInParallel" mapstructure:"calibrate_in_parallel" yaml:"calibrate_in_parallel"`

	Statistics  StatisticsConfig  `json:"statistics" mapstructure:"statistics" yaml:"statistics"`
	Api         ApiConfig         `json:"api" mapstructure:"api" yaml:"api"`
	Calibration CalibrationConfig `json:"calibration" mapstructure:"calibration" yaml:"calibration"`
}

var CurrentConfig Configuration

var configFile string

// InitConfig reads in ENV variables and remembers the config file
// given on the command line, if any.
func InitConfig(cfgFile string) {
	configFile = cfgFile

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues(viper.GetViper())
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("fan_pwm_file", []string{})
	v.SetDefault("drive_temp_file", []string{})
	v.SetDefault("fan_min_pct", 0)
	v.SetDefault("min_temp", 30)
	v.SetDefault("max_temp", 50)
	v.SetDefault("temp_update_interval", 60)
	v.SetDefault("spindown_time", 0)

	v.SetDefault("cache_file", "/var/cache/omv-hddfanctrl/fan-cache")
	v.SetDefault("daemon_executable", "/opt/omv-hddfanctrl/venv/bin/hddfancontrol")
	v.SetDefault("developer_mode_file", "/etc/openmediavault/developer-mode")

	v.SetDefault("calibrate_in_parallel", true)

	v.SetDefault("statistics.enabled", false)
	v.SetDefault("statistics.port", 9000)

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "localhost")
	v.SetDefault("api.port", 9001)

	defaults := DefaultCalibrationConfig()
	v.SetDefault("calibration.stability_samples", defaults.StabilitySamples)
	v.SetDefault("calibration.default_sample_period", defaults.DefaultSamplePeriod)
	v.SetDefault("calibration.stability_timeout", defaults.StabilityTimeout)
	v.SetDefault("calibration.stability_max_deviation", defaults.StabilityMaxDeviation)
	v.SetDefault("calibration.stability_min_std_dev", defaults.StabilityMinStdDev)
	v.SetDefault("calibration.period_poll_interval", defaults.PeriodPollInterval)
	v.SetDefault("calibration.period_changes", defaults.PeriodChanges)
	v.SetDefault("calibration.period_safety_factor", defaults.PeriodSafetyFactor)
	v.SetDefault("calibration.period_timeout", defaults.PeriodTimeout)
	v.SetDefault("calibration.pwm_tolerance", defaults.PwmTolerance)
	v.SetDefault("calibration.stopped_rpm_margin", defaults.StoppedRpmMargin)
	v.SetDefault("calibration.cache_match_tolerance", defaults.CacheMatchTolerance)
	v.SetDefault("calibration.min_response_ratio", defaults.MinResponseRatio)
	v.SetDefault("calibration.round_to", defaults.RoundTo)
}

// DetectConfigFile returns the path of the config file that will be used,
// or an empty string if none could be found.
func DetectConfigFile() string {
	if configFile != "" {
		return configFile
	}

	searchPaths := []string{"."}
	home, err := homedir.Dir()
	if err != nil {
		ui.Warning("Couldn't detect home directory: %v", err)
	} else {
		searchPaths = append(searchPaths, home)
	}
	searchPaths = append(searchPaths, "/etc/omv-hddfanctrl/")

	return findConfigFile(searchPaths)
}

func findConfigFile(searchPaths []string) string {
	for _, dir := range searchPaths {
		for _, ext := range configFileExtensions {
			candidate := filepath.Join(dir, configName+"."+ext)
			if util.FileExists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// DetectAndReadConfigFile detects the config file and reads it into viper.
// A missing or unreadable config file is fatal.
func DetectAndReadConfigFile() string {
	path := DetectConfigFile()
	if path == "" {
		ui.Fatal("No configuration file found, expected %s.conf in ., $HOME or /etc/omv-hddfanctrl/", configName)
	}

	if err := readConfigFile(viper.GetViper(), path); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	return path
}

// ReadOptionalConfigFile reads the config file if there is one and returns its path.
// Commands which work without a config file use this instead of DetectAndReadConfigFile.
func ReadOptionalConfigFile() string {
	path := DetectConfigFile()
	if path == "" {
		ui.Debug("No configuration file found, using defaults")
		return ""
	}
	if err := readConfigFile(viper.GetViper(), path); err != nil {
		ui.Fatal("Error reading config file, %s", err)
	}
	return path
}

func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if strings.EqualFold(filepath.Ext(path), ".conf") {
		// shell style key=value file, as written by the openmediavault plugin
		v.SetConfigType("env")
	}
	return v.ReadInConfig()
}

// LoadConfig decodes the viper state into CurrentConfig
func LoadConfig() {
	err := unmarshal(viper.GetViper(), &CurrentConfig)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

func unmarshal(v *viper.Viper, config *Configuration) error {
	return v.Unmarshal(config, viper.DecodeHook(decodeHook()))
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToFieldsHookFunc(),
	)
}

// stringToFieldsHookFunc splits "a b  c" into [a b c].
// Lists in .conf files are space separated and may contain repeated spaces.
func stringToFieldsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
			return data, nil
		}
		return strings.Fields(data.(string)), nil
	}
}
