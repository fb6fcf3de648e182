package fans

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"path/filepath"
	"regexp"
	"strconv"
)

var pwmPathPattern = regexp.MustCompile(`^(?P<path>.+)pwm(?P<index>[0-9]+)$`)

// HwMonFan is a fan exposed through the hwmon sysfs interface:
// <dir>/pwmN, <dir>/pwmN_enable and <dir>/fanN_input
type HwMonFan struct {
	Id        string `json:"id"`
	Index     int    `json:"index"`
	PwmOutput string `json:"pwmoutput"`
	PwmEnable string `json:"pwmenable"`
	RpmInput  string `json:"rpminput"`
}

// NewHwMonFan derives the companion files of the given pwm file and
// verifies that all of them exist.
func NewHwMonFan(pwmOutput string) (*HwMonFan, error) {
	if !util.FileExists(pwmOutput) {
		return nil, fmt.Errorf("%w: expected PWM file at %s", ErrMissingDeviceFile, pwmOutput)
	}

	match := pwmPathPattern.FindStringSubmatch(pwmOutput)
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedDevicePath, pwmOutput)
	}
	basePath := match[pwmPathPattern.SubexpIndex("path")]
	indexText := match[pwmPathPattern.SubexpIndex("index")]
	index, err := strconv.Atoi(indexText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedDevicePath, pwmOutput)
	}

	fan := &HwMonFan{
		Id:        computeId(basePath, index),
		Index:     index,
		PwmOutput: pwmOutput,
		PwmEnable: fmt.Sprintf("%spwm%s_enable", basePath, indexText),
		RpmInput:  fmt.Sprintf("%sfan%s_input", basePath, indexText),
	}

	if !util.FileExists(fan.PwmEnable) {
		return nil, fmt.Errorf("%w: expected PWM enable file at %s", ErrMissingDeviceFile, fan.PwmEnable)
	}
	if !util.FileExists(fan.RpmInput) {
		return nil, fmt.Errorf("%w: expected current RPM file at %s", ErrMissingDeviceFile, fan.RpmInput)
	}

	return fan, nil
}

// computeId builds a short, url friendly identifier like "hwmon2-pwm1"
func computeId(basePath string, index int) string {
	device := filepath.Base(basePath)
	if len(basePath) <= 0 || device == "." || device == string(filepath.Separator) {
		return fmt.Sprintf("pwm%d", index)
	}
	return fmt.Sprintf("%s-pwm%d", device, index)
}

func (fan HwMonFan) GetId() string {
	return fan.Id
}

func (fan HwMonFan) GetPwmOutput() string {
	return fan.PwmOutput
}

func (fan HwMonFan) GetRpm() (int, error) {
	value, err := util.ReadIntFromFile(fan.RpmInput)
	if err != nil {
		return -1, fmt.Errorf("%w: reading %s: %v", ErrDeviceIO, fan.RpmInput, err)
	}
	return value, nil
}

func (fan HwMonFan) GetPwm() (int, error) {
	value, err := util.ReadIntFromFile(fan.PwmOutput)
	if err != nil {
		return MinPwmValue, fmt.Errorf("%w: reading %s: %v", ErrDeviceIO, fan.PwmOutput, err)
	}
	return value, nil
}

func (fan *HwMonFan) SetPwm(pwm int) error {
	target := util.Clamp(pwm, MinPwmValue, MaxPwmValue)
	if target != pwm {
		ui.Warning("Tried to set out-of-bounds PWM value %d on fan %s", pwm, fan.Id)
	}
	ui.Debug("Setting %s to %d ...", fan.Id, target)

	err := util.WriteIntToFile(target, fan.PwmOutput)
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrDeviceIO, fan.PwmOutput, err)
	}
	return nil
}

func (fan HwMonFan) GetPwmEnabled() (int, error) {
	value, err := util.ReadIntFromFile(fan.PwmEnable)
	if err != nil {
		return -1, fmt.Errorf("%w: reading %s: %v", ErrDeviceIO, fan.PwmEnable, err)
	}
	return value, nil
}

func (fan HwMonFan) IsPwmAuto() (bool, error) {
	value, err := fan.GetPwmEnabled()
	if err != nil {
		return false, err
	}
	return value > 1, nil
}

// SetPwmEnabled writes the given value to pwmX_enable
// Possible values (unsure if these are true for all scenarios):
// 0 - no control (results in max speed)
// 1 - manual pwm control
// 2 - motherboard pwm control
func (fan *HwMonFan) SetPwmEnabled(value ControlMode) error {
	err := util.WriteIntToFile(int(value), fan.PwmEnable)
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrDeviceIO, fan.PwmEnable, err)
	}
	currentValue, err := util.ReadIntFromFile(fan.PwmEnable)
	if err != nil || currentValue != int(value) {
		return fmt.Errorf("%w: PWM mode of %s stuck to %d", ErrDeviceIO, fan.Id, currentValue)
	}
	return nil
}
