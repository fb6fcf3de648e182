package fans

import (
	"errors"
	"fmt"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

type ControlMode int

const (
	// ControlModeDisabled completely disables control, resulting in a 100% voltage/PWM signal output
	ControlModeDisabled ControlMode = 0
	// ControlModePWM enables manual, fixed speed control via setting the pwm value
	ControlModePWM ControlMode = 1
	// ControlModeAutomatic enables automatic control by the integrated control of the mainboard
	ControlModeAutomatic ControlMode = 2
)

var (
	// ErrMissingDeviceFile is returned when a pwm, pwm_enable or fan input file does not exist
	ErrMissingDeviceFile = errors.New("device file not found")
	// ErrMalformedDevicePath is returned when companion files cannot be derived from a pwm path
	ErrMalformedDevicePath = errors.New("device path does not follow the pwmN naming scheme")
	// ErrDeviceIO is returned when reading or writing a device file fails
	ErrDeviceIO = errors.New("device file io failed")
)

// Fan is a single PWM controlled fan with a tachometer
type Fan interface {
	GetId() string

	// GetPwmOutput returns the path of the pwm control file, which also identifies the fan in the cache
	GetPwmOutput() string

	// GetRpm returns the current RPM value of this fan
	GetRpm() (int, error)

	// GetPwm returns the current PWM value of this fan
	GetPwm() (int, error)
	// SetPwm sets the PWM value of this fan, clamped to [MinPwmValue, MaxPwmValue]
	SetPwm(pwm int) error

	// GetPwmEnabled returns the current "pwm_enable" value of this fan
	GetPwmEnabled() (int, error)
	SetPwmEnabled(value ControlMode) error
	// IsPwmAuto indicates whether this fan is in "Auto" mode
	IsPwmAuto() (bool, error)
}

// Settings is the pwm state of a fan before hddfanctrl took over
type Settings struct {
	PwmEnabled int
	Pwm        int
}

// SaveSettings reads the current pwm_enable and pwm values of the fan
func SaveSettings(fan Fan) (settings Settings, err error) {
	settings.PwmEnabled, err = fan.GetPwmEnabled()
	if err != nil {
		return settings, err
	}
	settings.Pwm, err = fan.GetPwm()
	return settings, err
}

// RestoreSettings writes back previously saved settings.
// The pwm value is written first, while the fan is still in manual mode.
func RestoreSettings(fan Fan, settings Settings) error {
	pwmErr := fan.SetPwm(settings.Pwm)
	enableErr := fan.SetPwmEnabled(ControlMode(settings.PwmEnabled))
	return errors.Join(pwmErr, enableErr)
}

// SetManualPwm switches the fan to manual pwm control
func SetManualPwm(fan Fan) error {
	err := fan.SetPwmEnabled(ControlModePWM)
	if err != nil {
		return fmt.Errorf("could not enable manual pwm control on %s: %w", fan.GetId(), err)
	}
	return nil
}
