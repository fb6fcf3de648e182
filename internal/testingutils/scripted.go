package testingutils

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"sync"
)

// ScriptedFan is a fans.Fan that returns a fixed sequence of speed readings,
// independent of time and pwm
type ScriptedFan struct {
	mu sync.Mutex

	Id string
	// Readings are returned in order, the last one repeats
	Readings []int
	// ReadingAt overrides Readings when set
	ReadingAt func(read int) int
	// RpmError is returned by every GetRpm call once set
	RpmError error

	reads   int
	pwm     int
	enabled int
}

func NewScriptedFan(id string, readings ...int) *ScriptedFan {
	return &ScriptedFan{
		Id:       id,
		Readings: readings,
		enabled:  int(fans.ControlModeAutomatic),
	}
}

// Reads returns the number of GetRpm calls so far
func (fan *ScriptedFan) Reads() int {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	return fan.reads
}

func (fan *ScriptedFan) GetId() string {
	return fan.Id
}

func (fan *ScriptedFan) GetPwmOutput() string {
	return "/sys/class/hwmon/" + fan.Id + "/pwm1"
}

func (fan *ScriptedFan) GetRpm() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.RpmError != nil {
		return -1, fan.RpmError
	}
	read := fan.reads
	fan.reads++
	if fan.ReadingAt != nil {
		return fan.ReadingAt(read), nil
	}
	if len(fan.Readings) <= 0 {
		return 0, nil
	}
	return fan.Readings[min(read, len(fan.Readings)-1)], nil
}

func (fan *ScriptedFan) GetPwm() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	return fan.pwm, nil
}

func (fan *ScriptedFan) SetPwm(pwm int) error {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	fan.pwm = pwm
	return nil
}

func (fan *ScriptedFan) GetPwmEnabled() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	return fan.enabled, nil
}

func (fan *ScriptedFan) SetPwmEnabled(value fans.ControlMode) error {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	fan.enabled = int(value)
	return nil
}

func (fan *ScriptedFan) IsPwmAuto() (bool, error) {
	value, err := fan.GetPwmEnabled()
	return value > 1, err
}
