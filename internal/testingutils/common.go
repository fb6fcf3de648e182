package testingutils

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/util"
	"math/rand"
	"sync"
	"time"
)

var (
	// ThresholdFan spins at 6 rpm per pwm step from pwm 80 upwards
	ThresholdFan = StepResponse(80, 6)

	// ConstantFan always reports 1200 rpm
	ConstantFan = func(pwm int) int { return 1200 }

	// NeverStoppingFan reports at least 300 rpm, even at pwm 0
	NeverStoppingFan = func(pwm int) int { return 300 + 4*pwm }
)

// StepResponse returns a speed curve of a fan that is stationary below threshold
// and spins at rpmPerPwm * pwm at and above it
func StepResponse(threshold int, rpmPerPwm int) func(pwm int) int {
	return func(pwm int) int {
		if pwm < threshold {
			return 0
		}
		return rpmPerPwm * pwm
	}
}

// VirtualClock is a util.Clock whose time only advances when Sleep is called
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Elapsed returns the virtual time passed since start
func (c *VirtualClock) Elapsed(start time.Time) time.Duration {
	return c.Now().Sub(start)
}

// AlternatingNoise adds amplitude to the reading of every other update
func AlternatingNoise(amplitude int) func(tick int64) int {
	return func(tick int64) int {
		if tick%2 == 0 {
			return 0
		}
		return amplitude
	}
}

// RandomNoise returns a reproducible noise in [-amplitude, amplitude] per update
func RandomNoise(seed int64, amplitude int) func(tick int64) int {
	return func(tick int64) int {
		r := rand.New(rand.NewSource(seed*7919 + tick))
		return r.Intn(2*amplitude+1) - amplitude
	}
}

type pwmChange struct {
	at  time.Time
	pwm int
}

// SimulatedFan is an in-memory fans.Fan. Its tachometer is refreshed every
// UpdatePeriod (shifted by Phase) and reports the speed of the pwm value that
// was active at the last refresh.
type SimulatedFan struct {
	mu sync.Mutex

	Id           string
	PwmOutput    string
	Clock        util.Clock
	UpdatePeriod time.Duration
	Phase        time.Duration
	RpmAt        func(pwm int) int
	Noise        func(tick int64) int

	// RpmError is returned by GetRpm once set
	RpmError error
	// SettingsError is returned by GetPwmEnabled once set
	SettingsError error

	epoch   time.Time
	enabled int
	history []pwmChange

	PwmWrites    []int
	EnableWrites []int
}

func NewSimulatedFan(id string, clock util.Clock, rpmAt func(pwm int) int) *SimulatedFan {
	now := clock.Now()
	return &SimulatedFan{
		Id:           id,
		PwmOutput:    fmt.Sprintf("/sys/class/hwmon/%s/pwm1", id),
		Clock:        clock,
		UpdatePeriod: 1 * time.Second,
		RpmAt:        rpmAt,
		Noise:        AlternatingNoise(2),
		epoch:        now,
		enabled:      int(fans.ControlModeAutomatic),
		history:      []pwmChange{{at: now, pwm: 128}},
	}
}

func (fan *SimulatedFan) GetId() string {
	return fan.Id
}

func (fan *SimulatedFan) GetPwmOutput() string {
	return fan.PwmOutput
}

func (fan *SimulatedFan) GetRpm() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.RpmError != nil {
		return -1, fan.RpmError
	}

	tick, tickTime := fan.lastTick(fan.Clock.Now())
	base := fan.RpmAt(fan.pwmAt(tickTime))
	if base <= 0 {
		return 0, nil
	}
	noise := 0
	if fan.Noise != nil {
		noise = fan.Noise(tick)
	}
	return max(base+noise, 0), nil
}

// lastTick returns the index and time of the most recent tachometer refresh
func (fan *SimulatedFan) lastTick(now time.Time) (int64, time.Time) {
	first := fan.epoch.Add(fan.Phase)
	if now.Before(first) {
		return -1, fan.epoch
	}
	tick := int64(now.Sub(first) / fan.UpdatePeriod)
	return tick, first.Add(time.Duration(tick) * fan.UpdatePeriod)
}

func (fan *SimulatedFan) pwmAt(t time.Time) int {
	pwm := fan.history[0].pwm
	for _, change := range fan.history {
		if change.at.After(t) {
			break
		}
		pwm = change.pwm
	}
	return pwm
}

func (fan *SimulatedFan) GetPwm() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	return fan.history[len(fan.history)-1].pwm, nil
}

func (fan *SimulatedFan) SetPwm(pwm int) error {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	target := util.Clamp(pwm, fans.MinPwmValue, fans.MaxPwmValue)
	fan.PwmWrites = append(fan.PwmWrites, target)
	fan.history = append(fan.history, pwmChange{at: fan.Clock.Now(), pwm: target})
	return nil
}

func (fan *SimulatedFan) GetPwmEnabled() (int, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.SettingsError != nil {
		return -1, fan.SettingsError
	}
	return fan.enabled, nil
}

func (fan *SimulatedFan) SetPwmEnabled(value fans.ControlMode) error {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	fan.EnableWrites = append(fan.EnableWrites, int(value))
	fan.enabled = int(value)
	return nil
}

func (fan *SimulatedFan) IsPwmAuto() (bool, error) {
	value, err := fan.GetPwmEnabled()
	if err != nil {
		return false, err
	}
	return value > 1, nil
}

// WriteCount returns the number of pwm and pwm_enable writes so far
func (fan *SimulatedFan) WriteCount() int {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	return len(fan.PwmWrites) + len(fan.EnableWrites)
}
