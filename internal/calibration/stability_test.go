package calibration

import (
	"errors"
	"github.com/markusressel/hddfanctrl/internal/testingutils"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestWaitUntilStable_NeedsFullWindow(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1", 1000)
	detector := NewStabilityDetector(fan, clock, DefaultParameters())
	start := clock.Now()

	// WHEN
	speed, err := detector.WaitUntilStable(128)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, speed)
	assert.Equal(t, 5, fan.Reads())
	assert.Equal(t, 10*time.Second, clock.Elapsed(start))
	pwm, _ := fan.GetPwm()
	assert.Equal(t, 128, pwm)
}

func TestWaitUntilStable_WaitsForTrendToEnd(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1", 100, 200, 300, 400, 500, 600, 610, 605, 607, 606, 2000)
	detector := NewStabilityDetector(fan, clock, DefaultParameters())

	// WHEN
	speed, err := detector.WaitUntilStable(200)

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 605.6, speed, 0.001)
	assert.Equal(t, 10, fan.Reads())
}

func TestWaitUntilStable_RelativeDeviation(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1", 5000, 5100, 4950, 5080, 4990)
	detector := NewStabilityDetector(fan, clock, DefaultParameters())

	// WHEN
	speed, err := detector.WaitUntilStable(255)

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 5024.0, speed, 0.001)
	assert.Equal(t, 5, fan.Reads())
}

func TestWaitUntilStable_StoppedFan(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1", 0)
	detector := NewStabilityDetector(fan, clock, DefaultParameters())

	// WHEN
	speed, err := detector.WaitUntilStable(0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 0.0, speed)
}

func TestWaitUntilStable_Timeout(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1")
	fan.ReadingAt = func(read int) int {
		return 1000 + 100*read
	}
	detector := NewStabilityDetector(fan, clock, DefaultParameters())
	start := clock.Now()

	// WHEN
	speed, err := detector.WaitUntilStable(255)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 60*time.Second, clock.Elapsed(start))
	assert.Equal(t, 25, fan.Reads())
	// mean of the last 5 readings 3000..3400
	assert.InDelta(t, 3200.0, speed, 0.001)
}

func TestWaitUntilStable_TimeoutNeverExceeded(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1")
	fan.ReadingAt = func(read int) int {
		return 3000 - 50*read
	}
	detector := NewStabilityDetector(fan, clock, DefaultParameters())
	detector.SetSamplePeriod(7 * time.Second)
	start := clock.Now()

	// WHEN
	_, err := detector.WaitUntilStable(255)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 60*time.Second, clock.Elapsed(start))
	// 0, 7, ..., 56 and 60
	assert.Equal(t, 10, fan.Reads())
}

func TestWaitUntilStable_ReadError(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	fan := testingutils.NewScriptedFan("fan1", 1000)
	fan.RpmError = errors.New("read failed")
	detector := NewStabilityDetector(fan, clock, DefaultParameters())

	// WHEN
	_, err := detector.WaitUntilStable(255)

	// THEN
	assert.EqualError(t, err, "read failed")
}

func TestSetSamplePeriod_IgnoresInvalid(t *testing.T) {
	// GIVEN
	detector := NewStabilityDetector(testingutils.NewScriptedFan("fan1"), testingutils.NewVirtualClock(), DefaultParameters())

	// WHEN
	detector.SetSamplePeriod(0)

	// THEN
	assert.Equal(t, 2500*time.Millisecond, detector.SamplePeriod())
}

func TestIsMonotonic(t *testing.T) {
	tests := []struct {
		name     string
		rpms     []int
		expected bool
	}{
		{"rising", []int{1, 2, 3, 4, 5}, true},
		{"falling", []int{5, 4, 3, 2, 1}, true},
		{"plateau", []int{1, 2, 2, 3, 4}, false},
		{"zigzag", []int{1, 3, 2, 4, 5}, false},
		{"constant", []int{7, 7, 7, 7, 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			samples := make([]SpeedSample, len(tt.rpms))
			for i, rpm := range tt.rpms {
				samples[i] = SpeedSample{Rpm: rpm}
			}

			// WHEN
			result := isMonotonic(samples)

			// THEN
			assert.Equal(t, tt.expected, result)
		})
	}
}
