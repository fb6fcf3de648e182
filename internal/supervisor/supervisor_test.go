package supervisor

import (
	"errors"
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/testingutils"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func simulatedFanFactory(clock util.Clock, created map[string]*testingutils.SimulatedFan) FanFactory {
	return func(pwmOutput string) (fans.Fan, error) {
		fan := testingutils.NewSimulatedFan(fmt.Sprintf("fan%d", len(created)+1), clock, testingutils.ThresholdFan)
		fan.PwmOutput = pwmOutput
		created[pwmOutput] = fan
		return fan, nil
	}
}

func TestSupervisor_Run_FailureIsolation(t *testing.T) {
	// GIVEN
	clock := testingutils.NewVirtualClock()
	created := map[string]*testingutils.SimulatedFan{}
	simulated := simulatedFanFactory(clock, created)
	factory := func(pwmOutput string) (fans.Fan, error) {
		switch pwmOutput {
		case "missing/pwm1":
			return nil, fmt.Errorf("%w: missing/pwm1", fans.ErrMissingDeviceFile)
		case "broken/pwm1":
			panic("driver exploded")
		}
		return simulated(pwmOutput)
	}
	registry := NewRegistry()
	supervisor := NewSupervisor(Config{
		PwmOutputs: []string{"a/pwm1", "missing/pwm1", "broken/pwm1", "b/pwm1"},
		Parameters: calibration.DefaultParameters(),
		Parallel:   false,
		Clock:      clock,
		FanFactory: factory,
	}, registry)

	// WHEN
	reports := supervisor.Run()

	// THEN
	assert.Len(t, reports, 4)
	assert.Equal(t, "a/pwm1", reports[0].PwmOutput)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, 70, reports[0].Result.StopPwm)
	assert.Equal(t, 90, reports[0].Result.StartPwm)

	assert.ErrorIs(t, reports[1].Err, fans.ErrMissingDeviceFile)
	assert.ErrorContains(t, reports[2].Err, "driver exploded")

	assert.Equal(t, "b/pwm1", reports[3].PwmOutput)
	assert.NoError(t, reports[3].Err)

	// no fan handle, no writes
	assert.Len(t, created, 2)

	statuses := registry.List()
	assert.Len(t, statuses, 4)
	assert.Equal(t, StateDone, statuses[0].State)
	assert.Equal(t, "fan1", statuses[0].Id)
	assert.Equal(t, StateFailed, statuses[1].State)
	assert.Equal(t, StateFailed, statuses[2].State)
	assert.Equal(t, StateDone, statuses[3].State)
	assert.Equal(t, len(reports[0].Result.Trace), len(statuses[0].Probes))
}

func TestSupervisor_Run_Parallel(t *testing.T) {
	// GIVEN
	params := calibration.DefaultParameters()
	params.DefaultSamplePeriod = 5 * time.Millisecond
	params.StabilityTimeout = 5 * time.Second
	params.PeriodPollInterval = 1 * time.Millisecond
	params.PeriodTimeout = 5 * time.Second

	clock := util.SystemClock()
	fast := testingutils.NewSimulatedFan("fast", clock, testingutils.StepResponse(80, 6))
	fast.UpdatePeriod = 2 * time.Millisecond
	slow := testingutils.NewSimulatedFan("slow", clock, testingutils.StepResponse(120, 6))
	slow.UpdatePeriod = 20 * time.Millisecond
	simulated := map[string]fans.Fan{
		"fast/pwm1": fast,
		"slow/pwm1": slow,
	}

	registry := NewRegistry()
	supervisor := NewSupervisor(Config{
		PwmOutputs: []string{"slow/pwm1", "fast/pwm1"},
		Parameters: params,
		Parallel:   true,
		Clock:      clock,
		FanFactory: func(pwmOutput string) (fans.Fan, error) {
			return simulated[pwmOutput], nil
		},
	}, registry)

	// WHEN
	reports := supervisor.Run()

	// THEN
	assert.Len(t, reports, 2)
	slowReport, fastReport := reports[0], reports[1]
	assert.NoError(t, slowReport.Err)
	assert.NoError(t, fastReport.Err)
	assert.Equal(t, "slow", slowReport.FanId)
	assert.Equal(t, 110, slowReport.Result.StopPwm)
	assert.Equal(t, 130, slowReport.Result.StartPwm)
	assert.Equal(t, "fast", fastReport.FanId)
	assert.Equal(t, 70, fastReport.Result.StopPwm)
	assert.Equal(t, 90, fastReport.Result.StartPwm)
	assert.True(t, fastReport.FinishedAt.Before(slowReport.FinishedAt))

	for _, fan := range []*testingutils.SimulatedFan{fast, slow} {
		assert.Equal(t, []int{int(fans.ControlModePWM), int(fans.ControlModeAutomatic)}, fan.EnableWrites)
		pwm, _ := fan.GetPwm()
		assert.Equal(t, 128, pwm)
	}
}

func TestSuccessful(t *testing.T) {
	// GIVEN
	reports := []Report{
		{PwmOutput: "a"},
		{PwmOutput: "b", Err: errors.New("failed")},
		{PwmOutput: "c"},
	}

	// WHEN
	result := Successful(reports)

	// THEN
	assert.Equal(t, []Report{reports[0], reports[2]}, result)
}

func TestUpdatedCache(t *testing.T) {
	// GIVEN
	prior := cache.Entries{
		"a": {PwmOutput: "a", MaxRpm: 1000, StopPwm: 50, StartPwm: 70},
		"b": {PwmOutput: "b", MaxRpm: 900, StopPwm: 60, StartPwm: 80},
		"z": {PwmOutput: "z", MaxRpm: 800, StopPwm: 40, StartPwm: 60},
	}
	reports := []Report{
		{PwmOutput: "a", Result: calibration.Result{StopPwm: 70, StartPwm: 90, MaxRpm: 1530}},
		{PwmOutput: "b", Err: errors.New("failed")},
		{PwmOutput: "c", Err: errors.New("failed")},
	}

	// WHEN
	entries := UpdatedCache(prior, reports)

	// THEN
	assert.Equal(t, []cache.Entry{
		{PwmOutput: "a", MaxRpm: 1530, StopPwm: 70, StartPwm: 90},
		{PwmOutput: "b", MaxRpm: 900, StopPwm: 60, StartPwm: 80},
	}, entries)
}

func TestMergedCache_KeepsFansOutsideOfRun(t *testing.T) {
	// GIVEN
	stored := cache.Entries{
		"/sys/class/hwmon/hwmon2/pwm1": {PwmOutput: "/sys/class/hwmon/hwmon2/pwm1", MaxRpm: 1450, StopPwm: 70, StartPwm: 90},
		"/sys/class/hwmon/hwmon2/pwm2": {PwmOutput: "/sys/class/hwmon/hwmon2/pwm2", MaxRpm: 980, StopPwm: 110, StartPwm: 130},
		"/sys/class/hwmon/hwmon2/pwm3": {PwmOutput: "/sys/class/hwmon/hwmon2/pwm3", MaxRpm: 800, StopPwm: 40, StartPwm: 60},
	}
	reports := []Report{
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm2", Result: calibration.Result{StopPwm: 60, StartPwm: 80, MaxRpm: 910}},
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm3", Err: errors.New("failed")},
	}

	// WHEN
	entries := MergedCache(stored, reports)

	// THEN
	assert.Equal(t, []cache.Entry{
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm1", MaxRpm: 1450, StopPwm: 70, StartPwm: 90},
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm2", MaxRpm: 910, StopPwm: 60, StartPwm: 80},
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm3", MaxRpm: 800, StopPwm: 40, StartPwm: 60},
	}, entries)
	assert.Len(t, stored, 3)
	assert.Equal(t, 110, stored["/sys/class/hwmon/hwmon2/pwm2"].StopPwm)
}

func TestMergedCache_EmptyStore(t *testing.T) {
	// GIVEN
	reports := []Report{
		{PwmOutput: "b", Result: calibration.Result{StopPwm: 60, StartPwm: 80, MaxRpm: 910}},
		{PwmOutput: "a", Err: errors.New("failed")},
	}

	// WHEN
	entries := MergedCache(cache.Entries{}, reports)

	// THEN
	assert.Equal(t, []cache.Entry{{PwmOutput: "b", MaxRpm: 910, StopPwm: 60, StartPwm: 80}}, entries)
}
