package internal

import (
	"context"
	"errors"
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/daemon"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"github.com/markusressel/hddfanctrl/internal/testingutils"
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

type recordingLauncher struct {
	invocations []daemon.Invocation
	exitCode    int
	err         error
}

func (l *recordingLauncher) launch(ctx context.Context, invocation daemon.Invocation) (int, error) {
	l.invocations = append(l.invocations, invocation)
	return l.exitCode, l.err
}

func createConfig(t *testing.T) configuration.Configuration {
	return configuration.Configuration{
		FanPwmFiles:        []string{"a/pwm1", "b/pwm1"},
		DriveTempFile:      []string{"/dev/sda"},
		MinTemp:            30,
		MaxTemp:            50,
		TempUpdateInterval: 60,
		CacheFile:          filepath.Join(t.TempDir(), "fan-cache"),
		DaemonExecutable:   "/opt/omv-hddfanctrl/venv/bin/hddfancontrol",
		DeveloperModeFile:  filepath.Join(t.TempDir(), "developer-mode"),
	}
}

func createReports() []supervisor.Report {
	return []supervisor.Report{
		{PwmOutput: "a/pwm1", Result: calibration.Result{StopPwm: 70, StartPwm: 90, MaxRpm: 1530}},
		{PwmOutput: "b/pwm1", Err: errors.New("failed")},
	}
}

func TestHandOff_LaunchesDaemonWithCalibratedFans(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	launcher := &recordingLauncher{exitCode: 3}

	// WHEN
	exitCode := HandOff(context.Background(), config, createReports(), launcher.launch)

	// THEN
	assert.Equal(t, 3, exitCode)
	assert.Len(t, launcher.invocations, 1)
	invocation := launcher.invocations[0]
	assert.Equal(t, config.DaemonExecutable, invocation.Executable)
	assert.Contains(t, invocation.Args, "a/pwm1")
	assert.NotContains(t, invocation.Args, "b/pwm1")
}

func TestHandOff_DeveloperMode(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	err := os.WriteFile(config.DeveloperModeFile, []byte{}, 0644)
	assert.NoError(t, err)
	launcher := &recordingLauncher{exitCode: 3}

	// WHEN
	exitCode := HandOff(context.Background(), config, createReports(), launcher.launch)

	// THEN
	assert.Equal(t, 0, exitCode)
	assert.Empty(t, launcher.invocations)
}

func TestHandOff_NoCalibratedFans(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	launcher := &recordingLauncher{}
	reports := []supervisor.Report{
		{PwmOutput: "a/pwm1", Err: errors.New("failed")},
	}

	// WHEN
	exitCode := HandOff(context.Background(), config, reports, launcher.launch)

	// THEN
	assert.Equal(t, exitCodeNotStarted, exitCode)
	assert.Empty(t, launcher.invocations)
}

func TestHandOff_Interrupted(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	launcher := &recordingLauncher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	exitCode := HandOff(ctx, config, createReports(), launcher.launch)

	// THEN
	assert.Equal(t, exitCodeNotStarted, exitCode)
	assert.Empty(t, launcher.invocations)
}

func TestHandOff_LaunchError(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	launcher := &recordingLauncher{exitCode: 1, err: errors.New("cannot execute")}

	// WHEN
	exitCode := HandOff(context.Background(), config, createReports(), launcher.launch)

	// THEN
	assert.Equal(t, 1, exitCode)
	assert.Len(t, launcher.invocations, 1)
}

func TestLoadCache_Unreadable(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "fan-cache")
	err := os.Mkdir(path, 0755)
	assert.NoError(t, err)

	// WHEN
	entries := LoadCache(cache.NewFileStore(path))

	// THEN
	assert.Empty(t, entries)
}

func TestCalibrate_RewritesCache(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	store := cache.NewFileStore(config.CacheFile)
	prior := cache.Entries{
		"b/pwm1": {PwmOutput: "b/pwm1", MaxRpm: 900, StopPwm: 60, StartPwm: 80},
		"z/pwm1": {PwmOutput: "z/pwm1", MaxRpm: 800, StopPwm: 40, StartPwm: 60},
	}

	clock := testingutils.NewVirtualClock()
	fanSupervisor := supervisor.NewSupervisor(supervisor.Config{
		PwmOutputs: config.FanPwmFiles,
		Cache:      prior,
		Parameters: calibration.DefaultParameters(),
		Clock:      clock,
		FanFactory: func(pwmOutput string) (fans.Fan, error) {
			if pwmOutput == "b/pwm1" {
				return nil, fmt.Errorf("%w: %s", fans.ErrMissingDeviceFile, pwmOutput)
			}
			fan := testingutils.NewSimulatedFan("fan1", clock, testingutils.ThresholdFan)
			fan.PwmOutput = pwmOutput
			return fan, nil
		},
	}, nil)

	// WHEN
	reports := Calibrate(fanSupervisor, store, prior)

	// THEN
	assert.Len(t, reports, 2)
	assert.NoError(t, reports[0].Err)
	assert.Error(t, reports[1].Err)

	entries, err := store.Load()
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 70, entries["a/pwm1"].StopPwm)
	assert.Equal(t, 90, entries["a/pwm1"].StartPwm)
	assert.Equal(t, prior["b/pwm1"], entries["b/pwm1"])
	assert.Nil(t, entries.Get("z/pwm1"))
}

func TestCalibrateAndMerge_KeepsOtherFans(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	store := cache.NewFileStore(config.CacheFile)
	stored := cache.Entries{
		"a/pwm1": {PwmOutput: "a/pwm1", MaxRpm: 1000, StopPwm: 100, StartPwm: 120},
		"b/pwm1": {PwmOutput: "b/pwm1", MaxRpm: 900, StopPwm: 60, StartPwm: 80},
		"z/pwm1": {PwmOutput: "z/pwm1", MaxRpm: 800, StopPwm: 40, StartPwm: 60},
	}
	err := store.Save(stored.Sorted())
	assert.NoError(t, err)

	clock := testingutils.NewVirtualClock()
	fanSupervisor := supervisor.NewSupervisor(supervisor.Config{
		PwmOutputs: []string{"a/pwm1", "b/pwm1"},
		Cache:      cache.Entries{},
		Parameters: calibration.DefaultParameters(),
		Clock:      clock,
		FanFactory: func(pwmOutput string) (fans.Fan, error) {
			if pwmOutput == "b/pwm1" {
				return nil, fmt.Errorf("%w: %s", fans.ErrMissingDeviceFile, pwmOutput)
			}
			fan := testingutils.NewSimulatedFan("fan1", clock, testingutils.ThresholdFan)
			fan.PwmOutput = pwmOutput
			return fan, nil
		},
	}, nil)

	// WHEN
	reports := CalibrateAndMerge(fanSupervisor, store, stored)

	// THEN
	assert.Len(t, reports, 2)

	entries, err := store.Load()
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, 70, entries["a/pwm1"].StopPwm)
	assert.Equal(t, 90, entries["a/pwm1"].StartPwm)
	assert.Equal(t, stored["b/pwm1"], entries["b/pwm1"])
	assert.Equal(t, stored["z/pwm1"], entries["z/pwm1"])
}
