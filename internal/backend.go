package internal

import (
	"context"
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/markusressel/hddfanctrl/internal/api"
	"github.com/markusressel/hddfanctrl/internal/cache"
	"github.com/markusressel/hddfanctrl/internal/calibration"
	"github.com/markusressel/hddfanctrl/internal/configuration"
	"github.com/markusressel/hddfanctrl/internal/daemon"
	"github.com/markusressel/hddfanctrl/internal/statistics"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// exit code used when the daemon was not started
const exitCodeNotStarted = 1

// Launcher starts the downstream daemon and returns its exit code
type Launcher func(ctx context.Context, invocation daemon.Invocation) (int, error)

// RunDaemon calibrates all configured fans, persists the results and hands
// the thresholds over to the temperature control daemon.
// It returns the exit code of the daemon, or 1 if it could not be started.
func RunDaemon(config configuration.Configuration) int {
	if !util.IsRoot() {
		ui.Fatal("Calibration requires root permissions to be able to modify fan speeds, please run hddfanctrl as root")
	}

	store := cache.NewFileStore(config.CacheFile)
	entries := LoadCache(store)

	registry := supervisor.NewRegistry()
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	statistics.Register(metrics, statistics.NewCalibrationCollector(registry))

	fanSupervisor := supervisor.NewSupervisor(supervisor.Config{
		PwmOutputs: config.FanPwmFiles,
		Cache:      entries,
		Parameters: calibration.ParametersFromConfig(config.Calibration),
		Parallel:   config.CalibrateInParallel,
	}, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exitCode := exitCodeNotStarted

	var g run.Group
	{
		// === calibration and hand-off
		g.Add(func() error {
			reports := Calibrate(fanSupervisor, store, entries)
			exitCode = HandOff(ctx, config, reports, daemon.Launch)
			return nil
		}, func(err error) {
			cancel()
		})
	}
	if config.Statistics.Enabled {
		// === Prometheus Exporter
		server := api.CreateMetricsServer(metrics)
		addr := fmt.Sprintf(":%d", config.Statistics.Port)
		addServer(ctx, &g, "statistics", server, addr)
	}
	if config.Api.Enabled {
		// === REST api
		server := api.CreateRestService(registry, metrics, metrics)
		addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)
		addServer(ctx, &g, "api", server, addr)
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case s := <-sig:
				ui.Info("Received %s signal, exiting...", s)
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		ui.Error("%v", err)
		return exitCodeNotStarted
	}
	return exitCode
}

// addServer runs an echo server until ctx is done.
// A server that cannot be started is logged and does not stop the calibration.
func addServer(ctx context.Context, g *run.Group, name string, server *echo.Echo, addr string) {
	g.Add(func() error {
		go func() {
			ui.Info("Starting %s server on %s", name, addr)
			if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				ui.Error("Cannot start %s server (%v)", name, err)
			}
		}()
		<-ctx.Done()

		ui.Info("Stopping %s server...", name)
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		return server.Shutdown(timeoutCtx)
	}, func(err error) {
		if err != nil {
			ui.Warning("Error stopping %s server: %v", name, err)
		}
	})
}

// LoadCache reads the cache, problems with it are not fatal
func LoadCache(store cache.Store) cache.Entries {
	if err := store.Init(); err != nil {
		ui.Warning("Cannot prepare cache at %s: %v", store.Path(), err)
	}
	entries, err := store.Load()
	if err != nil {
		ui.Warning("Cannot read cache at %s, calibrating all fans: %v", store.Path(), err)
		return cache.Entries{}
	}
	return entries
}

// Calibrate runs all workers and rewrites the cache with their results.
// Calibration is never interrupted, every worker restores its fan on its own.
func Calibrate(fanSupervisor *supervisor.Supervisor, store cache.Store, prior cache.Entries) []supervisor.Report {
	reports := fanSupervisor.Run()
	saveCache(store, supervisor.UpdatedCache(prior, reports))
	return reports
}

// CalibrateAndMerge runs all workers and stores their results next to the
// stored entries of fans that were not part of this run.
func CalibrateAndMerge(fanSupervisor *supervisor.Supervisor, store cache.Store, stored cache.Entries) []supervisor.Report {
	reports := fanSupervisor.Run()
	saveCache(store, supervisor.MergedCache(stored, reports))
	return reports
}

func saveCache(store cache.Store, entries []cache.Entry) {
	if err := store.Save(entries); err != nil {
		ui.Error("Cannot write cache at %s: %v", store.Path(), err)
		return
	}
	ui.Debug("Saved %d entries to %s", len(entries), store.Path())
}

// HandOff starts the temperature control daemon with the calibrated thresholds
// and returns its exit code.
func HandOff(ctx context.Context, config configuration.Configuration, reports []supervisor.Report, launch Launcher) int {
	if ctx.Err() != nil {
		ui.Warning("Interrupted during calibration, not starting %s", config.DaemonExecutable)
		return exitCodeNotStarted
	}

	thresholds := daemon.FromReports(reports)
	if failed := len(reports) - len(thresholds); failed > 0 {
		ui.Warning("%d of %d fans could not be calibrated and are left out", failed, len(reports))
	}

	invocation, err := daemon.BuildInvocation(config, thresholds)
	if err != nil {
		ui.Error("Cannot start %s: %v", config.DaemonExecutable, err)
		return exitCodeNotStarted
	}

	if daemon.IsDeveloperMode(config.DeveloperModeFile) {
		ui.Info("Developer mode is enabled, not starting: %s", invocation)
		return 0
	}

	exitCode, err := launch(ctx, invocation)
	if err != nil {
		ui.Error("%v", err)
	}
	return exitCode
}
