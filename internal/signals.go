package internal

import (
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/oklog/run"
	"os"
	"os/signal"
	"syscall"
)

// RunToCompletion runs action with SIGINT and SIGTERM caught, so a running
// calibration can finish and restore its fans before the process exits.
// It returns the first signal received while action was running, or nil.
func RunToCompletion(action func()) os.Signal {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	return runToCompletion(sig, action)
}

func runToCompletion(sig <-chan os.Signal, action func()) (received os.Signal) {
	var g run.Group
	{
		g.Add(func() error {
			action()
			return nil
		}, func(err error) {
			// action is never cancelled
		})
	}
	{
		done := make(chan struct{})
		g.Add(func() error {
			select {
			case s := <-sig:
				received = s
				ui.Warning("Received %s signal, waiting for fans to be restored...", s)
			case <-done:
			}
			return nil
		}, func(err error) {
			close(done)
		})
	}
	_ = g.Run()
	return received
}
