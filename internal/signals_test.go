package internal

import (
	"github.com/stretchr/testify/assert"
	"os"
	"syscall"
	"testing"
)

func TestRunToCompletion_SignalDoesNotStopAction(t *testing.T) {
	// GIVEN
	sig := make(chan os.Signal)
	restored := false

	// WHEN
	received := runToCompletion(sig, func() {
		// blocks until the signal has been picked up
		sig <- syscall.SIGTERM
		restored = true
	})

	// THEN
	assert.True(t, restored)
	assert.Equal(t, syscall.SIGTERM, received)
}

func TestRunToCompletion_NoSignal(t *testing.T) {
	// GIVEN
	sig := make(chan os.Signal)
	calls := 0

	// WHEN
	received := runToCompletion(sig, func() {
		calls++
	})

	// THEN
	assert.Equal(t, 1, calls)
	assert.Nil(t, received)
}
