package cache

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_LoadMissing(t *testing.T) {
	// GIVEN
	store := NewFileStore(filepath.Join(t.TempDir(), "fan-cache"))

	// WHEN
	entries, err := store.Load()

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "omv-hddfanctrl", "fan-cache")
	store := NewFileStore(path)
	entries := []Entry{
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm1", MaxRpm: 1450, StopPwm: 70, StartPwm: 90},
	}

	// WHEN
	err := store.Init()
	assert.NoError(t, err)
	err = store.Save(entries)
	assert.NoError(t, err)
	loaded, err := store.Load()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Entries{"/sys/class/hwmon/hwmon2/pwm1": entries[0]}, loaded)
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "/sys/class/hwmon/hwmon2/pwm1,1450,70,90\n", string(content))
}

func TestFileStore_Delete(t *testing.T) {
	// GIVEN
	store := NewFileStore(filepath.Join(t.TempDir(), "fan-cache"))
	err := store.Save([]Entry{
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm1", MaxRpm: 1450, StopPwm: 70, StartPwm: 90},
		{PwmOutput: "/sys/class/hwmon/hwmon2/pwm2", MaxRpm: 980, StopPwm: 110, StartPwm: 130},
	})
	assert.NoError(t, err)

	// WHEN
	deleted, err := store.Delete("/sys/class/hwmon/hwmon2/pwm1")
	missing, missingErr := store.Delete("/sys/class/hwmon/hwmon2/pwm9")

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, missingErr)
	assert.True(t, deleted)
	assert.False(t, missing)
	loaded, _ := store.Load()
	assert.Len(t, loaded, 1)
	assert.NotNil(t, loaded.Get("/sys/class/hwmon/hwmon2/pwm2"))
}
