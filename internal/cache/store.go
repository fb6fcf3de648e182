package cache

import (
	"errors"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"os"
	"path/filepath"
	"strings"
)

// Store persists calibration results between runs
type Store interface {
	Init() error

	Path() string

	// Load returns all cached entries, a missing cache is empty
	Load() (Entries, error)
	// Save replaces the cache content with the given entries
	Save(entries []Entry) error
	// Delete removes the entry of the given pwm file, if any
	Delete(pwmOutput string) (bool, error)
}

type fileStore struct {
	path string
}

func NewFileStore(path string) Store {
	return &fileStore{
		path: path,
	}
}

func (s fileStore) Path() string {
	return s.path
}

func (s fileStore) Init() (err error) {
	parentDir := filepath.Dir(s.path)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for cache: %s", parentDir)
		return os.MkdirAll(parentDir, 0755)
	}
	return err
}

func (s fileStore) Load() (Entries, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		ui.Debug("No cache found at %s", s.path)
		return Entries{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	return Parse(file)
}

func (s fileStore) Save(entries []Entry) error {
	var builder strings.Builder
	err := Format(&builder, entries)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(s.path, builder.String())
}

func (s fileStore) Delete(pwmOutput string) (bool, error) {
	entries, err := s.Load()
	if err != nil {
		return false, err
	}
	if _, ok := entries[pwmOutput]; !ok {
		return false, nil
	}
	delete(entries, pwmOutput)
	return true, s.Save(entries.Sorted())
}
