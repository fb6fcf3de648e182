package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/markusressel/hddfanctrl/internal/util"
	"io"
	"strconv"
	"strings"
)

const fieldsPerLine = 4

// Entry holds the calibration result of a single fan, keyed by its pwm file
type Entry struct {
	PwmOutput string `json:"pwmOutput"`
	MaxRpm    int    `json:"maxRpm"`
	StopPwm   int    `json:"stopPwm"`
	StartPwm  int    `json:"startPwm"`
}

// Entries maps pwm file paths to cache entries
type Entries map[string]Entry

// Get returns the entry of the given pwm file, or nil if there is none
func (e Entries) Get(pwmOutput string) *Entry {
	entry, ok := e[pwmOutput]
	if !ok {
		return nil
	}
	return &entry
}

// Sorted returns all entries ordered by their pwm file path
func (e Entries) Sorted() []Entry {
	result := make([]Entry, 0, len(e))
	for _, key := range util.SortedKeys(e) {
		result = append(result, e[key])
	}
	return result
}

// Parse reads "pwm_path,max_rpm,stop_pwm,start_pwm" lines.
// Lines that do not match this format are skipped.
func Parse(reader io.Reader) (Entries, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	csvReader.LazyQuotes = true

	entries := Entries{}
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				ui.Warning("Skipping malformed cache line %d: %v", parseErr.Line, err)
				continue
			}
			return entries, err
		}

		line, _ := csvReader.FieldPos(0)
		entry, err := parseRecord(record)
		if err != nil {
			ui.Warning("Skipping malformed cache line %d: %v", line, err)
			continue
		}
		entries[entry.PwmOutput] = entry
	}

	return entries, nil
}

func parseRecord(record []string) (Entry, error) {
	if len(record) != fieldsPerLine {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", fieldsPerLine, len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if len(record[0]) <= 0 {
		return Entry{}, errors.New("empty pwm path")
	}

	values := make([]int, fieldsPerLine-1)
	for i, field := range record[1:] {
		value, err := strconv.Atoi(field)
		if err != nil {
			return Entry{}, fmt.Errorf("field %d: %w", i+2, err)
		}
		values[i] = value
	}

	entry := Entry{
		PwmOutput: record[0],
		MaxRpm:    values[0],
		StopPwm:   values[1],
		StartPwm:  values[2],
	}
	if entry.MaxRpm < 0 {
		return Entry{}, fmt.Errorf("max_rpm must be >= 0, was %d", entry.MaxRpm)
	}
	if !isPwmValue(entry.StopPwm) || !isPwmValue(entry.StartPwm) {
		return Entry{}, fmt.Errorf("pwm values must be in [%d, %d], were %d and %d",
			fans.MinPwmValue, fans.MaxPwmValue, entry.StopPwm, entry.StartPwm)
	}
	return entry, nil
}

func isPwmValue(value int) bool {
	return value >= fans.MinPwmValue && value <= fans.MaxPwmValue
}

// Format writes one line per entry, in the given order
func Format(writer io.Writer, entries []Entry) error {
	csvWriter := csv.NewWriter(writer)
	for _, entry := range entries {
		err := csvWriter.Write([]string{
			entry.PwmOutput,
			strconv.Itoa(entry.MaxRpm),
			strconv.Itoa(entry.StopPwm),
			strconv.Itoa(entry.StartPwm),
		})
		if err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
