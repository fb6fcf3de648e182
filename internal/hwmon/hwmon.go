package hwmon

import (
	"fmt"
	"github.com/markusressel/hddfanctrl/internal/util"
	"github.com/md14454/gosensors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

var fanInputPattern = regexp.MustCompile(`^fan(?P<index>[0-9]+)_input$`)

type HwMonController struct {
	Name     string
	Platform string
	Path     string

	Fans []DetectedFan
}

// DetectedFan is a tachometer of a hwmon chip, together with its pwm channel if there is one
type DetectedFan struct {
	Label     string
	Index     int
	RpmInput  string
	PwmOutput string
	Rpm       int
}

// Controllable reports whether the fan can be calibrated
func (fan DetectedFan) Controllable() bool {
	return len(fan.PwmOutput) > 0
}

// GetChips enumerates all hwmon chips known to libsensors which have at least one fan
func GetChips() []*HwMonController {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*HwMonController
	for _, chip := range chips {
		fansList := GetFans(chip)
		if len(fansList) <= 0 {
			continue
		}

		identifier := computeIdentifier(chip)
		platform := findPlatform(chip.Path)
		if len(platform) <= 0 {
			platform = identifier
		}

		list = append(list, &HwMonController{
			Name:     identifier,
			Platform: platform,
			Path:     chip.Path,
			Fans:     fansList,
		})
	}

	return list
}

func GetFans(chip gosensors.Chip) []DetectedFan {
	var fanList []DetectedFan

	for _, feature := range chip.GetFeatures() {
		if feature.Type != gosensors.FeatureTypeFan {
			continue
		}

		inputSubFeature, ok := findSubFeature(feature.GetSubFeatures(), gosensors.SubFeatureTypeFanInput)
		if !ok {
			continue
		}

		fanList = append(fanList, DetectedFan{
			Label:     getLabel(chip.Path, inputSubFeature.Name),
			Index:     len(fanList) + 1,
			RpmInput:  filepath.Join(chip.Path, inputSubFeature.Name),
			PwmOutput: pwmOutputOf(chip.Path, inputSubFeature.Name),
			Rpm:       int(inputSubFeature.GetValue()),
		})
	}

	return fanList
}

// pwmOutputOf returns the pwmN file next to fanN_input, or "" if the chip has none
func pwmOutputOf(devicePath string, input string) string {
	match := fanInputPattern.FindStringSubmatch(input)
	if match == nil {
		return ""
	}
	pwmOutput := filepath.Join(devicePath, "pwm"+match[fanInputPattern.SubexpIndex("index")])
	if !util.FileExists(pwmOutput) {
		return ""
	}
	return pwmOutput
}

func findSubFeature(subfeatures []gosensors.SubFeature, input gosensors.SubFeatureType) (gosensors.SubFeature, bool) {
	for _, a := range subfeatures {
		if a.Type == input {
			return a, true
		}
	}
	return gosensors.SubFeature{}, false
}

// getLabel read the label of a in/output of a device
func getLabel(devicePath string, input string) string {
	labelPath := strings.TrimSuffix(filepath.Join(devicePath, input), "input") + "label"

	content, _ := os.ReadFile(labelPath)
	label := strings.TrimSpace(string(content))
	if len(label) <= 0 {
		label = input
	}
	return label
}

// computeIdentifier builds the libsensors chip name, f.ex. "it8721-isa-0290"
func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		content, _ := os.ReadFile(filepath.Join(devicePath, "name"))
		name = strings.TrimSpace(string(content))
	}

	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%04x", identifier, int(chip.Addr))
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%04x", identifier, int(chip.Addr))
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, int(chip.Bus.Nr))
	}

	return identifier
}

var platformRegex = regexp.MustCompile(`/platform/([^/]+)/`)

// findPlatform returns the platform device name of a sysfs device path, if it has one
func findPlatform(devicePath string) string {
	match := platformRegex.FindStringSubmatch(devicePath)
	if match == nil {
		return ""
	}
	return match[1]
}
