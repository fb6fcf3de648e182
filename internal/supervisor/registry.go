package supervisor

import (
	"github.com/markusressel/hddfanctrl/internal/calibration"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/qdm12/reprint"
	"sync"
	"time"
)

type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// FanStatus is the calibration progress of a single configured fan
type FanStatus struct {
	Id        string              `json:"id"`
	PwmOutput string              `json:"pwmOutput"`
	State     State               `json:"state"`
	Result    *calibration.Result `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	Probes    []calibration.Probe `json:"probes"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Registry holds the status of all configured fans, keyed by pwm file.
// It is written by the calibration workers and read by the api and statistics.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	statuses cmap.ConcurrentMap[string, FanStatus]
}

func NewRegistry() *Registry {
	return &Registry{
		statuses: cmap.New[FanStatus](),
	}
}

// Register adds a pending fan, registering the same pwm file twice resets it
func (r *Registry) Register(pwmOutput string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.statuses.Has(pwmOutput) {
		r.order = append(r.order, pwmOutput)
	}
	r.statuses.Set(pwmOutput, FanStatus{
		Id:        pwmOutput,
		PwmOutput: pwmOutput,
		State:     StatePending,
		Probes:    []calibration.Probe{},
	})
}

func (r *Registry) update(pwmOutput string, mutate func(status *FanStatus)) {
	r.statuses.Upsert(pwmOutput, FanStatus{}, func(exist bool, valueInMap FanStatus, newValue FanStatus) FanStatus {
		if !exist {
			valueInMap = FanStatus{Id: pwmOutput, PwmOutput: pwmOutput, State: StatePending}
		}
		mutate(&valueInMap)
		return valueInMap
	})
}

func (r *Registry) setRunning(pwmOutput string, fanId string, startedAt time.Time) {
	r.update(pwmOutput, func(status *FanStatus) {
		status.Id = fanId
		status.State = StateRunning
		status.StartedAt = &startedAt
	})
}

func (r *Registry) addProbe(pwmOutput string, probe calibration.Probe) {
	r.update(pwmOutput, func(status *FanStatus) {
		probes := make([]calibration.Probe, len(status.Probes), len(status.Probes)+1)
		copy(probes, status.Probes)
		status.Probes = append(probes, probe)
	})
}

func (r *Registry) finish(report Report) {
	r.update(report.PwmOutput, func(status *FanStatus) {
		if len(report.FanId) > 0 {
			status.Id = report.FanId
		}
		startedAt := report.StartedAt
		finishedAt := report.FinishedAt
		status.StartedAt = &startedAt
		status.FinishedAt = &finishedAt
		if report.Err != nil {
			status.State = StateFailed
			status.Error = report.Err.Error()
			return
		}
		result := report.Result
		status.State = StateDone
		status.Result = &result
	})
}

// List returns copies of all fan states in registration order
func (r *Registry) List() []FanStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]FanStatus, 0, len(r.order))
	for _, pwmOutput := range r.order {
		status, ok := r.statuses.Get(pwmOutput)
		if !ok {
			continue
		}
		result = append(result, reprint.This(status).(FanStatus))
	}
	return result
}

// Get returns a copy of the status of the fan with the given id or pwm file
func (r *Registry) Get(id string) (FanStatus, bool) {
	if status, ok := r.statuses.Get(id); ok {
		return reprint.This(status).(FanStatus), true
	}
	for _, status := range r.List() {
		if status.Id == id {
			return status, true
		}
	}
	return FanStatus{}, false
}
