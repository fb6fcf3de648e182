package calibration

import (
	"github.com/markusressel/hddfanctrl/internal/fans"
	"github.com/markusressel/hddfanctrl/internal/util"
)

type direction int

const (
	directionDown direction = -1
	directionUp   direction = 1
)

func (d direction) String() string {
	if d == directionUp {
		return "up"
	}
	return "down"
}

// pwmRange is a closed interval of pwm values that only ever shrinks
type pwmRange struct {
	Low  int
	High int
}

func fullPwmRange() pwmRange {
	return pwmRange{Low: fans.MinPwmValue, High: fans.MaxPwmValue}
}

func (r pwmRange) width() int {
	return r.High - r.Low
}

func (r pwmRange) mid() int {
	return (r.Low + r.High) / 2
}

// raiseLow moves the lower bound up to value, never past High
func (r *pwmRange) raiseLow(value int) {
	if value > r.Low {
		r.Low = min(value, r.High)
	}
}

// lowerHigh moves the upper bound down to value, never below Low
func (r *pwmRange) lowerHigh(value int) {
	if value < r.High {
		r.High = max(value, r.Low)
	}
}

// searchState narrows down two ranges at once:
// stop holds the highest pwm at which the fan is stationary,
// start holds the lowest pwm at which the fan is spinning.
// When the direction flips, the last measured speed is evaluated
// against the other range without probing again.
type searchState struct {
	direction  direction
	pending    int
	needsProbe bool
	lastSpeed  float64

	stop  pwmRange
	start pwmRange

	rpmThreshold float64
	tolerance    int
}

func newSearchState(rpmThreshold float64, tolerance int) *searchState {
	stop := fullPwmRange()
	return &searchState{
		direction:    directionDown,
		pending:      stop.mid(),
		needsProbe:   true,
		stop:         stop,
		start:        fullPwmRange(),
		rpmThreshold: rpmThreshold,
		tolerance:    tolerance,
	}
}

func (s *searchState) converged(r pwmRange) bool {
	return r.width() < s.tolerance
}

func (s *searchState) done() bool {
	return s.converged(s.stop) && s.converged(s.start)
}

func (s *searchState) currentRange() pwmRange {
	if s.direction == directionDown {
		return s.stop
	}
	return s.start
}

func (s *searchState) otherRange() pwmRange {
	if s.direction == directionDown {
		return s.start
	}
	return s.stop
}

// prepare returns the pwm value of the next step and whether it has to be probed.
// If the range of the current direction has converged while the other one
// has not, the search continues in the midpoint of the other range.
func (s *searchState) prepare() (pwm int, probe bool) {
	if s.converged(s.currentRange()) && !s.converged(s.otherRange()) {
		s.direction = -s.direction
		s.pending = s.currentRange().mid()
		s.needsProbe = true
	}
	return s.pending, s.needsProbe
}

// record stores the measured speed of the pending pwm value
func (s *searchState) record(speed float64) {
	s.lastSpeed = speed
}

// advance evaluates lastSpeed at the pending pwm value
func (s *searchState) advance() {
	switch s.direction {
	case directionDown:
		if s.lastSpeed < s.rpmThreshold {
			// stopped, continue upwards with the same measurement
			s.stop.raiseLow(s.pending)
			s.direction = directionUp
			s.needsProbe = false
			return
		}
		s.stop.lowerHigh(s.pending)
		s.pending = s.stop.mid()
		s.needsProbe = true
	case directionUp:
		if s.lastSpeed > s.rpmThreshold {
			// started, continue downwards with the same measurement
			s.start.lowerHigh(s.pending)
			s.direction = directionDown
			s.needsProbe = false
			return
		}
		s.start.raiseLow(s.pending)
		s.pending = s.start.mid()
		s.needsProbe = true
	}
}

// ProbeFunc applies pwm and returns the stable speed of the fan at that value
type ProbeFunc func(pwm int) (float64, error)

// ThresholdSearch finds the stop and start pwm of a fan by bisecting
// both ranges alternately.
type ThresholdSearch struct {
	state   *searchState
	probe   ProbeFunc
	roundTo int
	// onStep is called after every step, for tests and debug output
	onStep func(state searchState)
}

func NewThresholdSearch(rpmThreshold float64, params Parameters, probe ProbeFunc) *ThresholdSearch {
	return &ThresholdSearch{
		state:   newSearchState(rpmThreshold, params.PwmTolerance),
		probe:   probe,
		roundTo: params.RoundTo,
	}
}

// Run executes the search and returns the rounded (stopPwm, startPwm) pair
func (s *ThresholdSearch) Run() (stopPwm int, startPwm int, err error) {
	state := s.state
	for !state.done() {
		if pwm, probe := state.prepare(); probe {
			speed, err := s.probe(pwm)
			if err != nil {
				return 0, 0, err
			}
			state.record(speed)
		}
		state.advance()
		if s.onStep != nil {
			s.onStep(*state)
		}
	}
	stopPwm, startPwm = roundThresholds(state.stop, state.start, s.roundTo)
	return stopPwm, startPwm, nil
}

// roundThresholds widens the found ranges to multiples of unit:
// stop is rounded down, start is rounded up to the next multiple
func roundThresholds(stop pwmRange, start pwmRange, unit int) (int, int) {
	stopPwm := util.RoundDownTo(stop.Low, unit)
	startPwm := min(util.NextMultipleAbove(start.High, unit), fans.MaxPwmValue)
	return stopPwm, startPwm
}
