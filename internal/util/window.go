package util

import (
	"math"

	"github.com/asecurityteam/rolling"
)

func CreateRollingWindow(size int) *rolling.PointPolicy {
	return rolling.NewPointPolicy(rolling.NewWindow(size))
}

// GetWindowAvg returns the average of all values in the window
func GetWindowAvg(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Avg)
}

// GetWindowStdDev returns the population standard deviation of all values in the window
func GetWindowStdDev(window *rolling.PointPolicy) float64 {
	return window.Reduce(stdDev)
}

func stdDev(w rolling.Window) float64 {
	mean := rolling.Avg(w)
	count := rolling.Count(w)
	if count <= 0 {
		return 0
	}
	sum := 0.0
	for _, bucket := range w {
		for _, p := range bucket {
			d := p - mean
			sum += d * d
		}
	}
	return math.Sqrt(sum / count)
}
