package util

// Avg calculates the average of all values in the given array
func Avg(values []float64) float64 {
	sum := 0.0
	for i := 0; i < len(values); i++ {
		sum += values[i]
	}
	return sum / (float64(len(values)))
}

// Clamp limits value to [min, max]
func Clamp(value int, min int, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundDownTo rounds value down to the closest multiple of unit
func RoundDownTo(value int, unit int) int {
	return (value / unit) * unit
}

// NextMultipleAbove returns the smallest multiple of unit that is strictly greater than value
func NextMultipleAbove(value int, unit int) int {
	return ((value + unit) / unit) * unit
}
