package normalize

import "math"

const (
	bytesPerGB = 1024 * 1024 * 1024
	bytesPerMB = 1024 * 1024
)

// Round2 rounds to two decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// BytesToGB converts a byte count to GB with two decimals.
func BytesToGB(b int64) float64 {
	return Round2(float64(b) / bytesPerGB)
}

// BytesToMB converts a byte count to MB with two decimals.
func BytesToMB(b int64) float64 {
	return Round2(float64(b) / bytesPerMB)
}

// RoundGB rounds a GB size to the nearest whole unit.
func RoundGB(gb float64) int64 {
	return int64(math.Round(gb))
}

// Round100MB rounds a MB size to the nearest 100 MB.
func Round100MB(mb int64) int64 {
	return int64(math.Round(float64(mb)/100)) * 100
}

// Floor100MB truncates a MB size down to a multiple of 100.
func Floor100MB(mb int64) int64 {
	return mb / 100 * 100
}
