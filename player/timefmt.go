package player

import (
	"fmt"
	"math"
)

// FormatTime renders seconds as MM:SS, floor-truncated. Values that are not
// finite non-negative numbers, or do not fit an int64, render as 00:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds >= math.MaxInt64 {
		return "00:00"
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
