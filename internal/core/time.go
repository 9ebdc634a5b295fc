package core

import (
	"fmt"
	"time"
)

// FormatClock formats d as mm:ss, or hh:mm:ss past the hour.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := total / 3600

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
