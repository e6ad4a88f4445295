package helpers

import (
	"fmt"
	"time"
)

// FormatUptime renders a duration as "Xd, Xh, Xm, Xs"
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%dd, %dh, %dm, %ds", days, hours, minutes, seconds)
}
