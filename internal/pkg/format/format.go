// Package format renders sizes and timestamps for people.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FileSize formats n in base-1024 units rounded to two decimals.
// Sizes past the last unit stay in GB.
func FileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// RelativeTime describes t relative to now. Anything a week or older is
// shown as a local date.
func RelativeTime(t, now time.Time) string {
	minutes := int64(math.Floor(now.Sub(t).Minutes()))
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh ago", minutes/60)
	case minutes < 10080:
		return fmt.Sprintf("%dd ago", minutes/1440)
	}
	return t.Local().Format("1/2/2006")
}
