package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatNumber renders an integer with thousands separators.
func FormatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(digit)
	}
	return b.String()
}

// FormatWatts renders an energy or power value rounded to whole watts.
func FormatWatts(v float64) string {
	return FormatNumber(int(math.Round(v))) + " W"
}

// FormatFloat renders a value with two decimals and thousands separators.
func FormatFloat(v float64) string {
	str := fmt.Sprintf("%.2f", v)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}
	intPart, decPart, _ := strings.Cut(str, ".")
	n, _ := strconv.Atoi(intPart)
	return sign + FormatNumber(n) + "." + decPart
}

// FormatSeconds renders an elapsed duration the way run summaries show it.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// FormatPercent renders a relative change, e.g. "+12.5%".
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", ratio*100)
}
