package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimeInput parses a labour duration entered either as H:MM
// (hours plus minutes/60) or as decimal hours with dot or comma.
// Returns false on any malformed input.
func ParseTimeInput(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		hours, err1 := strconv.ParseFloat(parts[0], 64)
		minutes, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || hours < 0 || minutes < 0 {
			return 0, false
		}
		return hours + minutes/60, true
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseQuantity parses a free-text quantity, normalizing the decimal
// comma to a dot before parsing.
func ParseQuantity(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatQuantity renders a parsed quantity back to its stored string
// form ("2.5", "3", never trailing zeros).
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatHoursAsHHMM renders stored decimal hours as H:MM for display,
// so 1.5 shows as "1:30". Unparseable input is returned unchanged.
func FormatHoursAsHHMM(stored string) string {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(stored), ",", "."), 64)
	if err != nil {
		return stored
	}
	hours := int(v)
	minutes := int((v-float64(hours))*60 + 0.5)
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", hours, minutes)
}
