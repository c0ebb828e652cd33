package utils

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// FormatBookingNumber builds the human-readable booking number for a given
// day and daily sequence, e.g. DC202608290007. The sequence itself comes
// from an atomic per-day counter, this only formats it.
func FormatBookingNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("DC%s%04d", day.Format("20060102"), seq)
}

// GenerateTransactionID creates an internal payment transaction ID.
// Format: TXN-<unix millis>-<random>
func GenerateTransactionID() string {
	now := time.Now()
	randomPart := fmt.Sprintf("%06d", rand.Intn(1000000))
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), randomPart)
}

// Round2 rounds to two decimal places, half-up on the minor currency unit.
func Round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}
