package service

import "math"

// billingUnitMinutes is the smallest slice of a session that gets billed.
const billingUnitMinutes = 15

// NormalizeDuration rounds a requested duration up to the next billing unit,
// with one unit as the floor.
func NormalizeDuration(durationMinutes int) int {
	if durationMinutes <= billingUnitMinutes {
		return billingUnitMinutes
	}

	units := (durationMinutes + billingUnitMinutes - 1) / billingUnitMinutes

	return units * billingUnitMinutes
}

// Price converts an hourly rate and a duration into a billable total, rounded
// to two decimals. Durations below a quarter hour bill as a quarter hour.
// A zero or negative rate prices to zero.
//
// Price must be called with the rate snapshot stored on the booking, never a
// live lookup, so historical bookings are unaffected by later rate changes.
func Price(rate float64, durationMinutes int) float64 {
	if rate <= 0 {
		return 0
	}

	hours := float64(durationMinutes) / 60
	if hours < 0.25 {
		hours = 0.25
	}

	return math.Round(hours*rate*100) / 100
}
