// Package workfactor computes the bcrypt cost in effect at a given
// instant. The cost starts at Base and climbs one step roughly every
// year and a half, so hashes produced by newer registrations keep pace
// with faster attacker hardware. Ceiling caps login latency.
package workfactor

import "time"

const (
	Base    = 12
	Ceiling = 19

	// Interval between cost increases, in milliseconds.
	intervalMillis = 47300000000
)

// epoch is 2017-01-01T00:00:00Z, the instant at which the cost is Base.
var epoch = time.UnixMilli(1483228800000)

// Current returns the cost to use for hashes produced at now.
// It is deterministic, so tests can pin any instant.
func Current(now time.Time) int {
	increase := int(now.Sub(epoch).Milliseconds() / intervalMillis)
	if increase < 0 {
		increase = 0
	}
	if Base+increase > Ceiling {
		return Ceiling
	}
	return Base + increase
}
