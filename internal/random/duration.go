package random

import (
	"math/rand"
	"time"
)

// Duration returns a pseudo-random duration in the closed interval [min, max].
// It is meant for retry jitter and therefore does not use a cryptographically secure source.
func Duration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}
