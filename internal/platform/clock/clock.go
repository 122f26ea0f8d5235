package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall-clock time in the local zone, since daily and
// hourly usage buckets follow the user's local day boundary.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
