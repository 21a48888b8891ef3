package gpio

import "time"

// Timestamp is a reading of the monotonic clock, expressed as elapsed time
// since a fixed arbitrary origin (boot time on Linux). Edge event timestamps
// and MonotonicNow share the same origin, so they can be compared directly.
type Timestamp = time.Duration

// Clock returns the current monotonic timestamp. Injectable for tests.
type Clock func() Timestamp
