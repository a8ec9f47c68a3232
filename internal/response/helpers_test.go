package response

import "time"

const (
	// defaultWait bounds polling in tests that wait for another goroutine.
	defaultWait = 2 * time.Second
	// defaultTick is the polling interval used with defaultWait.
	defaultTick = time.Millisecond
)
