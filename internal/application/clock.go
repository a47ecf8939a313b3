package application

import "time"

// Clock abstracts time.Now supaya service gampang ditest dengan waktu tetap
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
