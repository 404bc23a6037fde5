package a

import "time"

var timeNow = func() time.Time {
	return time.Now().UTC()
}

func bad() time.Time {
	return time.Now() // want "time.Now used directly"
}

func badValue() func() time.Time {
	return time.Now // want "time.Now used directly"
}

func good() time.Time {
	return timeNow()
}

func goodSince(start time.Time) time.Duration {
	return timeNow().Sub(start)
}
