// Package service implements the feed's business rules on top of the repositories.
package service

import "time"

// Clock supplies creation timestamps. Tests inject a controllable one.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return utcNow
	}
	return c
}
