// Package ratelimit implements a sliding-window rate limiter with one
// independent window per translation backend. Admission blocks the calling
// goroutine until a slot is free within the trailing interval.
package ratelimit
