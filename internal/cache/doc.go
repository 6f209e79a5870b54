// Package cache is the durable two-tier translation store. The pending tier
// accumulates partial translation maps while a unit is in flight; a record
// moves to the permanent tier only once every required language is present.
// The store is the sole writer of its backing file and rewrites it in full
// on every mutation.
package cache
