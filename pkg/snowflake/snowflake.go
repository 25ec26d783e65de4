// Package snowflake issues unique, roughly time-ordered 64-bit identifiers.
//
// An id is the count of milliseconds since a fixed epoch shifted left by 16
// bits, ORed with a per-millisecond sequence number. Ids issued by a single
// Allocator never repeat and never decrease, even if the wall clock steps
// backwards.
package snowflake

import (
	"sync"
	"time"
)

const (
	sequenceBits = 16
	sequenceMask = 1<<sequenceBits - 1
)

// epoch is 2024-01-01T00:00:00Z in Unix milliseconds. Shifting the timestamp
// origin keeps ids comfortably inside the positive int64 range used by the
// BIGINT database columns.
const epoch = 1704067200000

// Allocator hands out ids. The zero value is not usable; construct with New.
type Allocator struct {
	mu       sync.Mutex
	now      func() time.Time
	lastMS   int64
	sequence uint64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithClock sets the clock function for testability.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		if now != nil {
			a.now = now
		}
	}
}

// New constructs an Allocator backed by the real clock unless overridden.
func New(opts ...Option) *Allocator {
	a := &Allocator{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Next returns the next identifier. It never blocks longer than the remainder
// of the current millisecond, and only does so when a single millisecond
// produces more than 65536 ids.
func (a *Allocator) Next() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	ms := a.now().UnixMilli() - epoch
	if ms < a.lastMS {
		// Clock stepped backwards. Keep issuing against the last observed
		// millisecond so ids stay unique and non-decreasing.
		ms = a.lastMS
	}

	if ms == a.lastMS {
		a.sequence = (a.sequence + 1) & sequenceMask
		if a.sequence == 0 {
			// Sequence exhausted for this millisecond; advance to the next one.
			ms = a.lastMS + 1
			for {
				if n := a.now().UnixMilli() - epoch; n >= ms {
					ms = n
					break
				}
				time.Sleep(100 * time.Microsecond)
			}
		}
	} else {
		a.sequence = 0
	}

	a.lastMS = ms
	return uint64(ms)<<sequenceBits | a.sequence
}
