// Package driver collects the ordered explanations produced during one evaluation.
package driver

import "fmt"

// Prefix truncation limits. Both keep the first N entries in append order.
const (
	StoredLimit   = 80 // persisted score records
	ReturnedLimit = 20 // responses returned to a caller
)

// #region log
// Log is an append-only list of driver strings. Not safe for concurrent use;
// each evaluation owns its own Log.
type Log struct {
	entries []string
}

// Format renders a penalty driver as "-amount: reason".
func Format(amount float64, reason string) string {
	return fmt.Sprintf("-%.2f: %s", amount, reason)
}

// Penalty appends a penalty driver and reports whether it was recorded.
// Amounts <= 0 are not recorded.
func (l *Log) Penalty(amount float64, reason string) bool {
	if amount <= 0 {
		return false
	}
	l.entries = append(l.entries, Format(amount, reason))
	return true
}

// Note appends a free-form message (gate triggers).
func (l *Log) Note(msg string) {
	l.entries = append(l.entries, msg)
}

// Entries returns a copy of all entries.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// #endregion log

// #region truncate
// Prefix returns a copy of the first n entries of drivers.
func Prefix(drivers []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(drivers) < n {
		n = len(drivers)
	}
	out := make([]string, n)
	copy(out, drivers[:n])
	return out
}

// Stored returns the prefix kept for persistence.
func Stored(drivers []string) []string {
	return Prefix(drivers, StoredLimit)
}

// Returned returns the prefix handed back to callers.
func Returned(drivers []string) []string {
	return Prefix(drivers, ReturnedLimit)
}

// #endregion truncate
