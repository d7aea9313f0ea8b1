// Package trace records one entry per task execution attempt so that a
// run's trace list reconstructs exact execution order, including partial
// failures. Entries are appended, never overwritten; parallel tasks may
// interleave but each entry's begin/finish pair stays consistent.
//
// A Reporter observes both edges of every task for live progress
// reporting. Delivery is best-effort: a reporter failure never stalls or
// aborts the run.
package trace
