// Package evidence runs independent evidence providers concurrently and
// merges their results into a single confidence score. Each provider's
// failure or timeout is contained: it is logged, recorded on the
// aggregate, and never aborts sibling providers or the owning task.
package evidence
