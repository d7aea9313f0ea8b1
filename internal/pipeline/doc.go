// Package pipeline drives the fixed five-phase decision graph over the
// shared state document: validate, collect (parallel), consolidate,
// debate (parallel), decide, explain. Every task runs inside a resilient
// wrapper that bounds its execution time, contains panics, and always
// yields a schema-valid partial update plus exactly one trace entry, so a
// run can be degraded by failing tasks but never crashed or hung by them.
//
// After the decision task, deterministic safety overrides run
// unconditionally: evidence already proved critical forces a block, and
// low confidence forces escalation to a human. Terminal routing is keyed
// on the resulting outcome tag and nothing else.
package pipeline
