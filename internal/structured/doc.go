// Package structured coerces free-form model output into typed records.
//
// Decoding is a total function: for any input text it returns either a
// parsed record or the schema's zero value tagged Degraded. It never
// returns an error and never produces a partially-typed value. Callers
// branch on the tag, not on exceptions.
package structured
