// Package decision defines the domain model for one fraud-decisioning run:
// the input transaction, the customer profile, the shared state document
// that the pipeline phases write into, and the decision record the run
// terminates with.
//
// The state document is a blackboard with a disjoint-writer contract. Each
// pipeline task receives a read-only view of the state and returns a Delta;
// only the pipeline engine applies deltas, and every field is written by
// exactly one phase. Once a phase has merged, its fields are immutable for
// the remainder of the run.
package decision
