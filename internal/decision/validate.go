package decision

import (
	"errors"
	"fmt"
)

// ErrFieldRewritten indicates a violation of the write-once-per-field
// contract. It is a programming error in phase wiring, not a runtime
// condition.
var ErrFieldRewritten = errors.New("state field already written")

// ValidationError is the only error that terminates a run before phase 1.
// Callers receive it unwrapped in place of a decision result.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Reason)
}

// ValidateTransaction performs phase-0 input validation. Any failure here
// short-circuits the run to an error response; nothing else may.
func ValidateTransaction(tx Transaction) error {
	if tx.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if tx.CustomerID == "" {
		return &ValidationError{Field: "customer_id", Reason: "must not be empty"}
	}
	if tx.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if len(tx.Currency) != 3 {
		return &ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
	}
	if tx.Country == "" {
		return &ValidationError{Field: "country", Reason: "must not be empty"}
	}
	if tx.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}
	return nil
}
