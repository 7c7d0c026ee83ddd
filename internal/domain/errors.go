/**
 * @description
 * Error kinds surfaced by the ledger and billing operations. Callers are
 * expected to match these with errors.Is / errors.As and treat every kind as
 * terminal for the current operation; the service never retries on its own.
 */

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when the referenced account id does not
	// exist, or the account is TERMINATED for operations that treat
	// termination as absence.
	ErrAccountNotFound = errors.New("account not found")

	// ErrForbiddenOperation is returned for structurally disallowed
	// transitions, such as terminating an already TERMINATED account.
	ErrForbiddenOperation = errors.New("forbidden operation")

	// ErrForbiddenTransaction is returned for business-rule violations, such
	// as a charge exceeding the current balance.
	ErrForbiddenTransaction = errors.New("forbidden transaction")
)

// DomainError wraps an unexpected persistence failure with the name of the
// operation that was executing. Storage errors are never exposed directly.
type DomainError struct {
	Op  string
	Err error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError wraps err with operation context. A nil err yields nil.
func NewDomainError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DomainError{Op: op, Err: err}
}
