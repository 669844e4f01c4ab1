package domain

import "errors"

var (
	// ErrNotFound reports a mutation targeting an id or name with no
	// matching record. The ledger is left unchanged.
	ErrNotFound = errors.New("record not found")

	// ErrCorruptStore reports a persisted ledger file that exists but
	// cannot be parsed into the expected record shape. Callers recover by
	// substituting an empty ledger and logging the loss.
	ErrCorruptStore = errors.New("ledger file is corrupt")

	// ErrPersistence reports a failed write of the ledger file (disk full,
	// permission denied). The in-memory state may be ahead of disk.
	ErrPersistence = errors.New("failed to persist ledger")
)

// ValidationError reports a rejected transaction input, e.g. an entry with
// both debit and credit non-zero or a negative amount.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
