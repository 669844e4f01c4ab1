package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryType defines the side of a ledger entry (DEBIT or CREDIT).
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// DateLayout is the on-disk calendar date format of the ledger file.
const DateLayout = "02/01/2006"

// Transaction is a single ledger entry for a customer.
//
// The ID is a surrogate key assigned when the record is created or loaded;
// it is stable for the lifetime of the owning store but is not written to
// disk, because the persisted row format carries no id column.
type Transaction struct {
	ID           uuid.UUID `json:"id"`
	Date         time.Time `json:"date"`
	CustomerName string    `json:"customer_name"`
	Note         string    `json:"note,omitempty"`
	Debit        float64   `json:"debit"`
	Credit       float64   `json:"credit"`
}

// Type reports which side of the ledger the entry sits on. Records are
// validated at creation so that exactly one of Debit/Credit is non-zero.
func (t Transaction) Type() EntryType {
	if t.Debit > 0 {
		return EntryTypeDebit
	}
	return EntryTypeCredit
}

// Amount returns the non-zero side of the entry.
func (t Transaction) Amount() float64 {
	if t.Debit > 0 {
		return t.Debit
	}
	return t.Credit
}

// TransactionInput is the caller-supplied shape of a new ledger entry,
// before the store assigns it an id.
type TransactionInput struct {
	Date         time.Time `json:"date"`
	CustomerName string    `json:"customer_name"`
	Note         string    `json:"note,omitempty"`
	Debit        float64   `json:"debit"`
	Credit       float64   `json:"credit"`
}

// UpdateFields carries the editable fields of an existing entry. Nil
// pointers leave the field untouched. The amount lands on whichever side
// (debit or credit) the record already uses; the side itself is fixed at
// creation.
type UpdateFields struct {
	Amount *float64
	Note   *string
}

// Customer is a registry row. A customer exists implicitly as the set of
// ledger rows sharing a name; the registry only adds contact details.
type Customer struct {
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}
