package usecase

import (
	"context"

	"github.com/google/uuid"

	"udhaar-book/internal/domain"
)

// LedgerRepository is the durable transaction store the service depends
// on. The usecase layer depends on this interface, not on the CSV-backed
// implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type LedgerRepository interface {
	Load(ctx context.Context) ([]domain.Transaction, error)
	Append(ctx context.Context, in domain.TransactionInput) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, fields domain.UpdateFields) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCustomer(ctx context.Context, name string) (int, error)
}

// CustomerRepository is the contact-details registry. Rows are created
// lazily for ledger names that have no registry entry yet.
type CustomerRepository interface {
	Load(ctx context.Context) ([]domain.Customer, error)
	Ensure(ctx context.Context, names []string) error
	Save(ctx context.Context, customer domain.Customer) error
	Delete(ctx context.Context, name string) error
}

// StatementExporter writes a prepared statement to a file.
type StatementExporter interface {
	Export(path string, rows []domain.StatementRow) error
}
