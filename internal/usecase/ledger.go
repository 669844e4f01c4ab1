package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"udhaar-book/internal/domain"
)

// LedgerService orchestrates the ledger store, the customer registry and
// the balance engine. One instance per process; the store underneath
// serializes writers.
type LedgerService struct {
	ledger       LedgerRepository
	registry     CustomerRepository
	businessName string
	accessPIN    string
}

// NewLedgerService wires the service. An empty accessPIN disables the gate.
func NewLedgerService(ledger LedgerRepository, registry CustomerRepository, businessName, accessPIN string) *LedgerService {
	return &LedgerService{
		ledger:       ledger,
		registry:     registry,
		businessName: businessName,
		accessPIN:    accessPIN,
	}
}

// Dashboard loads the ledger and computes the dashboard aggregates. A
// corrupt store is logged and degraded to an empty ledger instead of
// taking the whole screen down; the report flags the degradation. Registry
// rows are synced lazily for any new ledger names.
func (s *LedgerService) Dashboard(ctx context.Context) (*domain.DashboardReport, error) {
	records, degraded, err := s.loadRecovering(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Ensure(ctx, DistinctNames(records)); err != nil {
		log.Printf("warning: could not sync customer registry: %v", err)
	}

	toReceive, toPay := Totals(records)
	report := &domain.DashboardReport{
		ToReceive:    toReceive,
		ToPay:        toPay,
		EntryCount:   len(records),
		Customers:    make([]domain.CustomerBalance, 0),
		LoadDegraded: degraded,
	}

	balances := BalancesByCustomer(records)
	for _, name := range DistinctNames(records) {
		report.Customers = append(report.Customers, domain.CustomerBalance{
			Name:    name,
			Balance: balances[name],
		})
	}
	return report, nil
}

// AddEntry validates and appends a new ledger entry. Exactly one of debit
// and credit must be positive; ambiguous or negative input is rejected
// rather than stored.
func (s *LedgerService) AddEntry(ctx context.Context, in domain.TransactionInput) (uuid.UUID, error) {
	if err := validateInput(in); err != nil {
		return uuid.Nil, err
	}

	id, err := s.ledger.Append(ctx, in)
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not record entry: %w", err)
	}

	if err := s.registry.Ensure(ctx, []string{in.CustomerName}); err != nil {
		log.Printf("warning: could not sync customer registry: %v", err)
	}
	return id, nil
}

// RecordPayment appends a credit entry: the customer paid amount towards
// their balance.
func (s *LedgerService) RecordPayment(ctx context.Context, name string, amount float64, note string) (uuid.UUID, error) {
	return s.AddEntry(ctx, domain.TransactionInput{
		CustomerName: name,
		Note:         note,
		Credit:       amount,
	})
}

// History returns a customer's entries, newest first.
func (s *LedgerService) History(ctx context.Context, name string) ([]domain.Transaction, error) {
	records, _, err := s.loadRecovering(ctx)
	if err != nil {
		return nil, err
	}
	return History(records, name), nil
}

// Search lists distinct customer names matching the query (case-insensitive
// substring; empty matches all).
func (s *LedgerService) Search(ctx context.Context, query string) ([]string, error) {
	records, _, err := s.loadRecovering(ctx)
	if err != nil {
		return nil, err
	}
	return FilterNames(records, query), nil
}

// UpdateEntry edits the amount and/or note of an existing entry.
func (s *LedgerService) UpdateEntry(ctx context.Context, id uuid.UUID, fields domain.UpdateFields) error {
	return s.ledger.Update(ctx, id, fields)
}

// DeleteEntry removes a single entry.
func (s *LedgerService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.ledger.Delete(ctx, id)
}

// DeleteCustomer removes every ledger entry for the customer and their
// registry row. Returns the number of entries removed; zero is not an
// error.
func (s *LedgerService) DeleteCustomer(ctx context.Context, name string) (int, error) {
	count, err := s.ledger.DeleteByCustomer(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := s.registry.Delete(ctx, name); err != nil {
		log.Printf("warning: could not remove %q from customer registry: %v", name, err)
	}
	return count, nil
}

// ReminderMessage renders the balance summary text for a customer, the
// payload of the outbound reminder link. Unknown names are ErrNotFound.
func (s *LedgerService) ReminderMessage(ctx context.Context, name string) (string, error) {
	records, _, err := s.loadRecovering(ctx)
	if err != nil {
		return "", err
	}

	balance, ok := BalancesByCustomer(records)[name]
	if !ok {
		return "", fmt.Errorf("customer %q: %w", name, domain.ErrNotFound)
	}

	if balance < 0 {
		return fmt.Sprintf("Dear %s, you have Rs %.2f in your favour at %s. Thank you for your business.",
			name, -balance, s.businessName), nil
	}
	return fmt.Sprintf("Dear %s, your outstanding balance at %s is Rs %.2f. Kindly arrange the payment at your earliest convenience.",
		name, s.businessName, balance), nil
}

// WhatsAppLink builds the wa.me URL that opens a chat pre-filled with the
// customer's reminder message. The phone number comes from the registry;
// a customer without one still gets a link, just without a target number.
func (s *LedgerService) WhatsAppLink(ctx context.Context, name string) (string, error) {
	message, err := s.ReminderMessage(ctx, name)
	if err != nil {
		return "", err
	}

	phone := ""
	customers, err := s.registry.Load(ctx)
	if err != nil {
		log.Printf("warning: could not load customer registry: %v", err)
	} else {
		for _, c := range customers {
			if c.Name == name {
				phone = digitsOnly(c.Phone)
				break
			}
		}
	}

	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(message), nil
}

// Statement prepares the export rows for a customer, or for the whole
// ledger when name is empty: entries oldest first with a running balance.
func (s *LedgerService) Statement(ctx context.Context, name string) ([]domain.StatementRow, error) {
	records, _, err := s.loadRecovering(ctx)
	if err != nil {
		return nil, err
	}

	var rows []domain.StatementRow
	running := 0.0
	for _, rec := range records {
		if name != "" && rec.CustomerName != name {
			continue
		}
		running += rec.Debit - rec.Credit
		rows = append(rows, domain.StatementRow{Transaction: rec, RunningBalance: running})
	}
	if name != "" && len(rows) == 0 {
		return nil, fmt.Errorf("customer %q: %w", name, domain.ErrNotFound)
	}
	return rows, nil
}

// ExportStatement writes a customer statement (or the full ledger when
// name is empty) through the given exporter.
func (s *LedgerService) ExportStatement(ctx context.Context, exporter StatementExporter, name, path string) error {
	rows, err := s.Statement(ctx, name)
	if err != nil {
		return err
	}
	return exporter.Export(path, rows)
}

// CheckPIN gates access behind the shared static passphrase. An empty
// configured PIN disables the gate.
func (s *LedgerService) CheckPIN(pin string) bool {
	if s.accessPIN == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(s.accessPIN)) == 1
}

// loadRecovering loads the ledger, degrading a corrupt store to an empty
// ledger after logging the loss. Other load failures surface to the caller.
func (s *LedgerService) loadRecovering(ctx context.Context) ([]domain.Transaction, bool, error) {
	records, err := s.ledger.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptStore) {
			log.Printf("warning: ledger file is corrupt, starting from an empty ledger: %v", err)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("could not load ledger: %w", err)
	}
	return records, false, nil
}

func validateInput(in domain.TransactionInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return &domain.ValidationError{Field: "customer_name", Reason: "name must not be blank"}
	}
	if in.Debit < 0 || in.Credit < 0 {
		return &domain.ValidationError{Field: "amount", Reason: "amount must not be negative"}
	}
	if in.Debit > 0 && in.Credit > 0 {
		return &domain.ValidationError{Field: "amount", Reason: "an entry is either a debit or a credit, not both"}
	}
	if in.Debit == 0 && in.Credit == 0 {
		return &domain.ValidationError{Field: "amount", Reason: "amount must be set"}
	}
	return nil
}

func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
