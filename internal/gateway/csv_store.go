package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"udhaar-book/internal/domain"
)

// ledgerHeader is the fixed column order of the persisted ledger file.
var ledgerHeader = []string{"Date", "Name", "Note", "Debit", "Credit"}

// CSVLedgerStore owns the durable, ordered set of transaction records,
// persisted as a flat CSV file. Every mutation rewrites the whole file
// synchronously before returning.
//
// The store enforces the single-writer model: one instance per process,
// and a mutex serializing every operation on it. Surrogate ids are
// assigned when rows are loaded and stay stable for the instance's
// lifetime.
type CSVLedgerStore struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records []domain.Transaction
}

// NewCSVLedgerStore creates a store backed by the CSV file at path. The
// file is not touched until the first operation.
func NewCSVLedgerStore(path string) *CSVLedgerStore {
	return &CSVLedgerStore{path: path}
}

// Load returns the current record set in insertion order. A missing file
// yields an empty ledger. An unparseable file yields a domain.ErrCorruptStore
// error once; the store then degrades to an empty ledger so that later
// operations (which rewrite the file) can proceed.
func (s *CSVLedgerStore) Load(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Append assigns an id to the input, inserts it at the end of the ledger
// and persists. Only non-negativity is checked here; which side is
// populated is the caller's decision.
func (s *CSVLedgerStore) Append(ctx context.Context, in domain.TransactionInput) (uuid.UUID, error) {
	if in.Debit < 0 {
		return uuid.Nil, &domain.ValidationError{Field: "debit", Reason: "amount must not be negative"}
	}
	if in.Credit < 0 {
		return uuid.Nil, &domain.ValidationError{Field: "credit", Reason: "amount must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadForMutation(); err != nil {
		return uuid.Nil, err
	}

	rec := domain.Transaction{
		ID:           uuid.New(),
		Date:         in.Date,
		CustomerName: in.CustomerName,
		Note:         in.Note,
		Debit:        in.Debit,
		Credit:       in.Credit,
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// Update edits the amount and/or note of an existing record in place. The
// new amount lands on whichever side the record already uses; date, name
// and side are not editable.
func (s *CSVLedgerStore) Update(ctx context.Context, id uuid.UUID, fields domain.UpdateFields) error {
	if fields.Amount != nil && *fields.Amount < 0 {
		return &domain.ValidationError{Field: "amount", Reason: "amount must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadForMutation(); err != nil {
		return err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}

	prev := s.records[idx]
	if fields.Amount != nil {
		if prev.Debit > 0 {
			s.records[idx].Debit = *fields.Amount
		} else {
			s.records[idx].Credit = *fields.Amount
		}
	}
	if fields.Note != nil {
		s.records[idx].Note = *fields.Note
	}

	if err := s.persist(); err != nil {
		s.records[idx] = prev
		return err
	}
	return nil
}

// Delete removes a single record by id and persists.
func (s *CSVLedgerStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadForMutation(); err != nil {
		return err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.persist(); err != nil {
		s.records = append(s.records[:idx], append([]domain.Transaction{removed}, s.records[idx:]...)...)
		return err
	}
	return nil
}

// DeleteByCustomer removes every record whose name is an exact match and
// persists once. Zero matches is not an error; the count is returned.
func (s *CSVLedgerStore) DeleteByCustomer(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadForMutation(); err != nil {
		return 0, err
	}

	kept := s.records[:0:0]
	for _, rec := range s.records {
		if rec.CustomerName != name {
			kept = append(kept, rec)
		}
	}
	removed := len(s.records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	prev := s.records
	s.records = kept
	if err := s.persist(); err != nil {
		s.records = prev
		return 0, err
	}
	return removed, nil
}

// loadForMutation loads the file ahead of a rewrite. A corrupt file still
// degrades to an empty ledger, but never silently: the loss is logged
// before the mutation overwrites what could not be read. Other load
// failures abort the mutation.
func (s *CSVLedgerStore) loadForMutation() error {
	err := s.ensureLoaded()
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCorruptStore) {
		log.Printf("warning: ledger file is corrupt, its unreadable contents will be overwritten: %v", err)
		return nil
	}
	return err
}

// ensureLoaded reads the file into memory on first use. A corrupt file is
// reported once and replaced by an empty ledger so mutations can rewrite it.
func (s *CSVLedgerStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	records, err := readLedgerFile(s.path)
	if err != nil {
		s.records = nil
		s.loaded = true
		return err
	}
	s.records = records
	s.loaded = true
	return nil
}

func (s *CSVLedgerStore) snapshot() []domain.Transaction {
	out := make([]domain.Transaction, len(s.records))
	copy(out, s.records)
	return out
}

func (s *CSVLedgerStore) indexOf(id uuid.UUID) int {
	for i, rec := range s.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// persist rewrites the whole ledger file from the in-memory record set.
func (s *CSVLedgerStore) persist() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(ledgerHeader); err != nil {
		file.Close()
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	for _, rec := range s.records {
		row := []string{
			rec.Date.Format(domain.DateLayout),
			rec.CustomerName,
			rec.Note,
			formatAmount(rec.Debit),
			formatAmount(rec.Credit),
		}
		if err := writer.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func readLedgerFile(path string) ([]domain.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err == io.EOF {
		// Zero-byte file, treat the same as a missing one.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("%w: %s: unexpected header %v", domain.ErrCorruptStore, path, header)
	}

	var records []domain.Transaction
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
		}

		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad date %q", domain.ErrCorruptStore, path, row[0])
		}
		debit, err := parseAmount(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad debit %q", domain.ErrCorruptStore, path, row[3])
		}
		credit, err := parseAmount(row[4])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad credit %q", domain.ErrCorruptStore, path, row[4])
		}

		records = append(records, domain.Transaction{
			ID:           uuid.New(),
			Date:         date,
			CustomerName: row[1],
			Note:         row[2],
			Debit:        debit,
			Credit:       credit,
		})
	}
	return records, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(ledgerHeader) {
		return false
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), ledgerHeader[i]) {
			return false
		}
	}
	return true
}

// parseAmount reads a decimal amount, tolerating thousands separators and
// blank cells (blank means zero, matching sheets exported by hand).
func parseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
