package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"udhaar-book/internal/domain"
)

var registryHeader = []string{"Name", "Phone", "Address", "Image_Path"}

// CSVCustomerRegistry persists customer contact details (phone, address,
// photo path) keyed by exact name. Rows are created lazily for any ledger
// name not yet registered, with the optional fields left blank.
type CSVCustomerRegistry struct {
	path string

	mu        sync.Mutex
	loaded    bool
	customers []domain.Customer
}

func NewCSVCustomerRegistry(path string) *CSVCustomerRegistry {
	return &CSVCustomerRegistry{path: path}
}

// Load returns all registered customers in file order.
func (r *CSVCustomerRegistry) Load(ctx context.Context) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]domain.Customer, len(r.customers))
	copy(out, r.customers)
	return out, nil
}

// Ensure creates a blank registry row for every name not yet present.
// Persists once, and only when something was added.
func (r *CSVCustomerRegistry) Ensure(ctx context.Context, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadForMutation(); err != nil {
		return err
	}

	known := make(map[string]bool, len(r.customers))
	for _, c := range r.customers {
		known[c.Name] = true
	}

	added := false
	for _, name := range names {
		if name == "" || known[name] {
			continue
		}
		r.customers = append(r.customers, domain.Customer{Name: name})
		known[name] = true
		added = true
	}
	if !added {
		return nil
	}
	return r.persist()
}

// Save inserts or replaces the registry row for customer.Name.
func (r *CSVCustomerRegistry) Save(ctx context.Context, customer domain.Customer) error {
	if customer.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "name must not be blank"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadForMutation(); err != nil {
		return err
	}

	replaced := false
	for i, c := range r.customers {
		if c.Name == customer.Name {
			r.customers[i] = customer
			replaced = true
			break
		}
	}
	if !replaced {
		r.customers = append(r.customers, customer)
	}
	return r.persist()
}

// Delete removes the registry row for an exact-match name. Missing names
// are not an error: the registry row may never have been created.
func (r *CSVCustomerRegistry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadForMutation(); err != nil {
		return err
	}

	for i, c := range r.customers {
		if c.Name == name {
			r.customers = append(r.customers[:i], r.customers[i+1:]...)
			return r.persist()
		}
	}
	return nil
}

// loadForMutation loads the file ahead of a rewrite, logging a corrupt
// registry before its unreadable contents get overwritten. Other load
// failures abort the mutation.
func (r *CSVCustomerRegistry) loadForMutation() error {
	err := r.ensureLoaded()
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCorruptStore) {
		log.Printf("warning: customer registry file is corrupt, its unreadable contents will be overwritten: %v", err)
		return nil
	}
	return err
}

func (r *CSVCustomerRegistry) ensureLoaded() error {
	if r.loaded {
		return nil
	}
	customers, err := readRegistryFile(r.path)
	if err != nil {
		r.customers = nil
		r.loaded = true
		return err
	}
	r.customers = customers
	r.loaded = true
	return nil
}

func (r *CSVCustomerRegistry) persist() error {
	file, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(registryHeader); err != nil {
		file.Close()
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	for _, c := range r.customers {
		if err := writer.Write([]string{c.Name, c.Phone, c.Address, c.ImagePath}); err != nil {
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

func readRegistryFile(path string) ([]domain.Customer, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open registry file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
	}
	if len(header) != len(registryHeader) || !strings.EqualFold(strings.TrimSpace(header[0]), "Name") {
		return nil, fmt.Errorf("%w: %s: unexpected header %v", domain.ErrCorruptStore, path, header)
	}

	var customers []domain.Customer
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
		}
		customers = append(customers, domain.Customer{
			Name:      row[0],
			Phone:     row[1],
			Address:   row[2],
			ImagePath: row[3],
		})
	}
	return customers, nil
}
