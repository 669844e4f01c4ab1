package usecase

import (
	"strings"

	"udhaar-book/internal/domain"
)

// The balance engine: pure functions over a ledger snapshot. Every screen
// recomputes from the full record set; at personal-business scale there is
// nothing worth caching.

// BalancesByCustomer groups records by exact customer name and returns the
// signed net balance (sum of debits minus sum of credits) per name. A
// customer with records but zero net activity still appears with balance 0.
func BalancesByCustomer(records []domain.Transaction) map[string]float64 {
	balances := make(map[string]float64)
	for _, rec := range records {
		balances[rec.CustomerName] += rec.Debit - rec.Credit
	}
	return balances
}

// Totals returns the money owed to the business (sum of positive balances)
// and the money the business owes (absolute sum of negative balances).
// Customers with balance exactly zero contribute to neither.
func Totals(records []domain.Transaction) (toReceive, toPay float64) {
	for _, balance := range BalancesByCustomer(records) {
		if balance > 0 {
			toReceive += balance
		} else if balance < 0 {
			toPay += -balance
		}
	}
	return toReceive, toPay
}

// History returns all records for an exact-match name, newest first.
// Append order, not the recorded date, decides what is newest: a backdated
// entry added today still shows up at the top.
func History(records []domain.Transaction, name string) []domain.Transaction {
	var history []domain.Transaction
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].CustomerName == name {
			history = append(history, records[i])
		}
	}
	return history
}

// FilterNames returns the distinct customer names whose name contains the
// query, case-insensitively. An empty query returns every distinct name.
// Order is first appearance in the ledger.
func FilterNames(records []domain.Transaction, query string) []string {
	query = strings.ToLower(query)
	var matches []string
	for _, name := range DistinctNames(records) {
		if query == "" || strings.Contains(strings.ToLower(name), query) {
			matches = append(matches, name)
		}
	}
	return matches
}

// DistinctNames lists every customer name present in the ledger, in
// first-seen order.
func DistinctNames(records []domain.Transaction) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range records {
		if !seen[rec.CustomerName] {
			seen[rec.CustomerName] = true
			names = append(names, rec.CustomerName)
		}
	}
	return names
}
