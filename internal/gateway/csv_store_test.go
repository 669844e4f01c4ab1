package gateway

import (
	"bytes"
	"context"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udhaar-book/internal/domain"
)

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, row := range rows {
		require.NoError(t, writer.Write(row))
	}
	writer.Flush()
	require.NoError(t, writer.Error())
}

func ledgerPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "Udhaar.csv")
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, value)
	require.NoError(t, err)
	return d
}

func TestCSVLedgerStore_Load(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected []domain.Transaction
		wantErr  error
	}{
		{
			name: "valid ledger",
			rows: [][]string{
				{"Date", "Name", "Note", "Debit", "Credit"},
				{"10/03/2025", "Ahmed", "syrup", "500", "0"},
				{"11/03/2025", "Ahmed", "cash", "0", "200"},
				{"11/03/2025", "Bilal", "", "0", "100"},
			},
			expected: []domain.Transaction{
				{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), CustomerName: "Ahmed", Note: "syrup", Debit: 500},
				{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), CustomerName: "Ahmed", Note: "cash", Credit: 200},
				{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), CustomerName: "Bilal", Credit: 100},
			},
		},
		{
			name: "header only",
			rows: [][]string{
				{"Date", "Name", "Note", "Debit", "Credit"},
			},
			expected: nil,
		},
		{
			name: "blank amounts read as zero",
			rows: [][]string{
				{"Date", "Name", "Note", "Debit", "Credit"},
				{"10/03/2025", "Ahmed", "", "150.50", ""},
			},
			expected: []domain.Transaction{
				{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), CustomerName: "Ahmed", Debit: 150.50},
			},
		},
		{
			name: "unexpected header",
			rows: [][]string{
				{"When", "Who", "What", "Debit", "Credit"},
			},
			wantErr: domain.ErrCorruptStore,
		},
		{
			name: "bad date",
			rows: [][]string{
				{"Date", "Name", "Note", "Debit", "Credit"},
				{"2025-03-10", "Ahmed", "", "500", "0"},
			},
			wantErr: domain.ErrCorruptStore,
		},
		{
			name: "bad amount",
			rows: [][]string{
				{"Date", "Name", "Note", "Debit", "Credit"},
				{"10/03/2025", "Ahmed", "", "five hundred", "0"},
			},
			wantErr: domain.ErrCorruptStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ledgerPath(t)
			writeCSV(t, path, tt.rows)

			store := NewCSVLedgerStore(path)
			got, err := store.Load(context.Background())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i, want := range tt.expected {
				assert.NotEqual(t, uuid.Nil, got[i].ID)
				assert.True(t, got[i].Date.Equal(want.Date))
				assert.Equal(t, want.CustomerName, got[i].CustomerName)
				assert.Equal(t, want.Note, got[i].Note)
				assert.Equal(t, want.Debit, got[i].Debit)
				assert.Equal(t, want.Credit, got[i].Credit)
			}
		})
	}
}

func TestCSVLedgerStore_Load_MissingFile(t *testing.T) {
	store := NewCSVLedgerStore(filepath.Join(t.TempDir(), "nope.csv"))

	got, err := store.Load(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVLedgerStore_Load_CorruptReportedOnce(t *testing.T) {
	path := ledgerPath(t)
	writeCSV(t, path, [][]string{
		{"Date", "Name", "Note", "Debit", "Credit"},
		{"not a date", "Ahmed", "", "500", "0"},
	})

	store := NewCSVLedgerStore(path)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCorruptStore)

	// The store has degraded to an empty ledger; it stays usable.
	got, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)

	_, err = store.Append(context.Background(), domain.TransactionInput{CustomerName: "Bilal", Debit: 50})
	assert.NoError(t, err)
}

// captureLog redirects the standard logger to a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestCSVLedgerStore_MutateFirstOnCorruptFileLogsTheLoss(t *testing.T) {
	path := ledgerPath(t)
	writeCSV(t, path, [][]string{
		{"Date", "Name", "Note", "Debit", "Credit"},
		{"not a date", "Ahmed", "", "500", "0"},
	})

	logged := captureLog(t)

	// The very first operation on the store is a mutation, as the CLI's
	// add/pay paths do. The corrupt file still degrades to empty, but the
	// overwrite of its unreadable contents must not be silent.
	store := NewCSVLedgerStore(path)
	_, err := store.Append(context.Background(), domain.TransactionInput{CustomerName: "Bilal", Debit: 50})
	require.NoError(t, err)

	assert.Contains(t, logged.String(), "corrupt")

	records, err := NewCSVLedgerStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bilal", records[0].CustomerName)
}

func TestCSVLedgerStore_AppendRoundTrip(t *testing.T) {
	path := ledgerPath(t)
	store := NewCSVLedgerStore(path)
	ctx := context.Background()

	inputs := []domain.TransactionInput{
		{Date: mustDate(t, "10/03/2025"), CustomerName: "Ahmed", Note: "syrup", Debit: 500},
		{Date: mustDate(t, "11/03/2025"), CustomerName: "Ahmed", Credit: 200},
		{Date: mustDate(t, "11/03/2025"), CustomerName: "Bilal", Note: "tablets, strip of 10", Credit: 100.25},
	}
	for _, in := range inputs {
		id, err := store.Append(ctx, in)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	}

	// A fresh store reading the same file must see the same records in the
	// same order (ids are per-instance, everything else round-trips).
	reread, err := NewCSVLedgerStore(path).Load(ctx)
	require.NoError(t, err)
	require.Len(t, reread, len(inputs))
	for i, in := range inputs {
		assert.True(t, reread[i].Date.Equal(in.Date))
		assert.Equal(t, in.CustomerName, reread[i].CustomerName)
		assert.Equal(t, in.Note, reread[i].Note)
		assert.Equal(t, in.Debit, reread[i].Debit)
		assert.Equal(t, in.Credit, reread[i].Credit)
	}
}

func TestCSVLedgerStore_Append_DefaultsDateToToday(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))
	ctx := context.Background()

	_, err := store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Debit: 10})
	require.NoError(t, err)

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Now().Format(domain.DateLayout), records[0].Date.Format(domain.DateLayout))
}

func TestCSVLedgerStore_Append_RejectsNegativeAmounts(t *testing.T) {
	path := ledgerPath(t)
	store := NewCSVLedgerStore(path)
	ctx := context.Background()

	var vErr *domain.ValidationError

	_, err := store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Debit: -5})
	assert.ErrorAs(t, err, &vErr)

	_, err = store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Credit: -5})
	assert.ErrorAs(t, err, &vErr)

	// Nothing was persisted.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCSVLedgerStore_Update(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))
	ctx := context.Background()

	debitID, err := store.Append(ctx, domain.TransactionInput{
		Date: mustDate(t, "10/03/2025"), CustomerName: "Ahmed", Note: "syrup", Debit: 500,
	})
	require.NoError(t, err)
	creditID, err := store.Append(ctx, domain.TransactionInput{
		Date: mustDate(t, "11/03/2025"), CustomerName: "Ahmed", Credit: 200,
	})
	require.NoError(t, err)

	amount := 450.0
	note := "corrected"
	require.NoError(t, store.Update(ctx, debitID, domain.UpdateFields{Amount: &amount, Note: &note}))

	records, err := store.Load(ctx)
	require.NoError(t, err)

	// The amount lands on the debit side; date, name and the credit entry
	// are untouched.
	assert.Equal(t, 450.0, records[0].Debit)
	assert.Equal(t, 0.0, records[0].Credit)
	assert.Equal(t, "corrected", records[0].Note)
	assert.Equal(t, "Ahmed", records[0].CustomerName)
	assert.True(t, records[0].Date.Equal(mustDate(t, "10/03/2025")))
	assert.Equal(t, 200.0, records[1].Credit)

	// Amount on a credit entry lands on the credit side.
	payment := 250.0
	require.NoError(t, store.Update(ctx, creditID, domain.UpdateFields{Amount: &payment}))
	records, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250.0, records[1].Credit)
	assert.Equal(t, 0.0, records[1].Debit)
}

func TestCSVLedgerStore_Update_NoteOnly(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))
	ctx := context.Background()

	id, err := store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Debit: 500})
	require.NoError(t, err)

	note := "corrected"
	require.NoError(t, store.Update(ctx, id, domain.UpdateFields{Note: &note}))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "corrected", records[0].Note)
	assert.Equal(t, 500.0, records[0].Debit)
}

func TestCSVLedgerStore_Update_NotFound(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))

	note := "x"
	err := store.Update(context.Background(), uuid.New(), domain.UpdateFields{Note: &note})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCSVLedgerStore_Delete(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))
	ctx := context.Background()

	id, err := store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Debit: 500})
	require.NoError(t, err)
	_, err = store.Append(ctx, domain.TransactionInput{CustomerName: "Bilal", Debit: 50})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bilal", records[0].CustomerName)

	// A second delete of the same id fails and changes nothing.
	err = store.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	records, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCSVLedgerStore_DeleteByCustomer(t *testing.T) {
	store := NewCSVLedgerStore(ledgerPath(t))
	ctx := context.Background()

	for _, in := range []domain.TransactionInput{
		{CustomerName: "Ahmed", Debit: 500},
		{CustomerName: "Bilal", Debit: 50},
		{CustomerName: "Ahmed", Credit: 200},
		{CustomerName: "ahmed", Debit: 70}, // case-sensitive, a different customer
	} {
		_, err := store.Append(ctx, in)
		require.NoError(t, err)
	}

	count, err := store.DeleteByCustomer(ctx, "Ahmed")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bilal", records[0].CustomerName)
	assert.Equal(t, "ahmed", records[1].CustomerName)

	// Second call finds nothing; not an error.
	count, err = store.DeleteByCustomer(ctx, "Ahmed")
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCSVLedgerStore_PersistsAfterEveryMutation(t *testing.T) {
	path := ledgerPath(t)
	store := NewCSVLedgerStore(path)
	ctx := context.Background()

	id, err := store.Append(ctx, domain.TransactionInput{CustomerName: "Ahmed", Debit: 500})
	require.NoError(t, err)

	// Each mutation is visible to an independent reader immediately after
	// the call returns.
	afterAppend, err := NewCSVLedgerStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, afterAppend, 1)

	require.NoError(t, store.Delete(ctx, id))

	afterDelete, err := NewCSVLedgerStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, afterDelete)
}
