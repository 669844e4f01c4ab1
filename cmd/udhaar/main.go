package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"udhaar-book/internal/config"
	"udhaar-book/internal/domain"
	"udhaar-book/internal/gateway"
	"udhaar-book/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in normal use: configuration then comes from the process env.
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// One store instance per process; the store serializes writers.
	store := gateway.NewCSVLedgerStore(cfg.LedgerFile)
	registry := gateway.NewCSVCustomerRegistry(cfg.RegistryFile)
	service := usecase.NewLedgerService(store, registry, cfg.BusinessName, cfg.AccessPIN)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	app := &cli{service: service, cfg: cfg}

	switch os.Args[1] {
	case "dashboard":
		app.dashboard(ctx, os.Args[2:])
	case "add":
		app.add(ctx, os.Args[2:])
	case "pay":
		app.pay(ctx, os.Args[2:])
	case "history":
		app.history(ctx, os.Args[2:])
	case "search":
		app.search(ctx, os.Args[2:])
	case "update":
		app.update(ctx, os.Args[2:])
	case "delete":
		app.delete(ctx, os.Args[2:])
	case "delete-customer":
		app.deleteCustomer(ctx, os.Args[2:])
	case "remind":
		app.remind(ctx, os.Args[2:])
	case "export":
		app.export(ctx, os.Args[2:])
	default:
		fmt.Printf("Error: unknown command %q.\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage: udhaar <command> [flags]

Commands:
  dashboard        Totals owed/receivable and per-customer balances
  add              Record a debit entry (credit extended to a customer)
  pay              Record a credit entry (payment received)
  history          A customer's entries, newest first
  search           Find customer names by substring
  update           Edit the amount and/or note of an entry
  delete           Remove a single entry
  delete-customer  Remove a customer and all their entries
  remind           Render the reminder message and WhatsApp link
  export           Write an XLSX statement`)
}

type cli struct {
	service *usecase.LedgerService
	cfg     *config.Config
}

// gate enforces the shared PIN when one is configured.
func (c *cli) gate(pin string) {
	if !c.service.CheckPIN(pin) {
		log.Fatal("Access denied: wrong PIN")
	}
}

func (c *cli) dashboard(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	fs.Parse(args)
	c.gate(*pin)

	report, err := c.service.Dashboard(ctx)
	if err != nil {
		log.Fatalf("Dashboard failed: %v", err)
	}
	printJSON(report)
}

func (c *cli) add(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	amount := fs.Float64("amount", 0, "Debit amount (required)")
	note := fs.String("note", "", "Optional memo")
	dateStr := fs.String("date", "", "Entry date as DD/MM/YYYY (default today)")
	fs.Parse(args)
	c.gate(*pin)

	date, err := parseDateFlag(*dateStr)
	if err != nil {
		log.Fatalf("Invalid -date: %v", err)
	}

	id, err := c.service.AddEntry(ctx, domain.TransactionInput{
		Date:         date,
		CustomerName: *name,
		Note:         *note,
		Debit:        *amount,
	})
	if err != nil {
		log.Fatalf("Could not add entry: %v", err)
	}
	fmt.Printf("Recorded debit of %.2f for %s (entry %s).\n", *amount, *name, id)
}

func (c *cli) pay(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	amount := fs.Float64("amount", 0, "Payment amount (required)")
	note := fs.String("note", "", "Optional memo")
	fs.Parse(args)
	c.gate(*pin)

	id, err := c.service.RecordPayment(ctx, *name, *amount, *note)
	if err != nil {
		log.Fatalf("Could not record payment: %v", err)
	}
	fmt.Printf("Recorded payment of %.2f from %s (entry %s).\n", *amount, *name, id)
}

// historyRow adds the 1-based position shown to the user; update and
// delete address entries by it within the same process run style of use.
type historyRow struct {
	Index int `json:"index"`
	domain.Transaction
}

func (c *cli) history(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	fs.Parse(args)
	c.gate(*pin)

	records, err := c.service.History(ctx, *name)
	if err != nil {
		log.Fatalf("History failed: %v", err)
	}

	rows := make([]historyRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, historyRow{Index: i + 1, Transaction: rec})
	}
	printJSON(rows)
}

func (c *cli) search(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	query := fs.String("q", "", "Substring to match (empty lists everyone)")
	fs.Parse(args)
	c.gate(*pin)

	names, err := c.service.Search(ctx, *query)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	printJSON(names)
}

func (c *cli) update(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	index := fs.Int("index", 0, "Entry position from 'history', 1 = newest (required)")
	amount := fs.Float64("amount", 0, "New amount")
	note := fs.String("note", "", "New memo")
	fs.Parse(args)
	c.gate(*pin)

	var fields domain.UpdateFields
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "amount":
			fields.Amount = amount
		case "note":
			fields.Note = note
		}
	})
	if fields.Amount == nil && fields.Note == nil {
		log.Fatal("Nothing to update: pass -amount and/or -note")
	}

	rec, err := c.resolveEntry(ctx, *name, *index)
	if err != nil {
		log.Fatalf("Could not find entry: %v", err)
	}
	if err := c.service.UpdateEntry(ctx, rec.ID, fields); err != nil {
		log.Fatalf("Update failed: %v", err)
	}
	fmt.Printf("Updated entry %d for %s.\n", *index, *name)
}

func (c *cli) delete(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	index := fs.Int("index", 0, "Entry position from 'history', 1 = newest (required)")
	fs.Parse(args)
	c.gate(*pin)

	rec, err := c.resolveEntry(ctx, *name, *index)
	if err != nil {
		log.Fatalf("Could not find entry: %v", err)
	}
	if err := c.service.DeleteEntry(ctx, rec.ID); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Printf("Deleted entry %d for %s.\n", *index, *name)
}

func (c *cli) deleteCustomer(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete-customer", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	fs.Parse(args)
	c.gate(*pin)

	count, err := c.service.DeleteCustomer(ctx, *name)
	if err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Printf("Removed %d entries for %s.\n", count, *name)
}

func (c *cli) remind(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("remind", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (required)")
	fs.Parse(args)
	c.gate(*pin)

	message, err := c.service.ReminderMessage(ctx, *name)
	if err != nil {
		log.Fatalf("Reminder failed: %v", err)
	}
	link, err := c.service.WhatsAppLink(ctx, *name)
	if err != nil {
		log.Fatalf("Reminder failed: %v", err)
	}
	fmt.Println(message)
	fmt.Println(link)
}

func (c *cli) export(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	pin := fs.String("pin", "", "Access PIN")
	name := fs.String("name", "", "Customer name (empty exports the whole ledger)")
	out := fs.String("out", "statement.xlsx", "Output file name")
	fs.Parse(args)
	c.gate(*pin)

	path := *out
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.cfg.ExportDir, path)
	}
	exporter := gateway.NewXLSXStatementExporter()
	if err := c.service.ExportStatement(ctx, exporter, *name, path); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Statement written to %s.\n", path)
}

// resolveEntry turns the 1-based history position (1 = newest) into the
// record it currently names.
func (c *cli) resolveEntry(ctx context.Context, name string, index int) (domain.Transaction, error) {
	records, err := c.service.History(ctx, name)
	if err != nil {
		return domain.Transaction{}, err
	}
	if index < 1 || index > len(records) {
		return domain.Transaction{}, fmt.Errorf("%s has %d entries, no entry %d", name, len(records), index)
	}
	return records[index-1], nil
}

func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(domain.DateLayout, raw)
}

func printJSON(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render output: %v", err)
	}
	fmt.Println(string(output))
}
