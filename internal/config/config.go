package config

import (
	"fmt"
	"os"
)

// Config holds the process configuration, read from the environment.
type Config struct {
	// Files
	LedgerFile   string
	RegistryFile string
	ExportDir    string

	// Business
	BusinessName string

	// Access gate; empty disables the PIN check.
	AccessPIN string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LedgerFile:   getEnv("LEDGER_FILE", "Udhaar.csv"),
		RegistryFile: getEnv("CUSTOMERS_FILE", "Customers.csv"),
		ExportDir:    getEnv("EXPORT_DIR", "."),
		BusinessName: getEnv("BUSINESS_NAME", "Noor Pharmacy"),
		AccessPIN:    getEnv("ACCESS_PIN", ""),
	}

	if cfg.LedgerFile == "" {
		return nil, fmt.Errorf("LEDGER_FILE must not be empty")
	}
	if cfg.RegistryFile == "" {
		return nil, fmt.Errorf("CUSTOMERS_FILE must not be empty")
	}

	return cfg, nil
}

// getEnv falls back to the default only when the variable is unset; a
// variable explicitly set to an empty string is returned as-is, so the
// required-field validation above can reject it.
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
