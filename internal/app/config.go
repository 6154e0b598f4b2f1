package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	Renderer     string `envconfig:"RENDERER" default:"fpdf"`
	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	InvoiceTitle    string `envconfig:"INVOICE_TITLE" default:"INVOICE"`
	InvoiceCurrency string `envconfig:"INVOICE_CURRENCY" default:"₹"`
	InvoiceTaxRate  string `envconfig:"INVOICE_TAX_RATE" default:"0.18"`

	SellerName    string   `envconfig:"SELLER_NAME"`
	SellerAddress []string `envconfig:"SELLER_ADDRESS"`
	SellerTaxID   string   `envconfig:"SELLER_TAX_ID"`
	SellerContact string   `envconfig:"SELLER_CONTACT"`

	BankAccountName   string `envconfig:"BANK_ACCOUNT_NAME"`
	BankAccountNumber string `envconfig:"BANK_ACCOUNT_NUMBER"`
	BankName          string `envconfig:"BANK_NAME"`
	BankIFSC          string `envconfig:"BANK_IFSC"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if _, err := cfg.TaxRate(); err != nil {
		return nil, err
	}
	if cfg.Renderer != "fpdf" && cfg.Renderer != "gotenberg" {
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
	return &cfg, nil
}

// TaxRate parses the configured tax rate as an exact decimal.
func (c *Config) TaxRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.InvoiceTaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", c.InvoiceTaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must not be negative")
	}
	return rate, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
