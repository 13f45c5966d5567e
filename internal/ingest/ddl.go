package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blockpipe/solindexer/internal/domain"
)

// identifierPattern restricts table names to a safe charset before they are
// interpolated into DDL/DML. Destination table names come from user input,
// so this is a correctness requirement, not a style choice.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentifierLength matches PostgreSQL's NAMEDATALEN-1 limit.
const maxIdentifierLength = 63

// ValidateTableName rejects destination table names that are unsafe to
// interpolate into SQL. Exposed so configurations can be validated at
// creation time instead of failing at first delivery.
func ValidateTableName(name string) error {
	return validateIdentifier(name)
}

// validateIdentifier rejects table names outside the allowed charset.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("table name %q exceeds %d characters", name, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("table name %q contains characters outside [a-zA-Z0-9_]", name)
	}
	return nil
}

// ddlTemplates maps each category to the statements that create its
// destination table and secondary indexes. {table} is substituted with the
// validated table name. Every statement is guarded so re-invocation is a
// no-op.
var ddlTemplates = map[domain.EventCategory][]string{
	domain.CategoryNFTPrices: {
		`CREATE TABLE IF NOT EXISTS {table} (
			id SERIAL PRIMARY KEY,
			nft_address TEXT NOT NULL,
			price_sol DECIMAL(20, 9) NOT NULL,
			buyer TEXT NOT NULL,
			seller TEXT NOT NULL,
			transaction_signature TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_nft_address ON {table}(nft_address)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_timestamp ON {table}(timestamp)`,
	},
	domain.CategoryNFTBids: {
		`CREATE TABLE IF NOT EXISTS {table} (
			id SERIAL PRIMARY KEY,
			nft_address TEXT NOT NULL,
			bid_amount_sol DECIMAL(20, 9) NOT NULL,
			bidder TEXT NOT NULL,
			transaction_signature TEXT NOT NULL,
			marketplace TEXT,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_nft_address ON {table}(nft_address)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_timestamp ON {table}(timestamp)`,
	},
	domain.CategoryTokenAvailability: {
		`CREATE TABLE IF NOT EXISTS {table} (
			id SERIAL PRIMARY KEY,
			token_mint TEXT NOT NULL,
			from_account TEXT,
			to_account TEXT,
			amount DECIMAL(20, 9) NOT NULL,
			transaction_type TEXT NOT NULL,
			transaction_signature TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_token_mint ON {table}(token_mint)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_timestamp ON {table}(timestamp)`,
	},
	domain.CategoryTokenPrices: {
		`CREATE TABLE IF NOT EXISTS {table} (
			id SERIAL PRIMARY KEY,
			token_in_mint TEXT NOT NULL,
			token_out_mint TEXT NOT NULL,
			amount_in DECIMAL(20, 9) NOT NULL,
			amount_out DECIMAL(20, 9) NOT NULL,
			price_in_sol DECIMAL(20, 9),
			dex TEXT,
			transaction_signature TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_token_in ON {table}(token_in_mint)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_token_out ON {table}(token_out_mint)`,
		`CREATE INDEX IF NOT EXISTS idx_{table}_timestamp ON {table}(timestamp)`,
	},
}

// requiredColumns lists the minimum column set a destination table must have
// for each category. A pre-existing table missing any of these is rejected,
// never silently repaired.
var requiredColumns = map[domain.EventCategory][]string{
	domain.CategoryNFTPrices: {
		"nft_address", "price_sol", "buyer", "seller", "transaction_signature", "timestamp",
	},
	domain.CategoryNFTBids: {
		"nft_address", "bid_amount_sol", "bidder", "transaction_signature", "timestamp",
	},
	domain.CategoryTokenAvailability: {
		"token_mint", "amount", "transaction_type", "transaction_signature", "timestamp",
	},
	domain.CategoryTokenPrices: {
		"token_in_mint", "token_out_mint", "amount_in", "amount_out", "transaction_signature", "timestamp",
	},
}

// RequiredColumns returns the required-column contract for a category.
func RequiredColumns(category domain.EventCategory) []string {
	cols := requiredColumns[category]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// renderDDL substitutes the table name into a category's DDL statements.
// The caller must have validated the table name first.
func renderDDL(category domain.EventCategory, table string) []string {
	templates := ddlTemplates[category]
	statements := make([]string, len(templates))
	for i, tpl := range templates {
		statements[i] = strings.ReplaceAll(tpl, "{table}", table)
	}
	return statements
}
