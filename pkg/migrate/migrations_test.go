package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/commercebridge/ucp-gateway/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestCartsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_carts_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE TABLE IF NOT EXISTS cart_items",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"CHECK (unit_price_minor >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (subtotal_minor >= 0)",
		"CHECK (tax_minor >= 0)",
		"CHECK (total_minor >= 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestDialectMapping(t *testing.T) {
	if d, err := migrate.Dialect("sqlite"); err != nil || d != "sqlite3" {
		t.Fatalf("sqlite dialect = %q, %v", d, err)
	}
	if d, err := migrate.Dialect("postgres"); err != nil || d != "postgres" {
		t.Fatalf("postgres dialect = %q, %v", d, err)
	}
	if _, err := migrate.Dialect("oracle"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
