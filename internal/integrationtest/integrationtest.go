// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/go-petr/coincard/internal/treasuryrepo"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/dbpkg"
)

// LoadConfig loads configs/app.env relative to the test package.
func LoadConfig(t *testing.T, path string) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load(path)
	if err != nil {
		t.Fatalf("configpkg.Load(%q) returned error: %v", path, err)
	}

	return config
}

// Flush flushes all db tables without droping.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables sql.NullString

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables 
	WHERE table_schema='public';`

	if err := db.QueryRow(query).Scan(&tables); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if !tables.Valid {
		return
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables.String + " CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SeedVault deposits amount into the treasury balance of id.
func SeedVault(t *testing.T, db dbpkg.SQLInterface, id uuid.UUID, amount string) {
	t.Helper()

	if _, err := treasuryrepo.NewTxRepoPGS(db).Deposit(context.Background(), id, amount); err != nil {
		t.Fatalf("Deposit(%v, %v) returned error: %v", id, amount, err)
	}
}
