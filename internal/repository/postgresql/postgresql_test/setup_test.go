package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds the connection to the test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to the test database and applies migrations.
func NewTestDatabase() (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DATABASE_URL is not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// TruncateAllTables removes every row the tests may have written.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"extratime_lines",
		"extratimes",
		"ptu_processes",
		"settlements",
		"alimonies",
		"loan_lines",
		"loans",
		"payslip_lines",
		"payslip_inputs",
		"payslip_worked_days",
		"payslips",
		"payslip_runs",
		"salary_rules",
		"payroll_structures",
		"rule_categories",
		"payroll_settings",
		"salary_histories",
		"salary_increases",
		"contracts",
		"allowance_catalog_lines",
		"allowance_catalogs",
		"employees",
		"employer_registers",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection.
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

var testSetup *TestDatabaseSetup

func TestMain(m *testing.M) {
	setup, err := NewTestDatabase()
	if err != nil {
		fmt.Println("skipping repository tests:", err)
		os.Exit(0)
	}
	testSetup = setup

	code := m.Run()
	setup.Close()
	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, testSetup.TruncateAllTables(context.Background()))
}
