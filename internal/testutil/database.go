package testutil

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the MySQL test database. It expects a database named
// waypoint_test on localhost:3306 unless WAYPOINT_TEST_DSN is set, and skips
// the test when the server is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("WAYPOINT_TEST_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/waypoint_test?parseTime=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}
	if _, err := db.Exec("DELETE FROM WizardDrafts"); err != nil {
		t.Logf("failed to clean table WizardDrafts: %v", err)
	}
	db.Close()
}
