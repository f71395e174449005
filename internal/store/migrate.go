package store

import (
	"database/sql"
	"fmt"

	"github.com/danbim/application-tracker/internal/domain"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v < 1 {
		if err := migrateV1(tx); err != nil {
			return err
		}
	}

	// Criteria added after a database was created get their column here,
	// so the table always matches domain.Criteria().
	for _, ci := range domain.Criteria() {
		if columnExists(tx, "job_openings", ci.Column) {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE job_openings ADD COLUMN %s INTEGER;`, ci.Column)); err != nil {
			return fmt.Errorf("add column %s: %w", ci.Column, err)
		}
	}

	return tx.Commit()
}

func migrateV1(tx *sql.Tx) error {
	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scoring_formulas (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  weights TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	cols := ""
	for _, ci := range domain.Criteria() {
		cols += fmt.Sprintf("  %s INTEGER,\n", ci.Column)
	}
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS job_openings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  description TEXT NOT NULL,
  job_location TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  posting_url TEXT NOT NULL DEFAULT '',
  date_opened TEXT NOT NULL DEFAULT '',
  date_added TEXT NOT NULL,
  wow INTEGER NOT NULL DEFAULT 0,
  track TEXT NOT NULL DEFAULT '',
  work_location TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'not_applied',
  applied_at TEXT,
  interviewing_at TEXT,
  offer_at TEXT,
  rejected_at TEXT,
  ghosted_at TEXT,
  dumped_at TEXT,
  salary_min INTEGER,
  salary_max INTEGER,
  salary_currency TEXT NOT NULL DEFAULT '',
` + cols + `  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_scoring_formulas_name
ON scoring_formulas(name);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_job_openings_date_added
ON job_openings(date_added);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_job_openings_status_country
ON job_openings(status, country);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return nil
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
