package golden

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"uninames/internal/normalize"
)

// Store persists the golden reference in SQLite so the reference survives
// between runs without round-tripping through workbooks.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// OpenStore initializes the SQLite database at path, creating the schema
// and parent directory as needed.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("golden: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("golden: open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS golden (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bi_name TEXT NOT NULL,
		standard_name TEXT NOT NULL,
		specialty TEXT DEFAULT '',
		alias_clean TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_golden_bi_name ON golden(bi_name);
	CREATE INDEX IF NOT EXISTS idx_golden_standard ON golden(standard_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("golden: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Upsert inserts or replaces the record keyed by its clean alias.
func (s *Store) Upsert(rec Record) error {
	if rec.BIName == "" || rec.StandardName == "" {
		return fmt.Errorf("golden: record needs BI name and standard name")
	}
	if rec.AliasClean == "" {
		rec.AliasClean = normalize.CleanName(rec.BIName, true)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO golden (bi_name, standard_name, specialty, alias_clean)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(alias_clean) DO UPDATE SET
			bi_name = excluded.bi_name,
			standard_name = excluded.standard_name,
			specialty = excluded.specialty,
			updated_at = CURRENT_TIMESTAMP`,
		rec.BIName, rec.StandardName, rec.Specialty, rec.AliasClean)
	if err != nil {
		return fmt.Errorf("golden: upsert %q: %w", rec.BIName, err)
	}
	return nil
}

// UpsertAll upserts records in one transaction and returns how many were
// written. Records without both names are skipped.
func (s *Store) UpsertAll(records []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("golden: begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO golden (bi_name, standard_name, specialty, alias_clean)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(alias_clean) DO UPDATE SET
			bi_name = excluded.bi_name,
			standard_name = excluded.standard_name,
			specialty = excluded.specialty,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("golden: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, rec := range records {
		if rec.BIName == "" || rec.StandardName == "" {
			continue
		}
		if rec.AliasClean == "" {
			rec.AliasClean = normalize.CleanName(rec.BIName, true)
		}
		if _, err := stmt.Exec(rec.BIName, rec.StandardName, rec.Specialty, rec.AliasClean); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("golden: upsert %q: %w", rec.BIName, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("golden: commit: %w", err)
	}
	return n, nil
}

// All returns every stored record ordered by clean alias.
func (s *Store) All() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT bi_name, standard_name, specialty, alias_clean
		FROM golden ORDER BY alias_clean`)
	if err != nil {
		return nil, fmt.Errorf("golden: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.BIName, &rec.StandardName, &rec.Specialty, &rec.AliasClean); err != nil {
			return nil, fmt.Errorf("golden: scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM golden`).Scan(&n); err != nil {
		return 0, fmt.Errorf("golden: count: %w", err)
	}
	return n, nil
}

// Reference materializes the stored records into an in-memory Reference.
func (s *Store) Reference() (*Reference, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}
	return New(records), nil
}

// ImportWorkbook loads a golden workbook or CSV into the store.
func (s *Store) ImportWorkbook(path string) (int, error) {
	ref, err := Load(path)
	if err != nil {
		return 0, err
	}
	return s.UpsertAll(ref.Records())
}

// ExportWorkbook writes the stored reference to a workbook or CSV.
func (s *Store) ExportWorkbook(path string) (int, error) {
	records, err := s.All()
	if err != nil {
		return 0, err
	}
	if err := WriteReference(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
