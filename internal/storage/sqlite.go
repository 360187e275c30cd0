// Package storage maintains an ephemeral SQLite index over cached analyses.
// The JSON cache files are the source of truth; the index can always be
// rebuilt from them.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Entry is an indexed analysis.
type Entry struct {
	PubID     int       `json:"pub_id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	DOI       string    `json:"doi,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Snippet   string    `json:"snippet,omitempty"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS analyses (
			pub_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			source TEXT NOT NULL,
			doi TEXT,
			created_at TEXT NOT NULL
		);

		-- rowid mirrors analyses.pub_id
		CREATE VIRTUAL TABLE IF NOT EXISTS analyses_fts USING fts5(
			title,
			summary
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert indexes result, replacing any previous entry for the same id.
func (d *DB) Upsert(result *cache.AnalysisResult) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertTx(tx, result); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertTx(tx *sql.Tx, r *cache.AnalysisResult) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO analyses (pub_id, title, link, source, doi, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.PubID, r.Title, r.Link, r.Source, nullableString(r.DOI), r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting analysis %d: %w", r.PubID, err)
	}
	if _, err := tx.Exec(`DELETE FROM analyses_fts WHERE rowid = ?`, r.PubID); err != nil {
		return fmt.Errorf("clearing fts for %d: %w", r.PubID, err)
	}
	if _, err := tx.Exec(`INSERT INTO analyses_fts (rowid, title, summary) VALUES (?, ?, ?)`,
		r.PubID, r.Title, r.Summary); err != nil {
		return fmt.Errorf("inserting fts for %d: %w", r.PubID, err)
	}
	return nil
}

// Delete removes the entry for pubID. It reports whether an entry existed.
func (d *DB) Delete(pubID int) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM analyses WHERE pub_id = ?`, pubID)
	if err != nil {
		return false, fmt.Errorf("deleting analysis %d: %w", pubID, err)
	}
	if _, err := tx.Exec(`DELETE FROM analyses_fts WHERE rowid = ?`, pubID); err != nil {
		return false, fmt.Errorf("deleting fts for %d: %w", pubID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting analysis %d: %w", pubID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	return n > 0, nil
}

// RebuildFromCache clears the index and reloads it from every entry in store.
// Corrupt entries are skipped and their ids returned.
func (d *DB) RebuildFromCache(store *cache.Store) (int, []int, error) {
	ids, err := store.List()
	if err != nil {
		return 0, nil, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM analyses"); err != nil {
		return 0, nil, fmt.Errorf("clearing analyses table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM analyses_fts"); err != nil {
		return 0, nil, fmt.Errorf("clearing analyses_fts table: %w", err)
	}

	var indexed int
	var skipped []int
	for _, id := range ids {
		result, err := store.Get(id)
		if err != nil || result == nil {
			skipped = append(skipped, id)
			continue
		}
		if err := upsertTx(tx, result); err != nil {
			return 0, nil, err
		}
		indexed++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing rebuild: %w", err)
	}
	return indexed, skipped, nil
}

// Search performs a full-text search over titles and summaries, best match first.
func (d *DB) Search(query string, limit int) ([]Entry, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT a.pub_id, a.title, a.link, a.source, a.doi, a.created_at,
			snippet(analyses_fts, 1, '[', ']', '...', 12)
		FROM analyses_fts
		JOIN analyses a ON a.pub_id = analyses_fts.rowid
		WHERE analyses_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, true)
}

// List returns indexed analyses ordered by id. A limit of zero or less
// returns everything.
func (d *DB) List(limit int) ([]Entry, error) {
	query := `SELECT pub_id, title, link, source, doi, created_at FROM analyses ORDER BY pub_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, false)
}

// Count returns the number of indexed analyses.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows, withSnippet bool) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var doi sql.NullString
		var created string
		dest := []interface{}{&e.PubID, &e.Title, &e.Link, &e.Source, &doi, &created}
		if withSnippet {
			dest = append(dest, &e.Snippet)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.DOI = doi.String
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery quotes queries containing FTS5 syntax characters.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~.") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
