package products

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Store is a DuckDB-backed product name cache. It persists names fetched
// from remote sources so later runs resolve them offline.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) a product cache at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open product cache: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the cache table if it does not exist.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			symbol TEXT PRIMARY KEY,
			name   TEXT NOT NULL,
			source TEXT
		);
	`)
	return err
}

// Get returns the cached product name for a symbol.
func (s *Store) Get(symbol string) (string, bool, error) {
	var name string
	err := s.db.QueryRow("SELECT name FROM products WHERE symbol = ?", symbol).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query product: %w", err)
	}
	return name, true, nil
}

// Put inserts or replaces a cached product name.
func (s *Store) Put(symbol, name, source string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO products (symbol, name, source) VALUES (?, ?, ?)",
		symbol, name, source)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Entry is one cached symbol-to-product mapping.
type Entry struct {
	Symbol string
	Name   string
	Source string
}

// All returns every cached entry ordered by symbol.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query("SELECT symbol, name, source FROM products ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var source sql.NullString
		if err := rows.Scan(&e.Symbol, &e.Name, &source); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		e.Source = source.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of cached entries.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}
