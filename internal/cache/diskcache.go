package cache

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"

	"github.com/hassan/chemc/internal/lexer"

	_ "modernc.org/sqlite"
)

// DiskCache is the optional cross-run tier (`--cache-db <path>`): a SQLite
// database, accessed directly through database/sql rather than an ORM since
// every access here is a single keyed read or write, not a relational query.
//
// It caches lexer.Token slices rather than the converted AST. ast.Arena's
// NodeRef/ValueRef/TypeRef back-references are only valid alongside the
// arena that produced them, and a multi-file build may eventually need a
// single shared arena across files for cross-file ReferencedType.Linked
// resolution (an open question left to internal/driver) — persisting a
// partial arena graph across process runs would risk silently stale or
// dangling refs. lexer.Token is a flat, arena-free struct, so caching the
// token stream is the largest unit of work this tier can skip (re-lexing)
// without that risk; CST building and AST conversion still re-run from the
// cached tokens.
type DiskCache struct {
	db *sql.DB
}

// OpenDiskCache opens (creating if necessary) the SQLite database at path
// and ensures its schema exists.
func OpenDiskCache(path string) (*DiskCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			path  TEXT NOT NULL,
			hash  TEXT NOT NULL,
			blob  BLOB NOT NULL,
			PRIMARY KEY (path, hash)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &DiskCache{db: db}, nil
}

// Close releases the underlying database handle.
func (d *DiskCache) Close() error {
	return d.db.Close()
}

// Lookup returns the cached token stream for absPath if its content hash
// still matches — a stale entry (hash mismatch, i.e. the file changed since
// it was cached) is reported as a miss, not an error.
func (d *DiskCache) Lookup(absPath, hash string) ([]lexer.Token, bool, error) {
	var blob []byte
	err := d.db.QueryRow(`SELECT blob FROM tokens WHERE path = ? AND hash = ?`, absPath, hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: looking up %s: %w", absPath, err)
	}

	var toks []lexer.Token
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&toks); err != nil {
		return nil, false, fmt.Errorf("cache: decoding cached tokens for %s: %w", absPath, err)
	}
	return toks, true, nil
}

// Store records toks for absPath under hash. A row already present for the
// same (path, hash) pair is left untouched — the cache is append-only, and
// a matching hash means the bytes would be identical anyway.
func (d *DiskCache) Store(absPath, hash string, toks []lexer.Token) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toks); err != nil {
		return fmt.Errorf("cache: encoding tokens for %s: %w", absPath, err)
	}
	_, err := d.db.Exec(`INSERT OR IGNORE INTO tokens (path, hash, blob) VALUES (?, ?, ?)`,
		absPath, hash, buf.Bytes())
	if err != nil {
		return fmt.Errorf("cache: storing %s: %w", absPath, err)
	}
	return nil
}
