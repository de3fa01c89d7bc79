// Package cache keeps compiled programs in a SQLite database, keyed by a hash
// of the syntax tree they were compiled from.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/funvibe/floyd/internal/vm"
)

const schema = `CREATE TABLE IF NOT EXISTS programs (
	key        TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	file       TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Store is a compiled-program cache backed by one SQLite file.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens or creates the database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing cache %s: %w", path, err)
		}
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key identifies a syntax tree. The serialized format version is part of the
// key so a format change never reads old entries.
func Key(source []byte) string {
	h := sha256.New()
	h.Write([]byte{vm.FormatVersion})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the program stored under key. An entry that no longer
// deserializes is dropped and reported as a miss.
func (s *Store) Get(ctx context.Context, key string) (*vm.Program, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM programs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	prog, err := vm.Deserialize(data)
	if err != nil {
		s.log.Warn().Str("key", key).Err(err).Msg("dropping unreadable cache entry")
		if _, derr := s.db.ExecContext(ctx, `DELETE FROM programs WHERE key = ?`, key); derr != nil {
			return nil, false, fmt.Errorf("dropping cache entry: %w", derr)
		}
		return nil, false, nil
	}
	return prog, true, nil
}

// Put stores prog under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, prog *vm.Program) error {
	data, err := prog.Serialize()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO programs (key, program_id, file, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		key, prog.ID.String(), prog.File, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Len returns the number of stored programs.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM programs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
