package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colonyops/goodvibes/internal/data/db"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsBusyError returns true if the error is a SQLITE_BUSY error.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsCorruptionError returns true if the error indicates database corruption.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CORRUPT ||
			code == sqlite3.SQLITE_NOTADB
	}

	errStr := err.Error()
	return strings.Contains(errStr, "database disk image is malformed") ||
		strings.Contains(errStr, "file is not a database")
}

// IsNotFoundError returns true if the error is a "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves a corrupted database (and its WAL/SHM files)
// aside so the next Open starts from an empty schema. Imported sessions can be
// rebuilt with `goodvibes import`.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)

	timestamp := time.Now().Format("20060102-150405")
	backupPath := filepath.Join(dataDir, fmt.Sprintf("%s.corrupt.%s", db.FileName, timestamp))

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to backup corrupted database: %w", err)
	}

	// Orphaned WAL/SHM files would be replayed against the new database.
	for _, suffix := range []string{"-wal", "-shm"} {
		path := dbPath + suffix
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Rename(path, backupPath+suffix); err != nil {
			if delErr := os.Remove(path); delErr != nil {
				return fmt.Errorf("failed to backup or remove %s file: %w", suffix, err)
			}
		}
	}

	return nil
}

// OpenWithRecovery opens the database, moving a corrupted file aside and
// retrying once.
func OpenWithRecovery(dataDir string, opts db.OpenOptions) (*db.DB, bool, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil {
		return database, false, nil
	}
	if !IsCorruptionError(err) {
		return nil, false, err
	}

	if rerr := RecoverFromCorruption(dataDir); rerr != nil {
		return nil, false, fmt.Errorf("%w (recovery failed: %v)", err, rerr)
	}

	database, err = db.Open(dataDir, opts)
	if err != nil {
		return nil, true, err
	}
	return database, true, nil
}
