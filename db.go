package img2mlog

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/bodgit/img2mlog/mlog"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// ProgramDB caches generated programs keyed by the source image checksum
// and the options used.
type ProgramDB struct {
	db *sql.DB
	mu sync.Mutex
}

// NewProgramDB opens or creates the cache database in file.
func NewProgramDB(file string) (*ProgramDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS program (image_id INTEGER NOT NULL, options TEXT NOT NULL, seq INTEGER NOT NULL, text BLOB NOT NULL, PRIMARY KEY(image_id, options, seq), FOREIGN KEY(image_id) REFERENCES image(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &ProgramDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *ProgramDB) Close() error {
	return db.db.Close()
}

func encodeZstd(raw []byte) ([]byte, error) {
	b := new(bytes.Buffer)
	enc, err := zstd.NewWriter(b, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decodeZstd(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}

func addImage(tx *sql.Tx, sha string) (int64, error) {
	var id int64
	switch err := tx.QueryRow("SELECT id FROM image WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO image (sha1) VALUES (?)", sha)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// StorePrograms replaces any cached programs for the image and options.
func (db *ProgramDB) StorePrograms(sha, options string, programs []mlog.Program) (err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	id, err := addImage(tx, sha)
	if err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM program WHERE image_id = ? AND options = ?", id, options); err != nil {
		return err
	}

	for i, p := range programs {
		b, err := encodeZstd(p.Bytes())
		if err != nil {
			return err
		}
		if _, err = tx.Exec("INSERT INTO program (image_id, options, seq, text) VALUES (?, ?, ?, ?)", id, options, i, b); err != nil {
			return err
		}
	}

	return nil
}

// FindPrograms returns the cached programs for the image and options, or
// nil if there are none.
func (db *ProgramDB) FindPrograms(sha, options string) ([]mlog.Program, error) {
	rows, err := db.db.Query("SELECT p.text FROM program AS p JOIN image AS i ON p.image_id = i.id WHERE i.sha1 = ? AND p.options = ? ORDER BY p.seq", sha, options)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []mlog.Program
	for rows.Next() {
		var text []byte
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		b, err := decodeZstd(bytes.NewReader(text))
		if err != nil {
			return nil, err
		}
		programs = append(programs, mlog.Parse(b))
	}

	return programs, rows.Err()
}

// Clear removes everything from the cache.
func (db *ProgramDB) Clear() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.db.Exec("DELETE FROM program"); err != nil {
		return err
	}

	if _, err := db.db.Exec("DELETE FROM image"); err != nil {
		return err
	}

	return nil
}
