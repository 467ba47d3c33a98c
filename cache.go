package celpack

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// BuildCache is a small sqlite-backed fact table recording, per job
// digest, the mtime of the output that job last produced, so the batch
// driver can skip re-packing sheets that have not changed. Grounded on
// bodgit/megasd's GameDB (db.go): same shape of problem, a local fact
// table keyed by a stable hash.
type BuildCache struct {
	db *sql.DB
}

// OpenBuildCache opens (creating if necessary) the cache database at path.
func OpenBuildCache(path string) (*BuildCache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, newIOError(path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS job (
		digest TEXT PRIMARY KEY NOT NULL,
		output_path TEXT NOT NULL,
		output_mtime INTEGER NOT NULL
	)`); err != nil {
		return nil, newIOError(path, err)
	}
	return &BuildCache{db: db}, nil
}

func (c *BuildCache) Close() error { return c.db.Close() }

// JobDigest hashes a job's inputs: the cel-position file, the image file,
// and the options that govern how they are packed.
func JobDigest(celPath, imagePath string, opt Options) (string, error) {
	h := sha256.New()
	for _, p := range []string{celPath, imagePath} {
		f, err := os.Open(p)
		if err != nil {
			return "", newIOError(p, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", newIOError(p, err)
		}
	}
	fmt.Fprintf(h, "%+v", opt)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fresh reports whether digest is already recorded against outputPath
// with the output's current mtime, meaning the job can be skipped.
func (c *BuildCache) Fresh(digest, outputPath string) (bool, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return false, nil
	}
	var storedMtime int64
	err = c.db.QueryRow("SELECT output_mtime FROM job WHERE digest = ? AND output_path = ?", digest, outputPath).Scan(&storedMtime)
	switch err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
		return storedMtime == info.ModTime().UnixNano(), nil
	default:
		return false, err
	}
}

// Record stores digest against outputPath's current mtime after a
// successful build.
func (c *BuildCache) Record(digest, outputPath string) error {
	info, err := os.Stat(outputPath)
	if err != nil {
		return newIOError(outputPath, err)
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO job (digest, output_path, output_mtime) VALUES (?, ?, ?)",
		digest, outputPath, info.ModTime().UnixNano())
	return err
}
