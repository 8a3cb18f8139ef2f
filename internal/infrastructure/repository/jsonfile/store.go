// Package jsonfile persists the pipeline's datasets as flat JSON files.
// Writes are atomic (temp file then rename) and every overwrite of an
// existing file leaves a timestamped .bak copy next to it.
package jsonfile

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// ConfigStd sorts map keys, so identical data always serializes to
// identical bytes.
var stdjson = sonic.ConfigStd

const backupTimeFormat = "20060102_150405"

// Store handles the shared read/write mechanics for all file-backed
// repositories.
type Store struct {
	backups bool
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{backups: true, now: time.Now}
}

// NewStoreWithoutBackups skips .bak copies. Used in tests.
func NewStoreWithoutBackups() *Store {
	return &Store{backups: false, now: time.Now}
}

// Read decodes the file at path into v. The caller decides whether a
// missing file is an error; os.IsNotExist works on the returned error.
func (s *Store) Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := stdjson.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// Write serializes v and atomically replaces the file at path, backing
// up any previous version first.
func (s *Store) Write(path string, v any) error {
	data, err := stdjson.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}

	if s.backups {
		if err := s.backup(path); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}

func (s *Store) backup(path string) error {
	prev, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read %s for backup", path)
	}
	bak := path + ".bak_" + s.now().Format(backupTimeFormat)
	if err := os.WriteFile(bak, prev, 0o644); err != nil {
		return errors.Wrapf(err, "write backup %s", bak)
	}
	return nil
}
