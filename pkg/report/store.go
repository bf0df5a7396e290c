package report

import (
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
)

// Store persists finished audit reports under a results directory, one CSV
// per run.
type Store struct {
	dir    string
	logger ectologger.Logger
}

func NewStore(dir string, logger ectologger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create results directory")
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Path returns the report location for a run. The file may not exist yet.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.dir, runID+".csv")
}

// Save writes the collector's audit rows to the run's report file.
func (s *Store) Save(runID string, collector *Collector) (string, error) {
	path := s.Path(runID)
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create report file")
	}
	defer file.Close()

	if err := WriteCSV(file, collector); err != nil {
		return "", err
	}
	return path, nil
}

// Exists reports whether a run's report file is on disk.
func (s *Store) Exists(runID string) bool {
	_, err := os.Stat(s.Path(runID))
	return err == nil
}

// Remove deletes a run's report file. Removing a missing report is not an
// error.
func (s *Store) Remove(runID string) error {
	err := os.Remove(s.Path(runID))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove report file")
	}
	return nil
}
