package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"denovo/pipeline/models/dtos"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/utils"
)

// File layout under the output directory.
const (
	ResultsDir        = "results"
	ResultFileSuffix  = "_results.json"
	AggregateFile     = "validation_summary.csv"
	SkippedFile       = "skipped_variants.csv"
	RunSummaryFile    = "run_summary.json"
	resultPermissions = 0o644
)

var ErrNotFound = errors.New("result not found")

// FileStore keeps one JSON document per variant plus the run-level tables.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (fs *FileStore) Dir() string { return fs.dir }

func (fs *FileStore) resultPath(id string) string {
	return filepath.Join(fs.dir, ResultsDir, id+ResultFileSuffix)
}

func (fs *FileStore) SaveResult(r *indexes.EvidenceResult) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", r.Id, err)
	}
	return utils.WriteFileAtomic(fs.resultPath(r.Id), data, resultPermissions)
}

func (fs *FileStore) LoadResult(id string) (*indexes.EvidenceResult, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return readResult(fs.resultPath(id))
}

func readResult(path string) (*indexes.EvidenceResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	var r indexes.EvidenceResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", path, err)
	}
	return &r, nil
}

// ListResults loads every stored per-variant result ordered by id.
func (fs *FileStore) ListResults() ([]*indexes.EvidenceResult, error) {
	paths, err := filepath.Glob(filepath.Join(fs.dir, ResultsDir, "*"+ResultFileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*indexes.EvidenceResult, 0, len(paths))
	for _, p := range paths {
		r, err := readResult(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (fs *FileStore) WriteRunSummary(summary *dtos.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	return utils.WriteFileAtomic(filepath.Join(fs.dir, RunSummaryFile), data, resultPermissions)
}

func (fs *FileStore) ReadRunSummary() (*dtos.RunSummary, error) {
	path := filepath.Join(fs.dir, RunSummaryFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, RunSummaryFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	var summary dtos.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", path, err)
	}
	return &summary, nil
}
