package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	c "denovo/pipeline/models/constants"
	m "denovo/pipeline/models/constants/modality"
	s "denovo/pipeline/models/constants/status"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mitchellh/mapstructure"
)

var (
	SummaryColumns = csvColumns(dtos.SummaryRow{})
	SkippedColumns = csvColumns(dtos.SkippedRow{})
)

func csvColumns(v interface{}) []string {
	t := reflect.TypeOf(v)
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		cols = append(cols, t.Field(i).Tag.Get("csv"))
	}
	return cols
}

func csvValues(v interface{}) []string {
	val := reflect.ValueOf(v)
	out := make([]string, 0, val.NumField())
	for i := 0; i < val.NumField(); i++ {
		out = append(out, val.Field(i).String())
	}
	return out
}

// SummaryRowFor flattens an attempted (succeeded or failed) result.
func SummaryRowFor(r *indexes.EvidenceResult) dtos.SummaryRow {
	return dtos.SummaryRow{
		Id:                    r.Id,
		Variant:               r.Name,
		Gene:                  r.Gene,
		Position:              fmt.Sprintf("%s:%d", r.Chrom, r.Pos),
		Ref:                   r.Ref,
		Alt:                   r.Alt,
		Strategy:              r.Strategy,
		ClinvarClassification: string(r.Prior),
		Classification:        string(r.Classification),
		Confidence:            string(r.Confidence),
		Status:                string(r.Status),
		ExpressionDelta:       deltaCell(r, m.Expression),
		SplicingDelta:         deltaCell(r, m.Splicing),
		ChromatinDelta:        deltaCell(r, m.Chromatin),
		KeyEvidence:           keyEvidence(r),
		Error:                 r.Error,
	}
}

func SkippedRowFor(r *indexes.EvidenceResult) dtos.SkippedRow {
	return dtos.SkippedRow{
		Id:         r.Id,
		Variant:    r.Name,
		Gene:       r.Gene,
		Position:   fmt.Sprintf("%s:%d", r.Chrom, r.Pos),
		Ref:        r.Ref,
		Alt:        r.Alt,
		SkipReason: string(r.SkipReason),
	}
}

func deltaCell(r *indexes.EvidenceResult, mod c.Modality) string {
	d, ok := r.Delta(mod)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(d, 'f', 6, 64)
}

func keyEvidence(r *indexes.EvidenceResult) string {
	var parts []string
	for _, mod := range m.All {
		ev, ok := r.Evidence[mod]
		if !ok || ev == nil {
			continue
		}
		if ev.Error != "" {
			parts = append(parts, fmt.Sprintf("%s: failed", mod))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", mod, ev.Confidence))
	}
	return strings.Join(parts, "; ")
}

// WriteAggregate rewrites validation_summary.csv (attempted variants) and
// skipped_variants.csv from the results so far.
func (fs *FileStore) WriteAggregate(results []*indexes.EvidenceResult) error {
	var attempted, skipped [][]string
	for _, r := range results {
		if r.Status == s.Skipped {
			skipped = append(skipped, csvValues(SkippedRowFor(r)))
			continue
		}
		attempted = append(attempted, csvValues(SummaryRowFor(r)))
	}

	if err := writeTable(filepath.Join(fs.dir, AggregateFile), SummaryColumns, attempted); err != nil {
		return err
	}
	return writeTable(filepath.Join(fs.dir, SkippedFile), SkippedColumns, skipped)
}

func writeTable(path string, header []string, rows [][]string) error {
	buf := &bytes.Buffer{}

	if len(rows) == 0 {
		// a frame needs at least one row
		w := csv.NewWriter(buf)
		if err := w.Write(header); err != nil {
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	} else {
		records := append([][]string{header}, rows...)
		df := dataframe.LoadRecords(records,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues(nil))
		if df.Err != nil {
			return fmt.Errorf("failed to build table for '%s': %w", path, df.Err)
		}
		if err := df.WriteCSV(buf); err != nil {
			return fmt.Errorf("failed to encode '%s': %w", path, err)
		}
	}

	return utils.WriteFileAtomic(path, buf.Bytes(), resultPermissions)
}

// ReadAggregate parses validation_summary.csv.
func (fs *FileStore) ReadAggregate() ([]dtos.SummaryRow, error) {
	var rows []dtos.SummaryRow
	err := readTable(filepath.Join(fs.dir, AggregateFile), SummaryColumns, func(rec map[string]string) error {
		var row dtos.SummaryRow
		if err := decodeRow(rec, &row); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// ReadSkipped parses skipped_variants.csv.
func (fs *FileStore) ReadSkipped() ([]dtos.SkippedRow, error) {
	var rows []dtos.SkippedRow
	err := readTable(filepath.Join(fs.dir, SkippedFile), SkippedColumns, func(rec map[string]string) error {
		var row dtos.SkippedRow
		if err := decodeRow(rec, &row); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

func decodeRow(rec map[string]string, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "csv", Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(rec)
}

func readTable(path string, header []string, each func(map[string]string) error) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", path, err)
	}

	if strings.Count(strings.TrimSpace(string(data)), "\n") == 0 {
		// header only
		return checkHeader(path, strings.Split(strings.TrimSpace(string(data)), ","), header)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil))
	if df.Err != nil {
		return fmt.Errorf("failed to parse '%s': %w", path, df.Err)
	}
	if err := checkHeader(path, df.Names(), header); err != nil {
		return err
	}

	records := df.Records()
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range records[0] {
			row[name] = rec[i]
		}
		if err := each(row); err != nil {
			return fmt.Errorf("failed to decode row of '%s': %w", path, err)
		}
	}
	return nil
}

func checkHeader(path string, got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("'%s' has %d columns, expected %d", path, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("'%s' column %d is %q, expected %q", path, i, got[i], want[i])
		}
	}
	return nil
}
