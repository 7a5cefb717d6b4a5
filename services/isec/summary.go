package isec

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"denovo/pipeline/models/constants/classification"
	"denovo/pipeline/models/indexes"

	. "github.com/ahmetb/go-linq"
)

// PathogenicRecords returns the records whose ClinVar label parses to
// pathogenic or likely_pathogenic. Conflicting labels are excluded.
func PathogenicRecords(records []indexes.VariantRecord) []indexes.VariantRecord {
	var out []indexes.VariantRecord
	From(records).WhereT(func(r indexes.VariantRecord) bool {
		return classification.IsPathogenic(r.Annotation.Prior)
	}).ToSlice(&out)
	return out
}

func ConflictingRecords(records []indexes.VariantRecord) []indexes.VariantRecord {
	var out []indexes.VariantRecord
	From(records).WhereT(func(r indexes.VariantRecord) bool {
		return r.Annotation.Prior == classification.PriorConflicting
	}).ToSlice(&out)
	return out
}

// WriteSummary renders the partition counts and the annotated child-only
// records of interest.
func WriteSummary(path string, result *indexes.SetDifferenceResult) error {
	buf := &bytes.Buffer{}

	fmt.Fprintln(buf, "Trio set-difference summary")
	fmt.Fprintln(buf, "===========================")
	fmt.Fprintf(buf, "child-only (de novo candidates):\t%d\n", result.ChildOnlyCount())
	fmt.Fprintf(buf, "father-only:\t%d\n", result.FatherOnlyCount())
	fmt.Fprintf(buf, "mother-only:\t%d\n", result.MotherOnlyCount())

	pathogenic := PathogenicRecords(result.ChildOnly)
	conflicting := ConflictingRecords(result.ChildOnly)

	fmt.Fprintf(buf, "\nchild-only pathogenic/likely pathogenic:\t%d\n", len(pathogenic))
	for _, r := range pathogenic {
		fmt.Fprintln(buf, summaryLine(r))
	}
	fmt.Fprintf(buf, "\nchild-only conflicting classifications:\t%d\n", len(conflicting))
	for _, r := range conflicting {
		fmt.Fprintln(buf, summaryLine(r))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write summary '%s': %w", path, err)
	}
	return nil
}

func summaryLine(r indexes.VariantRecord) string {
	gene := r.Annotation.Gene
	if gene == "" {
		gene = "."
	}
	return fmt.Sprintf("  %s\t%s\t%s\t%s", r.Key(), gene, r.Annotation.Classification,
		strings.Join(r.Annotation.Diseases, "; "))
}
