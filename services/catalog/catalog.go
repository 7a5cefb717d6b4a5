package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"denovo/pipeline/logger"
	c "denovo/pipeline/models/constants"
	assemblyId "denovo/pipeline/models/constants/assembly-id"
	"denovo/pipeline/models/constants/chromosome"
	"denovo/pipeline/models/constants/classification"
	"denovo/pipeline/models/constants/consequence"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/services/routing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"
)

//go:embed default_catalog.yml
var defaultCatalog []byte

var unsafeIdChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// longer alleles are cut in ids and disambiguated with a digest of the key
const maxIdPartLen = 32

// CandidateVariant is one entry of the curated list queried for functional
// evidence.
type CandidateVariant struct {
	Name                  string `yaml:"name"`
	Gene                  string `yaml:"gene"`
	Chrom                 string `yaml:"chromosome"`
	Pos                   int    `yaml:"position"`
	Ref                   string `yaml:"ref"`
	Alt                   string `yaml:"alt"`
	Type                  string `yaml:"type,omitempty"`
	Consequence           string `yaml:"consequence"`
	ClinvarClassification string `yaml:"clinvar_classification"`
	ClinvarVotes          string `yaml:"clnsigconf,omitempty"`
	Disease               string `yaml:"disease,omitempty"`

	// filled from Consequence on load; never read from the file
	Strategy string `yaml:"analysis_strategy,omitempty"`
}

func (v CandidateVariant) Prior() c.ClinicalClassification {
	return classification.ParsePrior(v.ClinvarClassification)
}

func (v CandidateVariant) Category() c.ConsequenceCategory {
	return consequence.Parse(v.Consequence)
}

func (v CandidateVariant) Modalities() []c.Modality {
	return routing.Route(v.Category())
}

func (v CandidateVariant) Key() indexes.VariantKey {
	return indexes.VariantKey{Chrom: v.Chrom, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt}
}

// Id identifies the variant in file names and index documents.
// Ids stay well under file name limits however long the alleles are.
func (v CandidateVariant) Id() string {
	gene, ref, alt := v.Gene, v.Ref, v.Alt
	digest := ""
	if len(gene) > maxIdPartLen || len(ref) > maxIdPartLen || len(alt) > maxIdPartLen {
		key := fmt.Sprintf("%s|%s", gene, v.Key())
		digest = "_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()[:8]
		gene, ref, alt = cut(gene), cut(ref), cut(alt)
	}
	id := fmt.Sprintf("%s_%s_%d_%s_%s%s", gene, chromosome.WithPrefix(v.Chrom), v.Pos, ref, alt, digest)
	return unsafeIdChars.ReplaceAllString(id, "-")
}

func cut(s string) string {
	if len(s) > maxIdPartLen {
		return s[:maxIdPartLen]
	}
	return s
}

func (v CandidateVariant) validate() error {
	switch {
	case v.Gene == "":
		return fmt.Errorf("variant %q: missing gene", v.Name)
	case !chromosome.IsValidHumanChromosome(v.Chrom):
		return fmt.Errorf("variant %q: invalid chromosome %q", v.Name, v.Chrom)
	case v.Pos <= 0:
		return fmt.Errorf("variant %q: position must be positive, got %d", v.Name, v.Pos)
	case v.Ref == "" || v.Alt == "":
		return fmt.Errorf("variant %q: missing ref or alt allele", v.Name)
	}
	return nil
}

type catalogFile struct {
	Assembly string             `yaml:"assembly"`
	Variants []CandidateVariant `yaml:"variants"`
}

// Catalog is the immutable candidate list for one run.
type Catalog struct {
	assembly c.AssemblyId
	variants []CandidateVariant
}

func New(assembly c.AssemblyId, variants []CandidateVariant) (*Catalog, error) {
	out := make([]CandidateVariant, 0, len(variants))
	for _, v := range variants {
		if err := v.validate(); err != nil {
			return nil, err
		}
		if v.Name == "" {
			v.Name = v.Id()
		}
		v.Strategy = routing.Strategy(v.Category())
		out = append(out, v)
	}
	return &Catalog{assembly: assembly, variants: out}, nil
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	assembly := assemblyId.GRCh38
	if f.Assembly != "" {
		assembly = assemblyId.CastToAssemblyId(f.Assembly)
		if assembly == assemblyId.Unknown {
			return nil, fmt.Errorf("unknown assembly %q in catalog", f.Assembly)
		}
	}
	return New(assembly, f.Variants)
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file '%s': %w", path, err)
	}
	return Parse(data)
}

// LoadDefault returns the built-in catalog of documented candidates.
func LoadDefault() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func (cat *Catalog) Assembly() c.AssemblyId { return cat.assembly }

func (cat *Catalog) Len() int { return len(cat.variants) }

// Variants returns a copy of the entries in catalog order.
func (cat *Catalog) Variants() []CandidateVariant {
	out := make([]CandidateVariant, len(cat.variants))
	copy(out, cat.variants)
	return out
}

// ByGene returns a catalog restricted to one gene symbol (case-insensitive).
func (cat *Catalog) ByGene(gene string) (*Catalog, error) {
	var selected []CandidateVariant
	for _, v := range cat.variants {
		if strings.EqualFold(v.Gene, gene) {
			selected = append(selected, v)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no candidate variant for gene %q", gene)
	}
	return &Catalog{assembly: cat.assembly, variants: selected}, nil
}

// Head returns a catalog of at most the first n entries.
func (cat *Catalog) Head(n int) *Catalog {
	if n <= 0 || n >= len(cat.variants) {
		return cat
	}
	return &Catalog{assembly: cat.assembly, variants: cat.variants[:n]}
}

// FromRecords seeds a catalog from child-only calls. Calls on contigs other
// than 1-22, X, Y and M (alt, random, unplaced, decoy) are left out.
func FromRecords(assembly c.AssemblyId, records []indexes.VariantRecord) (*Catalog, error) {
	variants := make([]CandidateVariant, 0, len(records))
	var contigs []string
	for _, r := range records {
		if !chromosome.IsValidHumanChromosome(r.Chrom) {
			contigs = append(contigs, r.Chrom)
			continue
		}
		gene := r.Annotation.Gene
		if gene == "" {
			gene = "unknown"
		}
		variants = append(variants, CandidateVariant{
			Gene:                  gene,
			Chrom:                 r.Chrom,
			Pos:                   r.Pos,
			Ref:                   r.Ref,
			Alt:                   strings.Join(r.Alt, ","),
			Type:                  variantType(r.Ref, r.Alt),
			Consequence:           string(consequence.FromSequenceOntology(r.Annotation.Consequence)),
			ClinvarClassification: r.Annotation.Classification,
			ClinvarVotes:          formatVotes(r.Annotation.SubmitterCounts),
			Disease:               strings.Join(r.Annotation.Diseases, "; "),
		})
	}
	if len(contigs) > 0 {
		logger.Warn("left out calls on non-primary contigs",
			zap.Int("count", len(contigs)), zap.Strings("contigs", distinct(contigs)))
	}
	return New(assembly, variants)
}

func distinct(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (cat *Catalog) Write(w io.Writer) error {
	f := catalogFile{Assembly: string(cat.assembly), Variants: cat.variants}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func variantType(ref string, alts []string) string {
	if len(alts) != 1 {
		return "complex"
	}
	alt := alts[0]
	switch {
	case len(ref) == 1 && len(alt) == 1:
		return "snv"
	case len(ref) > len(alt):
		return "deletion"
	case len(ref) < len(alt):
		return "insertion"
	default:
		return "mnv"
	}
}

func formatVotes(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s(%d)", k, counts[k]))
	}
	return strings.Join(parts, "|")
}
