package isec

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"denovo/pipeline/logger"
	"denovo/pipeline/models/constants/classification"
	z "denovo/pipeline/models/constants/zygosity"
	"denovo/pipeline/models/indexes"

	"github.com/brentp/vcfgo"
	"go.uber.org/zap"
)

var voteRegexp = regexp.MustCompile(`^(.+)\((\d+)\)$`)

// ReadPartition parses one VCF (plain or gzipped) into records. Header
// lines are never counted.
func ReadPartition(path string) ([]indexes.VariantRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open partition '%s': %w", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress '%s': %w", path, err)
		}
		defer gr.Close()
		r = gr
	}
	return parseVcf(r, path)
}

func parseVcf(r io.Reader, name string) ([]indexes.VariantRecord, error) {
	rdr, err := vcfgo.NewReader(r, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read VCF header of '%s': %w", name, err)
	}

	records := []indexes.VariantRecord{}
	for {
		v := rdr.Read()
		if v == nil {
			break
		}
		records = append(records, toRecord(v))
	}

	// vcfgo accumulates recoverable problems (e.g. INFO keys missing from
	// the header) rather than stopping
	if err := rdr.Error(); err != nil {
		logger.Debug("vcf reader reported issues", zap.String("file", name), zap.Error(err))
	}
	return records, nil
}

func toRecord(v *vcfgo.Variant) indexes.VariantRecord {
	rec := indexes.VariantRecord{
		Chrom: v.Chromosome,
		Pos:   int(v.Pos),
		Id:    v.Id(),
		Ref:   v.Reference,
		Alt:   append([]string(nil), v.Alternate...),
		Qual:  float64(v.Quality),
		Depth: -1,
	}

	if len(v.Samples) > 0 && v.Samples[0] != nil {
		s := v.Samples[0]
		rec.Genotype = genotype(s)
		rec.Zygosity = z.FromGenotype(rec.Genotype)
		if dp, err := strconv.Atoi(s.Fields["DP"]); err == nil {
			rec.Depth = dp
		} else if s.DP > 0 {
			rec.Depth = s.DP
		}
	}

	info := vcfgo.NewInfoByte(v.Info().Bytes(), nil)
	get := func(key string) string {
		val := string(info.SGet(key))
		if val == "." {
			return ""
		}
		return val
	}

	clnsig := get("CLNSIG")
	rec.Annotation = indexes.Annotation{
		Gene:            geneSymbol(get("GENEINFO")),
		Diseases:        diseases(get("CLNDN")),
		Classification:  clnsig,
		SubmitterCounts: submitterCounts(get("CLNSIGCONF")),
		Consequence:     get("MC"),
	}
	if clnsig != "" {
		rec.Annotation.Prior = classification.ParsePrior(clnsig)
	}
	return rec
}

func genotype(s *vcfgo.SampleGenotype) string {
	if gt, ok := s.Fields["GT"]; ok && gt != "" {
		return gt
	}
	if len(s.GT) == 0 {
		return ""
	}
	sep := "/"
	if s.Phased {
		sep = "|"
	}
	alleles := make([]string, len(s.GT))
	for i, a := range s.GT {
		if a < 0 {
			alleles[i] = "."
		} else {
			alleles[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(alleles, sep)
}

// geneSymbol takes "FH:2271|OTHER:1" to "FH".
func geneSymbol(geneInfo string) string {
	if geneInfo == "" {
		return ""
	}
	first := strings.SplitN(geneInfo, "|", 2)[0]
	return strings.SplitN(first, ":", 2)[0]
}

func diseases(clndn string) []string {
	if clndn == "" {
		return nil
	}
	var out []string
	for _, d := range strings.Split(clndn, "|") {
		d = strings.ReplaceAll(strings.TrimSpace(d), "_", " ")
		if d != "" && d != "not provided" && d != "not specified" {
			out = append(out, d)
		}
	}
	return out
}

// submitterCounts parses CLNSIGCONF, e.g.
// "Pathogenic(1)|Uncertain_significance(2)".
func submitterCounts(conf string) map[string]int {
	if conf == "" {
		return nil
	}
	counts := map[string]int{}
	for _, part := range strings.FieldsFunc(conf, func(r rune) bool { return r == '|' || r == ',' }) {
		m := voteRegexp.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		counts[m[1]] += n
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}
