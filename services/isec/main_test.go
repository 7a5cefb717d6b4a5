package isec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"denovo/pipeline/models"
	"denovo/pipeline/models/constants/classification"
	z "denovo/pipeline/models/constants/zygosity"
	"denovo/pipeline/models/indexes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vcfHeader = `##fileformat=VCFv4.2
##INFO=<ID=CLNSIG,Number=.,Type=String,Description="Clinical significance">
##INFO=<ID=GENEINFO,Number=1,Type=String,Description="Gene symbol and id">
##INFO=<ID=CLNDN,Number=.,Type=String,Description="Disease name">
##INFO=<ID=CLNSIGCONF,Number=.,Type=String,Description="Conflicting submissions">
##INFO=<ID=MC,Number=.,Type=String,Description="Molecular consequence">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Read depth">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample
`

var partitions = map[string]string{
	ChildOnlyFile: vcfHeader +
		"chr1\t241500602\t.\tA\tAT\t50\tPASS\tCLNSIG=Conflicting_classifications_of_pathogenicity;GENEINFO=FH:2271;CLNDN=Fumarase_deficiency;CLNSIGCONF=Pathogenic(1)|Benign(2);MC=SO:0001627|intron_variant\tGT:DP\t0/1:30\n" +
		"chr1\t100189351\t.\tTA\tT\t40\tPASS\tCLNSIG=Pathogenic;GENEINFO=DBT:1629;CLNDN=Maple_syrup_urine_disease\tGT:DP\t0/1:22\n" +
		"chr2\t5000\t.\tC\tG\t12\tPASS\tCLNSIG=Likely_benign\tGT:DP\t1/1:8\n",
	FatherOnlyFile: vcfHeader +
		"chr3\t700\t.\tG\tA\t30\tPASS\t.\tGT:DP\t0/1:15\n",
	MotherOnlyFile: vcfHeader,
}

type fakeRunner struct {
	commands []Command
	missing  map[string]bool
	failOn   string
}

func (f *fakeRunner) Check(tool string) error {
	if f.missing[tool] {
		return errors.New(tool + " not found on PATH")
	}
	return nil
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) error {
	f.commands = append(f.commands, cmd)
	if f.failOn != "" && len(cmd.Args) > 0 && cmd.Args[0] == f.failOn {
		return errors.New("exit status 1")
	}
	if len(cmd.Args) > 0 && cmd.Args[0] == "isec" {
		prefix := argAfter(cmd.Args, "-p")
		for name, body := range partitions {
			if err := os.WriteFile(filepath.Join(prefix, name), []byte(body), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeInputs(t *testing.T, dir string, names ...string) Inputs {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte(vcfHeader), 0o644))
	}
	return Inputs{Child: paths[0], Father: paths[1], Mother: paths[2]}
}

func newTestService(runner Runner) *IsecService {
	cfg := &models.Config{}
	return NewIsecServiceWithRunner(cfg, runner)
}

func TestValidateMissingInput(t *testing.T) {
	dir := t.TempDir()
	in := writeInputs(t, dir, "child.vcf", "father.vcf", "mother.vcf")
	in.Mother = filepath.Join(dir, "absent.vcf")

	svc := newTestService(&fakeRunner{})
	err := svc.Validate(in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	assert.Contains(t, err.Error(), "absent.vcf")
}

func TestValidateMissingTool(t *testing.T) {
	dir := t.TempDir()
	in := writeInputs(t, dir, "child.vcf", "father.vcf", "mother.vcf")

	runner := &fakeRunner{missing: map[string]bool{"bcftools": true}}
	_, err := newTestService(runner).Run(context.Background(), in, filepath.Join(dir, "out"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	assert.Empty(t, runner.commands)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := writeInputs(t, dir, "child.vcf", "father.vcf", "mother.vcf")
	prefix := filepath.Join(dir, "isec")

	runner := &fakeRunner{}
	result, err := newTestService(runner).Run(context.Background(), in, prefix)
	require.NoError(t, err)

	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{"isec", "-n=1", "-c", "none", "-p", prefix, in.Child, in.Father, in.Mother},
		runner.commands[0].Args)

	assert.Equal(t, 3, result.ChildOnlyCount())
	assert.Equal(t, 1, result.FatherOnlyCount())
	assert.Equal(t, 0, result.MotherOnlyCount())
	assert.NoError(t, result.CheckDisjoint())

	// file contig order, then position
	first := result.ChildOnly[0]
	assert.Equal(t, "chr1", first.Chrom)
	assert.Equal(t, 100189351, first.Pos)
	assert.Equal(t, "DBT", first.Annotation.Gene)
	assert.Equal(t, classification.PriorPathogenic, first.Annotation.Prior)

	fh := result.ChildOnly[1]
	assert.Equal(t, "FH", fh.Annotation.Gene)
	assert.Equal(t, []string{"AT"}, fh.Alt)
	assert.Equal(t, "0/1", fh.Genotype)
	assert.Equal(t, z.Heterozygous, fh.Zygosity)
	assert.Equal(t, 30, fh.Depth)
	assert.Equal(t, []string{"Fumarase deficiency"}, fh.Annotation.Diseases)
	assert.Equal(t, map[string]int{"Pathogenic": 1, "Benign": 2}, fh.Annotation.SubmitterCounts)
	assert.Equal(t, classification.PriorConflicting, fh.Annotation.Prior)
	assert.Equal(t, "SO:0001627|intron_variant", fh.Annotation.Consequence)

	summary, err := os.ReadFile(filepath.Join(prefix, SummaryFile))
	require.NoError(t, err)
	text := string(summary)
	assert.Contains(t, text, "child-only (de novo candidates):\t3")
	assert.Contains(t, text, "child-only pathogenic/likely pathogenic:\t1")
	assert.Contains(t, text, "child-only conflicting classifications:\t1")

	pathogenicSection := text[strings.Index(text, "pathogenic/likely"):strings.Index(text, "conflicting classifications")]
	assert.Contains(t, pathogenicSection, "DBT")
	assert.NotContains(t, pathogenicSection, "FH")
}

// trio inputs consistent with the partitions above: chr5:1000 is carried
// by all three samples and chr7:2000 by child and father.
var (
	sharedByAll     = "chr5\t1000\t.\tG\tT\t60\tPASS\t.\tGT:DP\t0/1:20\n"
	sharedWithChild = "chr7\t2000\t.\tC\tA\t55\tPASS\t.\tGT:DP\t1/1:18\n"

	trioInputs = map[string]string{
		"child.vcf":  partitions[ChildOnlyFile] + sharedByAll + sharedWithChild,
		"father.vcf": partitions[FatherOnlyFile] + sharedByAll + sharedWithChild,
		"mother.vcf": partitions[MotherOnlyFile] + sharedByAll,
	}
)

func writeTrioInputs(t *testing.T, dir string) Inputs {
	t.Helper()
	for name, body := range trioInputs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return Inputs{
		Child:  filepath.Join(dir, "child.vcf"),
		Father: filepath.Join(dir, "father.vcf"),
		Mother: filepath.Join(dir, "mother.vcf"),
	}
}

func keySet(t *testing.T, records []indexes.VariantRecord) map[indexes.VariantKey]bool {
	t.Helper()
	set := map[indexes.VariantKey]bool{}
	for _, r := range records {
		set[r.Key()] = true
	}
	return set
}

func readKeys(t *testing.T, path string) map[indexes.VariantKey]bool {
	t.Helper()
	records, err := ReadPartition(path)
	require.NoError(t, err)
	return keySet(t, records)
}

func TestPartitionsAreInputMinusOtherInputs(t *testing.T) {
	dir := t.TempDir()
	in := writeTrioInputs(t, dir)
	prefix := filepath.Join(dir, "isec")

	result, err := newTestService(&fakeRunner{}).Run(context.Background(), in, prefix)
	require.NoError(t, err)

	child, father, mother := readKeys(t, in.Child), readKeys(t, in.Father), readKeys(t, in.Mother)

	cases := []struct {
		name   string
		part   []indexes.VariantRecord
		own    map[indexes.VariantKey]bool
		others []map[indexes.VariantKey]bool
	}{
		{"child-only", result.ChildOnly, child, []map[indexes.VariantKey]bool{father, mother}},
		{"father-only", result.FatherOnly, father, []map[indexes.VariantKey]bool{child, mother}},
		{"mother-only", result.MotherOnly, mother, []map[indexes.VariantKey]bool{child, father}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := keySet(t, tc.part)

			want := map[indexes.VariantKey]bool{}
			for key := range tc.own {
				seenElsewhere := false
				for _, other := range tc.others {
					seenElsewhere = seenElsewhere || other[key]
				}
				if !seenElsewhere {
					want[key] = true
				}
			}
			assert.Equal(t, want, got)

			for key := range got {
				assert.True(t, tc.own[key], "%s not in its own input", key)
				for _, other := range tc.others {
					assert.False(t, other[key], "%s also in another input", key)
				}
			}
		})
	}

	// shared calls land in no partition
	for _, key := range []indexes.VariantKey{
		{Chrom: "chr5", Pos: 1000, Ref: "G", Alt: "T"},
		{Chrom: "chr7", Pos: 2000, Ref: "C", Alt: "A"},
	} {
		assert.False(t, keySet(t, result.ChildOnly)[key])
		assert.False(t, keySet(t, result.FatherOnly)[key])
		assert.False(t, keySet(t, result.MotherOnly)[key])
	}
}

func TestReadPartitionsIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeTrioInputs(t, dir)
	prefix := filepath.Join(dir, "isec")

	_, err := newTestService(&fakeRunner{}).Run(context.Background(), in, prefix)
	require.NoError(t, err)

	first, err := ReadPartitions(context.Background(), prefix)
	require.NoError(t, err)
	second, err := ReadPartitions(context.Background(), prefix)
	require.NoError(t, err)

	assert.Equal(t, keySet(t, first.ChildOnly), keySet(t, second.ChildOnly))
	assert.Equal(t, keySet(t, first.FatherOnly), keySet(t, second.FatherOnly))
	assert.Equal(t, keySet(t, first.MotherOnly), keySet(t, second.MotherOnly))
	assert.Equal(t, first, second)
}

func TestRunToolFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeInputs(t, dir, "child.vcf", "father.vcf", "mother.vcf")
	prefix := filepath.Join(dir, "isec")

	runner := &fakeRunner{failOn: "isec"}
	_, err := newTestService(runner).Run(context.Background(), in, prefix)

	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrConfiguration))
	_, statErr := os.Stat(filepath.Join(prefix, SummaryFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureIndex(t *testing.T) {
	dir := t.TempDir()
	indexed := filepath.Join(dir, "indexed.vcf.gz")
	unindexed := filepath.Join(dir, "unindexed.vcf.gz")
	plain := filepath.Join(dir, "plain.vcf")
	for _, p := range []string{indexed, indexed + ".tbi", unindexed, plain} {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	runner := &fakeRunner{}
	svc := newTestService(runner)
	ctx := context.Background()

	require.NoError(t, svc.EnsureIndex(ctx, indexed))
	require.NoError(t, svc.EnsureIndex(ctx, plain))
	assert.Empty(t, runner.commands)

	require.NoError(t, svc.EnsureIndex(ctx, unindexed))
	require.Len(t, runner.commands, 1)
	assert.Equal(t, "tabix", runner.commands[0].Tool)
	assert.Equal(t, []string{"-p", "vcf", "-f", unindexed}, runner.commands[0].Args)
	assert.Equal(t, []string{dir}, runner.commands[0].Mounts)
}

func TestContainerArgv(t *testing.T) {
	r := &CommandRunner{ContainerRuntime: "docker", Image: "quay.io/biocontainers/bcftools:1.17--haef29d1_0"}
	name, args := r.argv(Command{
		Tool:   "bcftools",
		Args:   []string{"isec", "-p", "/data/out"},
		Mounts: []string{"/data/out", "/data/in", "/data/in"},
	})

	assert.Equal(t, "docker", name)
	assert.Equal(t, []string{
		"run", "--rm",
		"-v", "/data/out:/data/out",
		"-v", "/data/in:/data/in",
		"quay.io/biocontainers/bcftools:1.17--haef29d1_0",
		"bcftools", "isec", "-p", "/data/out",
	}, args)

	direct := &CommandRunner{}
	name, args = direct.argv(Command{Tool: "bcftools", Args: []string{"--version"}})
	assert.Equal(t, "bcftools", name)
	assert.Equal(t, []string{"--version"}, args)
}

func TestAnnotationHelpers(t *testing.T) {
	assert.Equal(t, "FH", geneSymbol("FH:2271|OTHER:99"))
	assert.Equal(t, "", geneSymbol(""))

	assert.Equal(t, []string{"Fumarase deficiency", "Leiomyomatosis"},
		diseases("Fumarase_deficiency|not_provided|Leiomyomatosis"))

	assert.Equal(t, map[string]int{"Pathogenic": 1, "Uncertain_significance": 2},
		submitterCounts("Pathogenic(1)|Uncertain_significance(2)"))
	assert.Nil(t, submitterCounts("garbage"))
}
