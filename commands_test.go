package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"denovo/pipeline/models"
	"denovo/pipeline/services/catalog"
	"denovo/pipeline/services/isec"
	"denovo/pipeline/services/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const childOnly = `##fileformat=VCFv4.2
##INFO=<ID=CLNSIG,Number=.,Type=String,Description="Clinical significance">
##INFO=<ID=GENEINFO,Number=1,Type=String,Description="Gene symbol and id">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample
chr1	241500602	.	A	AT	50	PASS	CLNSIG=Conflicting_classifications_of_pathogenicity;GENEINFO=FH:2271	GT	0/1
`

func testConfig(t *testing.T) *models.Config {
	cfg := &models.Config{}
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func execute(cfg *models.Config, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w: ALPHA_GENOME_KEY missing", models.ErrConfiguration)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: 1 violation", verification.ErrInconsistent)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestEvidenceRequiresApiKey(t *testing.T) {
	t.Setenv("ALPHA_GENOME_KEY", "")
	require.NoError(t, os.Unsetenv("ALPHA_GENOME_KEY"))
	cfg := testConfig(t)

	_, err := execute(cfg, "--variant", "FH")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	// nothing was written
	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadCatalogByGene(t *testing.T) {
	cfg := testConfig(t)

	cat, err := loadCatalog(cfg, "", "fh")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	_, err = loadCatalog(cfg, "", "BRCA1")
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = loadCatalog(cfg, filepath.Join(t.TempDir(), "missing.yml"), "")
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestCatalogCommand(t *testing.T) {
	prefix := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(prefix, isec.ChildOnlyFile), []byte(childOnly), 0o644))

	outPath := filepath.Join(t.TempDir(), "catalog.yml")
	_, err := execute(testConfig(t), "catalog", "--prefix", prefix, "-o", outPath)
	require.NoError(t, err)

	cat, err := catalog.Load(outPath)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "FH", cat.Variants()[0].Gene)
}

func TestVerifyCommandWithoutOutput(t *testing.T) {
	_, err := execute(testConfig(t), "verify")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}
