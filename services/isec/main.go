package isec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"denovo/pipeline/logger"
	"denovo/pipeline/models"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Partition file names written by `bcftools isec -p`.
const (
	ChildOnlyFile  = "0000.vcf"
	FatherOnlyFile = "0001.vcf"
	MotherOnlyFile = "0002.vcf"
	SitesFile      = "sites.txt"
	ReadmeFile     = "README.txt"
	SummaryFile    = "summary.txt"
)

type Inputs struct {
	Child  string
	Father string
	Mother string
}

func (in Inputs) paths() []string {
	return []string{in.Child, in.Father, in.Mother}
}

type (
	IsecService struct {
		runner       Runner
		bcftoolsPath string
		tabixPath    string
	}
)

func NewIsecService(cfg *models.Config) *IsecService {
	return NewIsecServiceWithRunner(cfg, &CommandRunner{
		ContainerRuntime: cfg.Isec.ContainerRuntime,
		Image:            cfg.Isec.Image,
	})
}

func NewIsecServiceWithRunner(cfg *models.Config, runner Runner) *IsecService {
	bcftools, tabix := cfg.Isec.BcftoolsPath, cfg.Isec.TabixPath
	if bcftools == "" {
		bcftools = "bcftools"
	}
	if tabix == "" {
		tabix = "tabix"
	}
	return &IsecService{runner: runner, bcftoolsPath: bcftools, tabixPath: tabix}
}

// Validate checks inputs and tooling. Every error it returns wraps
// models.ErrConfiguration.
func (s *IsecService) Validate(in Inputs) error {
	for _, p := range in.paths() {
		if p == "" {
			return fmt.Errorf("%w: missing input VCF path", models.ErrConfiguration)
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: input VCF '%s' does not exist", models.ErrConfiguration, p)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: input VCF '%s' is a directory", models.ErrConfiguration, p)
		}
	}
	if err := s.runner.Check(s.bcftoolsPath); err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	return nil
}

// Run partitions the trio into records private to each sample and writes
// the partitions plus summary.txt under prefix.
func (s *IsecService) Run(ctx context.Context, in Inputs, prefix string) (*indexes.SetDifferenceResult, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory '%s': %w", prefix, err)
	}

	for _, p := range in.paths() {
		if err := s.EnsureIndex(ctx, p); err != nil {
			return nil, err
		}
	}

	cmd := Command{
		Tool: s.bcftoolsPath,
		Args: []string{"isec", "-n=1", "-c", "none", "-p", prefix, in.Child, in.Father, in.Mother},
	}
	cmd.Mounts = append(cmd.Mounts, mountDirs(prefix, in.Child, in.Father, in.Mother)...)

	logger.Info("running set-difference", zap.String("child", in.Child), zap.String("father", in.Father),
		zap.String("mother", in.Mother), zap.String("prefix", prefix))
	if err := s.runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("set-difference failed: %w", err)
	}

	result, err := ReadPartitions(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if err := WriteSummary(filepath.Join(prefix, SummaryFile), result); err != nil {
		return nil, err
	}

	logger.Info("set-difference complete",
		zap.Int("childOnly", result.ChildOnlyCount()),
		zap.Int("fatherOnly", result.FatherOnlyCount()),
		zap.Int("motherOnly", result.MotherOnlyCount()))
	return result, nil
}

// EnsureIndex creates a tabix index next to a bgzipped VCF that has none.
func (s *IsecService) EnsureIndex(ctx context.Context, path string) error {
	if !strings.HasSuffix(path, ".gz") {
		return nil
	}
	for _, ext := range []string{".tbi", ".csi"} {
		if utils.FileExists(path + ext) {
			return nil
		}
	}
	if err := s.runner.Check(s.tabixPath); err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	logger.Info("generating tabix index", zap.String("file", path))
	err := s.runner.Run(ctx, Command{
		Tool:   s.tabixPath,
		Args:   []string{"-p", "vcf", "-f", path},
		Mounts: mountDirs(path),
	})
	if err != nil {
		return fmt.Errorf("failed to index '%s': %w", path, err)
	}
	return nil
}

// ReadPartitions parses the three partition files of a finished run. Counts
// are always derived from the files, so repeated calls agree.
func ReadPartitions(ctx context.Context, prefix string) (*indexes.SetDifferenceResult, error) {
	result := &indexes.SetDifferenceResult{}
	targets := []struct {
		file string
		dst  *[]indexes.VariantRecord
	}{
		{ChildOnlyFile, &result.ChildOnly},
		{FatherOnlyFile, &result.FatherOnly},
		{MotherOnlyFile, &result.MotherOnly},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := ReadPartition(filepath.Join(prefix, t.file))
			if err != nil {
				return err
			}
			*t.dst = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.SortByPosition()
	if err := result.CheckDisjoint(); err != nil {
		return nil, errors.New("partitions are not disjoint: " + err.Error())
	}
	return result, nil
}

func mountDirs(paths ...string) []string {
	dirs := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			dirs = append(dirs, p)
			continue
		}
		dirs = append(dirs, filepath.Dir(p))
	}
	return dirs
}
