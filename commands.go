package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"denovo/pipeline/logger"
	"denovo/pipeline/models"
	c "denovo/pipeline/models/constants"
	assemblyId "denovo/pipeline/models/constants/assembly-id"
	"denovo/pipeline/models/dtos"
	"denovo/pipeline/mvc"
	esRepo "denovo/pipeline/repositories/elasticsearch"
	"denovo/pipeline/repositories/results"
	"denovo/pipeline/services/catalog"
	"denovo/pipeline/services/evidence"
	"denovo/pipeline/services/isec"
	"denovo/pipeline/services/prediction"
	"denovo/pipeline/services/rescheduling"
	"denovo/pipeline/services/verification"
	"denovo/pipeline/utils"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type evidenceFlags struct {
	gene        string
	catalogPath string
	limit       int
	resume      bool
	retryEvery  time.Duration
	maxReruns   int
}

func newRootCommand(cfg *models.Config) *cobra.Command {
	var ef evidenceFlags

	root := &cobra.Command{
		Use:           "trio-denovo",
		Short:         "Trio de novo candidate discovery and functional evidence",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvidence(cmd, cfg, ef)
		},
	}
	bindEvidenceFlags(root, &ef)

	evidenceCmd := &cobra.Command{
		Use:   "evidence",
		Short: "Assess catalog variants against the prediction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvidence(cmd, cfg, ef)
		},
	}
	bindEvidenceFlags(evidenceCmd, &ef)

	root.AddCommand(evidenceCmd, newIsecCommand(cfg), newCatalogCommand(cfg), newVerifyCommand(cfg), newServeCommand(cfg))
	return root
}

func bindEvidenceFlags(cmd *cobra.Command, ef *evidenceFlags) {
	cmd.Flags().StringVar(&ef.gene, "variant", "", "Only assess catalog entries for this gene (e.g. FH)")
	cmd.Flags().StringVar(&ef.catalogPath, "catalog", "", "Catalog yaml (defaults to TRIO_CATALOG_PATH, then the built-in catalog)")
	cmd.Flags().IntVar(&ef.limit, "limit", 0, "Assess at most this many variants (0 = all)")
	cmd.Flags().BoolVar(&ef.resume, "resume", false, "Reuse stored succeeded and skipped results")
	cmd.Flags().DurationVar(&ef.retryEvery, "retry-failed-every", 0, "Rerun failed variants on this interval until none fail")
	cmd.Flags().IntVar(&ef.maxReruns, "max-reruns", 0, "Stop rescheduling after this many reruns (0 = unlimited)")
	cmd.Flags().SortFlags = false
}

func loadCatalog(cfg *models.Config, path, gene string) (*catalog.Catalog, error) {
	if path == "" {
		path = cfg.Output.CatalogPath
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if path == "" {
		cat, err = catalog.LoadDefault()
	} else {
		cat, err = catalog.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	if gene != "" {
		if cat, err = cat.ByGene(gene); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
		}
	}
	return cat, nil
}

func runEvidence(cmd *cobra.Command, cfg *models.Config, ef evidenceFlags) error {
	ctx := cmd.Context()

	// the api key is checked before any variant is touched
	pc, err := models.LoadPredictionConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg, ef.catalogPath, ef.gene)
	if err != nil {
		return err
	}

	store := results.NewFileStore(cfg.Output.Dir)
	svc := evidence.NewEvidenceService(pc, prediction.NewClient(pc), store)

	if cfg.ElasticsearchEnabled() {
		es, err := utils.CreateEsConnection(cfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable; results will only be written to disk", zap.Error(err))
		} else {
			svc.WithPublisher(esRepo.NewPublisher(es, cfg.Elasticsearch.Index))
		}
	}

	summary, err := svc.Run(ctx, cat, evidence.Options{Resume: ef.resume, Limit: ef.limit})
	if err != nil {
		return err
	}
	printSummary(cmd, summary)

	if summary.Failed > 0 && ef.retryEvery > 0 {
		logger.Info("rescheduling failed variants",
			zap.Int("failed", summary.Failed), zap.Duration("every", ef.retryEvery))
		summary, err = rescheduling.NewRescheduleService(svc, cat, ef.limit, ef.retryEvery, ef.maxReruns).Run(ctx)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)
	}
	return nil
}

func printSummary(cmd *cobra.Command, s *dtos.RunSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d variants, %d succeeded, %d failed, %d skipped (%d reused)\n",
		s.RunId, s.Total, s.Succeeded, s.Failed, s.Skipped, s.Reused)
	classes := make([]string, 0, len(s.Classifications))
	for class := range s.Classifications {
		classes = append(classes, string(class))
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", class, s.Classifications[c.Classification(class)])
	}
}

func newIsecCommand(cfg *models.Config) *cobra.Command {
	var (
		in     isec.Inputs
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "isec",
		Short: "Partition trio calls into child-only, father-only and mother-only sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := isec.NewIsecService(cfg).Run(cmd.Context(), in, prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "child-only (de novo candidates): %d\n", result.ChildOnlyCount())
			fmt.Fprintf(out, "father-only: %d\n", result.FatherOnlyCount())
			fmt.Fprintf(out, "mother-only: %d\n", result.MotherOnlyCount())
			fmt.Fprintf(out, "child-only pathogenic/likely pathogenic: %d\n", len(isec.PathogenicRecords(result.ChildOnly)))
			fmt.Fprintf(out, "child-only conflicting classifications: %d\n", len(isec.ConflictingRecords(result.ChildOnly)))
			fmt.Fprintf(out, "partitions written to %s\n", prefix)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Child, "child", "child.vcf.gz", "Child (proband) VCF")
	cmd.Flags().StringVar(&in.Father, "father", "father.vcf.gz", "Father VCF")
	cmd.Flags().StringVar(&in.Mother, "mother", "mother.vcf.gz", "Mother VCF")
	cmd.Flags().StringVar(&prefix, "prefix", "isec_output", "Output directory for the partitions")
	cmd.Flags().SortFlags = false
	return cmd
}

func newCatalogCommand(cfg *models.Config) *cobra.Command {
	var (
		prefix   string
		out      string
		assembly string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Seed a candidate catalog from the child-only partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !assemblyId.IsKnownAssemblyId(assembly) {
				return fmt.Errorf("%w: unknown assembly %q", models.ErrConfiguration, assembly)
			}

			records, err := isec.ReadPartition(filepath.Join(prefix, isec.ChildOnlyFile))
			if err != nil {
				return err
			}
			cat, err := catalog.FromRecords(assemblyId.CastToAssemblyId(assembly), records)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return cat.Write(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create '%s': %w", out, err)
			}
			defer f.Close()
			if err := cat.Write(f); err != nil {
				return err
			}
			logger.Info("catalog written", zap.String("path", out), zap.Int("variants", cat.Len()))
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "isec_output", "Directory holding the set-difference partitions")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the catalog here instead of stdout")
	cmd.Flags().StringVar(&assembly, "assembly", "GRCh38", "Reference assembly of the calls")
	return cmd
}

func newVerifyCommand(cfg *models.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recount persisted evidence output and check it adds up",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := verification.Verify(results.NewFileStore(cfg.Output.Dir))
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d aggregate rows, %d skipped rows, %d result files, run total %d\n",
					report.AggregateRows, report.SkippedRows, report.ResultFiles, report.Summary.Total)
				for _, v := range report.Violations {
					fmt.Fprintf(cmd.OutOrStdout(), "  violation: %s\n", v)
				}
			}
			if errors.Is(err, results.ErrNotFound) {
				return fmt.Errorf("nothing to verify in '%s': %w", cfg.Output.Dir, err)
			}
			return err
		},
	}
}

func newServeCommand(cfg *models.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve persisted evidence output over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			var es *elasticsearch.Client
			if cfg.ElasticsearchEnabled() {
				client, err := utils.CreateEsConnection(cfg)
				if err != nil {
					logger.Warn("elasticsearch unavailable; serving files only", zap.Error(err))
				} else {
					es = client
				}
			}
			e := mvc.NewServer(cfg, results.NewFileStore(cfg.Output.Dir), es)

			go func() {
				<-cmd.Context().Done()
				_ = e.Close()
			}()

			logger.Info("serving results", zap.String("dir", cfg.Output.Dir), zap.String("port", cfg.Serve.Port))
			err := e.Start(":" + cfg.Serve.Port)
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
}
