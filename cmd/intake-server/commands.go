package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Inreet-Kaur/capstone/internal/config"
	"github.com/Inreet-Kaur/capstone/internal/domain/intake"
	"github.com/Inreet-Kaur/capstone/internal/platform/classifier"
	"github.com/Inreet-Kaur/capstone/internal/platform/db"
	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
	"github.com/Inreet-Kaur/capstone/internal/platform/synthetic"
	"github.com/Inreet-Kaur/capstone/migrations"
)

type extractOutput struct {
	Input  string                     `json:"input"`
	Record *extraction.ClinicalRecord `json:"record"`
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract clinical records from text files (or stdin) and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}

			if len(args) == 0 {
				args = []string{"-"}
			}
			texts := make([]string, len(args))
			for i, name := range args {
				var (
					data []byte
					err  error
				)
				if name == "-" {
					data, err = io.ReadAll(cmd.InOrStdin())
				} else {
					data, err = os.ReadFile(name)
				}
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				texts[i] = string(data)
			}

			out := make([]extractOutput, len(texts))
			assembler := extraction.NewAssembler(nil)
			var g errgroup.Group
			g.SetLimit(workers)
			for i := range texts {
				i := i
				g.Go(func() error {
					out[i] = extractOutput{Input: args[i], Record: assembler.Assemble(texts[i])}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Int("workers", runtime.GOMAXPROCS(0), "Maximum number of inputs extracted concurrently")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Emit synthetic clinical notes with their ground truth",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")
			styleName, _ := cmd.Flags().GetString("style")
			format, _ := cmd.Flags().GetString("format")

			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			style, err := synthetic.ParseStyle(styleName)
			if err != nil {
				return err
			}
			records := synthetic.NewGenerator(seed, style).GenerateN(count)

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(records); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}
	cmd.Flags().Int("count", 5, "Number of records to generate")
	cmd.Flags().Int64("seed", 42, "Random seed")
	cmd.Flags().String("style", string(synthetic.StyleMixed), "Note style: structured, narrative or mixed")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	return cmd
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report per-field extraction recall over synthetic notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")
			styleName, _ := cmd.Flags().GetString("style")
			failUnder, _ := cmd.Flags().GetFloat64("fail-under")

			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			style, err := synthetic.ParseStyle(styleName)
			if err != nil {
				return err
			}

			report := synthetic.Evaluate(synthetic.NewGenerator(seed, style), count, nil)
			if err := report.WriteTable(cmd.OutOrStdout()); err != nil {
				return err
			}
			for _, f := range []string{"Name", "Age"} {
				if report.Recall[f] < failUnder {
					return fmt.Errorf("%s recall %.3f is below %.3f", f, report.Recall[f], failUnder)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("count", 200, "Number of synthetic notes")
	cmd.Flags().Int64("seed", 42, "Random seed")
	cmd.Flags().String("style", string(synthetic.StyleMixed), "Note style: structured, narrative or mixed")
	cmd.Flags().Float64("fail-under", 0, "Fail when Name or Age recall is below this value")
	return cmd
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Train the section classifier and predict the section of a sentence",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			seed, _ := cmd.Flags().GetInt64("seed")
			trees, _ := cmd.Flags().GetInt("trees")
			samples, _ := cmd.Flags().GetInt("samples")
			corpusPath, _ := cmd.Flags().GetString("corpus")

			if text == "" {
				return fmt.Errorf("--text is required")
			}

			var base *classifier.Corpus
			if corpusPath != "" {
				c, err := classifier.LoadCorpus(corpusPath)
				if err != nil {
					return err
				}
				base = c
			}

			svc := intake.NewService(nil, intake.WithClassifier(classifier.New(classifier.Options{Trees: trees, Seed: seed})))
			stats, err := svc.TrainClassifier(cmd.Context(), base, samples, seed)
			if err != nil {
				return err
			}
			label, err := svc.Classify(text)
			if err != nil {
				return err
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "trained on %d examples, %d features, labels %v\n",
					stats.Examples, stats.Features, stats.Labels)
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
	cmd.Flags().String("text", "", "Sentence to classify")
	cmd.Flags().Int64("seed", 42, "Random seed for the forest and synthetic sections")
	cmd.Flags().Int("trees", classifier.DefaultOptions().Trees, "Number of trees")
	cmd.Flags().Int("samples", 0, "Synthetic records added to the training corpus")
	cmd.Flags().String("corpus", "", "YAML corpus file used instead of the built-in corpus")
	cmd.Flags().BoolP("verbose", "v", false, "Print training statistics to stderr")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Migrations directory (defaults to the embedded migrations)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				return writeMigrationStatus(cmd.OutOrStdout(), statuses)
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Migrations directory (defaults to the embedded migrations)")

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func migrationFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func withMigrator(cmd *cobra.Command, fn func(context.Context, *db.Migrator) error) error {
	dir, _ := cmd.Flags().GetString("dir")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.PersistenceEnabled() {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	ctx := cmd.Context()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := newLogger(cfg).With().Str("component", "migrate").Logger()
	logger.Debug().Str("dir", dir).Msg("loading migrations")
	return fn(logger.WithContext(ctx), db.NewMigrator(pool, migrationFS(dir)))
}

func writeMigrationStatus(w io.Writer, statuses []db.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		status, at := "pending", "-"
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, at)
	}
	return tw.Flush()
}
