package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"policyrag/internal/adapter/chunker"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/loader"
	"policyrag/internal/adapter/memstore"
	"policyrag/internal/domain"
	"policyrag/internal/port"
	"policyrag/internal/usecase"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a document into the collection",
	Long: `Extract, chunk and embed a document, then replace the configured collection
with the result. Run this while the server is stopped: the index file is locked
by whichever process has it open.

Examples:
  policyrag ingest leave_policy.pdf
  policyrag ingest handbook.txt --dry-run   # Build in memory, persist nothing`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "ingest into memory without touching the persisted index")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	chk, err := chunker.NewCharChunker(cfg.Ingest.ChunkSize)
	if err != nil {
		return err
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	var index port.VectorIndex
	if ingestDryRun {
		mem, err := memstore.NewMemoryIndex(cfg.Collection.Metric)
		if err != nil {
			return err
		}
		index = mem
	} else {
		idx, err := openIndex(cfg, GetRootDir(), false)
		if err != nil {
			return err
		}
		defer idx.Close()
		index = idx
	}

	progress := newIngestProgress()
	ingestUC := usecase.NewIngestUseCase(
		loader.NewLoader(cfg.Ingest.Includes, logger),
		chk,
		embedder,
		index,
		usecase.IngestOptions{
			Collection: cfg.Collection.Name,
			ProbeQuery: cfg.Ingest.ProbeQuery,
			EmbedBatch: cfg.Embedding.BatchSize,
			Progress:   progress.update,
		},
		logger,
	)

	fmt.Printf("Ingesting %s...\n", path)
	result, err := ingestUC.Ingest(context.Background(), path)
	progress.finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Source:     %s\n", result.Source)
	fmt.Printf("  Pages:      %d\n", result.Pages)
	fmt.Printf("  Chunks:     %d\n", result.Chunks)
	if result.CountErr != nil {
		fmt.Printf("  Collection: %s (count unavailable: %v)\n", result.Collection, result.CountErr)
	} else {
		fmt.Printf("  Collection: %s (%d documents)\n", result.Collection, result.Count)
	}
	fmt.Printf("  Model:      %s\n", embedder.ModelName())
	fmt.Printf("  Duration:   %s\n", formatDuration(result.Duration))

	if p := result.Probe; p != nil {
		switch {
		case p.Err != nil:
			fmt.Printf("\nVerification query %q failed: %v\n", p.Query, p.Err)
		case p.Hits == 0:
			fmt.Printf("\nVerification query %q returned no results\n", p.Query)
		default:
			fmt.Printf("\nSample result for %q:\n  %s...\n", p.Query, p.Sample)
		}
	}

	if ingestDryRun {
		fmt.Println("\nDry run: nothing was persisted.")
		return nil
	}

	fmt.Printf("\nIndex stored at: %s\n", result.Location)
	listStorage(filepath.Dir(result.Location))
	return nil
}

// listStorage prints the files in the persist directory.
func listStorage(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("failed to list storage directory", "dir", dir, "error", err)
		return
	}
	fmt.Printf("Files in %s:\n", dir)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		fmt.Printf("  %-20s %d bytes\n", e.Name(), info.Size())
	}
}

// ingestProgress renders the embedding stage as a progress bar; the
// other stages are quick and only logged.
type ingestProgress struct {
	bar   *progressbar.ProgressBar
	start time.Time
}

func newIngestProgress() *ingestProgress {
	return &ingestProgress{}
}

func (p *ingestProgress) update(stage string, done, total int) {
	if stage != domain.StageEmbed {
		logger.Debug("stage complete", "stage", stage, "items", total)
		return
	}

	if p.bar == nil {
		p.start = time.Now()
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	_ = p.bar.Set(done)

	if done > 0 && done < total {
		elapsed := time.Since(p.start)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			p.bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
		}
	}
}

func (p *ingestProgress) finish() {
	if p.bar != nil && !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
