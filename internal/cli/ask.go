package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"policyrag/internal/adapter/analyzer"
	"policyrag/internal/domain"
	"policyrag/internal/port"
	"policyrag/internal/usecase"
)

var (
	askQuestion   string
	askTopK       int
	askJSON       bool
	askNoGenerate bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the ingested document",
	Long: `Retrieve the passages nearest to the question and, unless disabled, ask the
configured language model to answer from them.

Examples:
  policyrag ask -q "How many days of annual leave do I get?"
  policyrag ask -q "sick leave certificate" -k 3 --no-generate --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askNoGenerate, "no-generate", false, "only retrieve, do not call the language model")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := openIndex(cfg, GetRootDir(), true)
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, err := newQueryEmbedder(cfg)
	if err != nil {
		return err
	}

	var generator port.Generator
	if !askNoGenerate {
		generator = newGenerator(cfg)
	}

	assembler, err := usecase.NewAssembler(analyzer.NewTokenizer())
	if err != nil {
		return err
	}
	retrieveUC := usecase.NewRetrieveUseCase(embedder, idx, cfg.Collection.Name, cfg.Retrieve.TopK, logger)
	answers := usecase.NewAnswerService(retrieveUC, assembler, generator, logger)

	answer, err := answers.Answer(context.Background(), askQuestion, askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printHits(answer.TopResults)
	if generator != nil {
		fmt.Printf("Answer:\n%s\n", answer.Answer)
	}
	return nil
}

func printHits(hits domain.RetrievalResult) {
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return
	}
	fmt.Printf("Found %d results:\n\n", len(hits))
	for i, h := range hits {
		page, _ := h.Metadata.Int(domain.MetaPage)
		fmt.Printf("--- [%d] %s p.%d (distance: %.4f) ---\n", i+1, h.Metadata.String(domain.MetaSource), page, h.Distance)
		text := []rune(h.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
}
