package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"policyrag/internal/adapter/analyzer"
	"policyrag/internal/server"
	"policyrag/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering API over HTTP",
	Long: `Start an HTTP server exposing:
  POST /ask      {"question": "...", "k": 5}
  GET  /health
  GET  /info
  GET  /metrics  (Prometheus)

The listen address comes from server.host and server.port (FLASK_HOST and
FLASK_PORT in the environment).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := openIndex(cfg, GetRootDir(), false)
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, err := newQueryEmbedder(cfg)
	if err != nil {
		return err
	}

	assembler, err := usecase.NewAssembler(analyzer.NewTokenizer())
	if err != nil {
		return err
	}
	retrieveUC := usecase.NewRetrieveUseCase(embedder, idx, cfg.Collection.Name, cfg.Retrieve.TopK, logger)
	answers := usecase.NewAnswerService(retrieveUC, assembler, newGenerator(cfg), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Addr(), answers, idx, cfg.Collection.Name, logger).ListenAndServe(ctx)
}
